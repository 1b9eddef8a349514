// Package xfer implements xmodem and ymodem file transfer over an
// io.Reader/io.Writer pair, grounded on original_source/src/xmodem.c (128-
// byte blocks, checksum-or-CRC16 negotiation, SOH/STX/EOT/CAN framing) and
// original_source/xymodem/ymodem.c (ymodem's block-0 filename/size header
// and 1K block option). Used by the shell's "xmodem"/"ymodem" commands to
// move files into/out of internal/hostfs.
package xfer

import (
	"bufio"
	"errors"
	"io"
	"time"
)

// Framing bytes, per xcommon.h.
const (
	soh   = 0x01
	stx   = 0x02
	eot   = 0x04
	ack   = 0x06
	nak   = 0x15
	can   = 0x18
	ctrlZ = 0x1a
)

const (
	shortBlock = 128
	longBlock  = 1024
	maxRetrans = 25
	byteTimeout = 1 * time.Second
)

var (
	ErrCancelled = errors.New("xfer: transfer cancelled by peer")
	ErrTooMany   = errors.New("xfer: too many retransmissions")
	ErrSync      = errors.New("xfer: failed to sync with peer")
)

// reader is the minimal per-byte input surface both xmodem and ymodem
// need; it wraps a bufio.Reader and sets no read deadline, so a silent
// peer blocks a read until the underlying stream returns.
type reader struct {
	br *bufio.Reader
}

func newReader(r io.Reader) *reader { return &reader{br: bufio.NewReader(r)} }

// getByte reads one byte, returning (0, err) on any read failure; callers
// that need xmodem.c's "DLY_1S" timeout semantics rely on the caller's own
// retry loop rather than a real per-call deadline, since io.Reader has no
// portable read-with-timeout primitive over an arbitrary stream.
func (r *reader) getByte() (byte, error) {
	return r.br.ReadByte()
}

func writeByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	return err
}

func putCancel(w io.Writer) {
	writeByte(w, can)
	writeByte(w, can)
}
