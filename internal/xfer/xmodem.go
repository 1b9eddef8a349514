package xfer

import (
	"io"
)

// BlockSink receives one successfully verified data block during a
// receive, the Go shape of xmodem.c's xmodem_cb_t callback.
type BlockSink func(data []byte) error

// BlockSource supplies the next block to send, returning io.EOF (with
// whatever final partial data remains, possibly none) once the file is
// exhausted — the send-side mirror of BlockSink.
type BlockSource func() ([]byte, error)

// Receive implements xmodemReceive: requests CRC-16 mode by sending 'C'
// (it stays in CRC mode and does not fall back to checksum mode), reads
// 128-byte blocks until EOT, and hands each verified block to sink.
// Returns the total byte count received, padding of the last block included.
func Receive(r io.Reader, w io.Writer, sink BlockSink) (int, error) {
	in := newReader(r)
	useCRC := true
	expectSeq := byte(1)
	total := 0
	retries := 0

	negotiate := func() {
		if useCRC {
			writeByte(w, 'C')
		} else {
			writeByte(w, nak)
		}
	}
	negotiate()

	for {
		b, err := in.getByte()
		if err != nil {
			retries++
			if retries > maxRetrans {
				return total, ErrSync
			}
			negotiate()
			continue
		}
		switch b {
		case soh, stx:
			size := shortBlock
			if b == stx {
				size = longBlock
			}
			data, ok := readBlock(in, size, useCRC, expectSeq)
			if !ok {
				writeByte(w, nak)
				continue
			}
			if err := sink(data); err != nil {
				putCancel(w)
				return total, err
			}
			total += len(data)
			expectSeq++
			retries = 0
			writeByte(w, ack)
		case eot:
			writeByte(w, ack)
			return total, nil
		case can:
			c, _ := in.getByte()
			if c == can {
				writeByte(w, ack)
				return total, ErrCancelled
			}
		default:
			retries++
			if retries > maxRetrans {
				return total, ErrSync
			}
		}
	}
}

// readBlock reads one block body (sequence byte, ~sequence byte, size bytes
// of data, then a checksum or 2-byte CRC) and verifies it, returning ok=
// false on any framing or integrity mismatch so the caller NAKs and retries.
func readBlock(in *reader, size int, useCRC bool, expectSeq byte) ([]byte, bool) {
	seq, err := in.getByte()
	if err != nil {
		return nil, false
	}
	seqComp, err := in.getByte()
	if err != nil {
		return nil, false
	}
	if seq != expectSeq || seqComp != ^expectSeq {
		return nil, false
	}
	data := make([]byte, size)
	for i := range data {
		c, err := in.getByte()
		if err != nil {
			return nil, false
		}
		data[i] = c
	}
	if useCRC {
		hi, err1 := in.getByte()
		lo, err2 := in.getByte()
		if err1 != nil || err2 != nil {
			return nil, false
		}
		want := uint16(hi)<<8 | uint16(lo)
		if crc16(data) != want {
			return nil, false
		}
	} else {
		sum, err := in.getByte()
		if err != nil || sum != checksum(data) {
			return nil, false
		}
	}
	return data, true
}

// Send implements xmodemTransmit: waits for the receiver's 'C' (CRC mode)
// or NAK (checksum mode), then streams the data from src until io.EOF,
// split into 128-byte blocks (the last padded with CTRL-Z), followed by EOT.
func Send(r io.Reader, w io.Writer, src BlockSource) (int, error) {
	in := newReader(r)
	useCRC, err := awaitStart(in)
	if err != nil {
		return 0, err
	}

	seq := byte(1)
	total := 0
	for {
		data, srcErr := src()
		if len(data) == 0 && srcErr == io.EOF {
			break
		}
		for len(data) > 0 {
			n := len(data)
			if n > shortBlock {
				n = shortBlock
			}
			block := make([]byte, shortBlock)
			copy(block, data[:n])
			for i := n; i < shortBlock; i++ {
				block[i] = ctrlZ
			}
			if err := sendBlock(in, w, seq, block, useCRC); err != nil {
				putCancel(w)
				return total, err
			}
			total += n
			seq++
			data = data[n:]
		}
		if srcErr == io.EOF {
			break
		}
		if srcErr != nil {
			putCancel(w)
			return total, srcErr
		}
	}

	for i := 0; i < maxRetrans; i++ {
		writeByte(w, eot)
		b, err := in.getByte()
		if err == nil && b == ack {
			return total, nil
		}
	}
	return total, ErrTooMany
}

func awaitStart(in *reader) (useCRC bool, err error) {
	for i := 0; i < maxRetrans; i++ {
		b, readErr := in.getByte()
		if readErr != nil {
			continue
		}
		switch b {
		case 'C':
			return true, nil
		case nak:
			return false, nil
		case can:
			return false, ErrCancelled
		}
	}
	return false, ErrSync
}

func sendBlock(in *reader, w io.Writer, seq byte, block []byte, useCRC bool) error {
	for attempt := 0; attempt < maxRetrans; attempt++ {
		writeByte(w, soh)
		writeByte(w, seq)
		writeByte(w, ^seq)
		w.Write(block)
		if useCRC {
			crc := crc16(block)
			writeByte(w, byte(crc>>8))
			writeByte(w, byte(crc))
		} else {
			writeByte(w, checksum(block))
		}
		b, err := in.getByte()
		if err != nil {
			continue
		}
		switch b {
		case ack:
			return nil
		case can:
			return ErrCancelled
		}
	}
	return ErrTooMany
}
