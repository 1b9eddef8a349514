// Package term wraps golang.org/x/term to give the shell and line editor
// a raw getchar/putchar/flush/width/height surface, grounded on
// original_source/src/dgreadln.c's direct single-character terminal
// reads during line editing and xmodem/ymodem transfers.
package term

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/term"
)

// Terminal is the shell's raw-mode collaborator, constructed over a
// *os.File. When no Terminal is attached (Shell.Term is nil), the shell
// skips raw-mode switching.
type Terminal struct {
	in       *os.File
	out      io.Writer
	reader   *bufio.Reader
	oldState *term.State
	raw      bool
}

// New wraps in/out, leaving the terminal in cooked mode until EnterRaw is
// called.
func New(in *os.File, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, reader: bufio.NewReader(in)}
}

// EnterRaw switches the underlying file descriptor to raw mode (no line
// buffering, no echo), matching the mode dgreadln.c's getch() expects the
// UART to already be in. A no-op, non-error return if in isn't a terminal.
func (t *Terminal) EnterRaw() error {
	if !term.IsTerminal(int(t.in.Fd())) {
		return nil
	}
	st, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		return err
	}
	t.oldState = st
	t.raw = true
	return nil
}

// Restore undoes EnterRaw, a no-op if raw mode was never entered.
func (t *Terminal) Restore() error {
	if !t.raw || t.oldState == nil {
		return nil
	}
	err := term.Restore(int(t.in.Fd()), t.oldState)
	t.raw = false
	return err
}

// GetChar reads one raw byte, blocking, the Go equivalent of pico_hal.c's
// getchar_timeout_us(-1) used throughout shell.c for single-key reads.
func (t *Terminal) GetChar() (byte, error) {
	return t.reader.ReadByte()
}

// PutChar writes one byte straight to the terminal, no buffering.
func (t *Terminal) PutChar(b byte) error {
	_, err := t.out.Write([]byte{b})
	return err
}

// WriteString writes s straight to the terminal.
func (t *Terminal) WriteString(s string) error {
	_, err := io.WriteString(t.out, s)
	return err
}

// Size returns the terminal's current column/row count, falling back to
// the conventional 80x24 default when the size can't be queried (not a
// real tty, or the ioctl fails).
func (t *Terminal) Size() (cols, rows int) {
	if !term.IsTerminal(int(t.in.Fd())) {
		return 80, 24
	}
	w, h, err := term.GetSize(int(t.in.Fd()))
	if err != nil {
		return 80, 24
	}
	return w, h
}
