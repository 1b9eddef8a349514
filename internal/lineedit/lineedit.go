// Package lineedit wraps github.com/chzyer/readline to give the shell
// history-backed line editing matching the feature list of
// original_source/src/dgreadln.c (cursor motion, kill-to-end-of-line,
// history recall) without hand-rolling a raw-mode input loop.
package lineedit

import (
	"io"

	"github.com/chzyer/readline"
)

// Editor is the shell's line-input collaborator.
type Editor struct {
	inst *readline.Instance
}

// Config mirrors the handful of dgreadln.c knobs worth exposing: prompt
// text, history size, and the raw stdin/stdout streams so the same
// terminal session backs both line editing and the shell's direct
// single-key reads during file transfer.
type Config struct {
	Prompt       string
	HistoryLimit int
	Stdin        io.ReadCloser
	Stdout       io.Writer
}

// New builds an Editor. HistoryLimit defaults to 100 (dgreadln.c's fixed
// HIST_SZ line-ring size) when unset.
func New(cfg Config) (*Editor, error) {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 100
	}
	inst, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Prompt,
		HistoryLimit:    limit,
		Stdin:           cfg.Stdin,
		Stdout:          cfg.Stdout,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	return &Editor{inst: inst}, nil
}

// ReadLine reads one edited, history-recorded line. io.EOF on ^D.
func (e *Editor) ReadLine() (string, error) {
	return e.inst.Readline()
}

// SetPrompt changes the prompt shown before the next ReadLine call.
func (e *Editor) SetPrompt(p string) {
	e.inst.SetPrompt(p)
}

func (e *Editor) Close() error {
	return e.inst.Close()
}
