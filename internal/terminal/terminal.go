// Package terminal puts the controlling terminal into raw mode for the
// lifetime of a playback session and restores it exactly once.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// ErrNotTerminal is returned when raw mode cannot be entered
var ErrNotTerminal = errors.New("not an interactive terminal")

const (
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"

	defaultWidth = 80
)

// Terminal is a raw-mode session over an input and output stream
type Terminal struct {
	in      io.Reader
	out     io.Writer
	restore func() error
	size    func() (int, error)

	mu       sync.Mutex
	once     sync.Once
	restored bool
}

// Open switches in to raw mode and hides the cursor on out
func Open(in, out *os.File) (*Terminal, error) {
	inFd, outFd := int(in.Fd()), int(out.Fd())

	if !term.IsTerminal(inFd) {
		return nil, fmt.Errorf("%w: stdin is not a tty; run ttyplay from an interactive terminal", ErrNotTerminal)
	}

	state, err := term.MakeRaw(inFd)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to enter raw mode: %w", ErrNotTerminal, err)
	}

	t := newTerminal(in, out,
		func() error { return term.Restore(inFd, state) },
		func() (int, error) {
			w, _, err := term.GetSize(outFd)
			return w, err
		},
	)
	if _, err := io.WriteString(out, hideCursor); err != nil {
		_ = t.Restore()
		return nil, fmt.Errorf("failed to write to terminal: %w", err)
	}

	return t, nil
}

func newTerminal(in io.Reader, out io.Writer, restore func() error, size func() (int, error)) *Terminal {
	return &Terminal{
		in:      in,
		out:     out,
		restore: restore,
		size:    size,
	}
}

// Keys returns the raw input stream
func (t *Terminal) Keys() io.Reader {
	return t.in
}

// Write writes to the terminal. Writes after Restore are discarded so a
// late redraw cannot scribble over the shell prompt.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.restored {
		return len(p), nil
	}
	return t.out.Write(p)
}

// Width returns the terminal width in columns
func (t *Terminal) Width() int {
	w, err := t.size()
	if err != nil || w <= 0 {
		return defaultWidth
	}
	return w
}

// Restore shows the cursor, ends the status line and leaves raw mode.
// Only the first call has any effect.
func (t *Terminal) Restore() error {
	var err error
	t.once.Do(func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		t.restored = true
		_, _ = io.WriteString(t.out, showCursor+"\r\n")
		err = t.restore()
	})
	return err
}
