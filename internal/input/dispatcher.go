package input

import (
	"context"
	"errors"
	"io"

	"github.com/jfmyers9/ttyplay/internal/player"
	"github.com/rs/zerolog"
)

// Submitter accepts player commands without waiting for them to apply
type Submitter interface {
	Submit(cmd player.Command) bool
}

// Dispatcher reads keys and forwards the bound commands in arrival order
type Dispatcher struct {
	keys     *KeyReader
	target   Submitter
	bindings Bindings
	logger   zerolog.Logger
}

// NewDispatcher creates a Dispatcher reading raw bytes from r
func NewDispatcher(r io.Reader, target Submitter, bindings Bindings, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		keys:     NewKeyReader(r),
		target:   target,
		bindings: bindings,
		logger:   logger.With().Str("component", "input").Logger(),
	}
}

// Run dispatches keys until Quit is pressed, the target stops accepting
// commands, or ctx is cancelled. When the input reaches EOF, Run waits for
// ctx so playback continues without a keyboard.
//
// The blocking read happens on a separate goroutine that cannot be
// interrupted; it exits when the reader returns an error.
func (d *Dispatcher) Run(ctx context.Context) error {
	keyCh := make(chan Key)
	errCh := make(chan error, 1)

	go func() {
		for {
			k, err := d.keys.ReadKey()
			if err != nil {
				errCh <- err
				return
			}
			select {
			case keyCh <- k:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-errCh:
			if !errors.Is(err, io.EOF) {
				return err
			}
			d.logger.Debug().Msg("Input closed, keyboard control disabled")
			<-ctx.Done()
			return nil

		case k := <-keyCh:
			cmd, ok := d.bindings.Lookup(k)
			if !ok {
				d.logger.Debug().Str("key", k.String()).Msg("Unbound key")
				continue
			}

			d.logger.Debug().Str("key", k.String()).Str("command", cmd.String()).Msg("Key pressed")
			if !d.target.Submit(cmd) {
				return nil
			}
			if cmd == player.Quit {
				return nil
			}
		}
	}
}
