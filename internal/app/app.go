// Package app wires a resolved source into a playback session: the engine,
// the keyboard dispatcher, the status renderer and the optional history
// recorder, plus the shutdown protocol that ties them together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/jfmyers9/ttyplay/internal/audio"
	"github.com/jfmyers9/ttyplay/internal/discord"
	"github.com/jfmyers9/ttyplay/internal/history"
	"github.com/jfmyers9/ttyplay/internal/input"
	"github.com/jfmyers9/ttyplay/internal/metadata"
	"github.com/jfmyers9/ttyplay/internal/player"
	"github.com/jfmyers9/ttyplay/internal/playlist"
	"github.com/jfmyers9/ttyplay/internal/render"
	"github.com/jfmyers9/ttyplay/internal/source"
	"github.com/rs/zerolog"
)

// ErrSessionPanic is returned by Run when one of the session goroutines
// panicked. The terminal and audio device are released before Run returns.
var ErrSessionPanic = errors.New("session goroutine panicked")

// Config is the validated session configuration
type Config struct {
	Source      string
	Mode        playlist.Mode
	Loop        bool
	Simple      bool
	Volume      int
	ExitOnEnd   bool
	RefreshRate time.Duration

	// plays older than this are pruned from history on exit
	HistoryRetention time.Duration
}

// Console is the terminal a session draws on and reads keys from
type Console interface {
	io.Writer
	Keys() io.Reader
	Width() int
	Restore() error
}

// SourceResolver expands the source argument into track paths
type SourceResolver interface {
	Resolve(input string) (*source.Result, error)
}

// HistoryStore persists plays
type HistoryStore interface {
	history.Writer
	Cleanup(ctx context.Context, maxAge time.Duration) (int64, error)
	Close() error
}

// Deps are the collaborators a session runs against
type Deps struct {
	Opener  audio.Opener
	Meta    *metadata.Cache
	History HistoryStore // nil disables history

	Presence *discord.Presence // nil disables rich presence
}

// App is a single playback session
type App struct {
	config   Config
	deps     Deps
	model    *playlist.Model
	engine   *player.Engine
	events   chan player.Event
	warnings []string
	logger   zerolog.Logger

	teardownOnce sync.Once
}

// New resolves the source and builds the playlist and engine. It fails
// before any terminal or audio state is touched when nothing is playable.
func New(cfg Config, resolver SourceResolver, deps Deps, logger zerolog.Logger) (*App, error) {
	logger = logger.With().Str("component", "app").Logger()

	res, err := resolver.Resolve(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", cfg.Source, err)
	}

	for _, w := range res.Warnings {
		logger.Warn().Str("source", cfg.Source).Msg(w)
	}

	model, err := playlist.Build(playlist.FromPaths(res.Paths), cfg.Mode, cfg.Loop)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Source, err)
	}

	logger.Info().
		Str("source", cfg.Source).
		Str("kind", res.Kind.String()).
		Int("tracks", model.Len()).
		Int("warnings", len(res.Warnings)).
		Str("mode", cfg.Mode.String()).
		Bool("loop", cfg.Loop).
		Msg("Source resolved")

	a := &App{
		config:   cfg,
		deps:     deps,
		model:    model,
		warnings: res.Warnings,
		logger:   logger,
	}

	opts := []player.Option{
		player.WithVolume(cfg.Volume),
		player.WithStopOnExhaust(cfg.ExitOnEnd),
	}
	if deps.Meta != nil {
		opts = append(opts, player.WithPrefetch(func(t playlist.Track) {
			deps.Meta.Resolve(t.Path)
		}))
	}
	if deps.History != nil {
		a.events = make(chan player.Event, player.EventBufferSize)
		opts = append(opts, player.WithEvents(a.events))
	}
	a.engine = player.New(model, deps.Opener, logger, opts...)

	return a, nil
}

// Warnings returns the entries skipped while resolving the source
func (a *App) Warnings() []string {
	return a.warnings
}

// Tracks returns the resolved track list in list order
func (a *App) Tracks() []playlist.Track {
	return a.model.Tracks()
}

// Run plays until the user quits, a signal arrives, or playback fails
// fatally. The sink is stopped and the console restored on every path out,
// including panics.
func (a *App) Run(ctx context.Context, console Console) (err error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.teardown(console)

	finished := make(chan struct{})
	defer close(finished)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// First signal shuts down gracefully, second forces exit
	go func() {
		select {
		case <-sigChan:
		case <-finished:
			return
		}
		a.logger.Info().Msg("Shutdown signal received")
		cancel()

		select {
		case <-sigChan:
			a.logger.Warn().Msg("Second shutdown signal received, forcing exit")
			a.teardown(console)
			os.Exit(1)
		case <-finished:
		}
	}()

	// queued ahead of any key so the first track starts before input is read
	a.engine.Submit(player.Play)

	dispatcher := input.NewDispatcher(console.Keys(), a.engine, input.DefaultBindings(), a.logger)
	renderer := render.New(
		render.Config{RefreshRate: a.config.RefreshRate, Simple: a.config.Simple},
		a.engine, a.deps.Meta, console, console.Width, a.logger,
	)

	var wg sync.WaitGroup
	engineErr := make(chan error, 1)
	panicErr := make(chan error, 1)

	// spawn runs fn under the WaitGroup. A panic cancels the session so the
	// others wind down and the deferred teardown still restores the console.
	spawn := func(name string, fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.logger.Error().
						Str("goroutine", name).
						Interface("panic", r).
						Bytes("stack", debug.Stack()).
						Msg("Session goroutine panicked")
					select {
					case panicErr <- fmt.Errorf("%w in %s: %v", ErrSessionPanic, name, r):
					default:
					}
					cancel()
				}
			}()
			fn()
		}()
	}

	// the recorder stops only after the engine has released its sink, so
	// the final stopped event is never lost to cancellation
	recordCtx, stopRecording := context.WithCancel(context.Background())
	defer stopRecording()

	spawn("engine", func() {
		defer cancel()
		defer stopRecording()

		err := a.engine.Run(ctx)
		a.engine.Close()
		engineErr <- err
	})

	spawn("input", func() {
		if err := dispatcher.Run(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Keyboard input failed")
		}
	})

	spawn("render", func() {
		if err := renderer.Run(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Renderer error")
		}
	})

	if a.deps.Presence != nil {
		spawn("presence", func() {
			a.deps.Presence.Run(ctx, a.engine, a.deps.Meta)
		})
	}

	if a.deps.History != nil {
		recorder := history.NewRecorder(a.deps.History, a.deps.Meta, a.logger)
		a.logger.Debug().Str("session", recorder.Session()).Msg("Recording history")

		spawn("history", func() {
			recorder.Run(recordCtx, a.events)
		})
	}

	wg.Wait()

	select {
	case err := <-panicErr:
		return err
	default:
	}

	// empty when the engine goroutine panicked before reporting
	select {
	case err := <-engineErr:
		if err != nil {
			if errors.Is(err, player.ErrNoPlayableTracks) {
				return fmt.Errorf("%s: every track failed to open: %w", a.config.Source, err)
			}
			return err
		}
	default:
	}

	a.logger.Info().Msg("Session ended")
	return nil
}

// teardown releases audio and terminal state in a fixed order. It runs once
// no matter how many exit paths reach it.
func (a *App) teardown(console Console) {
	a.teardownOnce.Do(func() {
		a.engine.Close()

		if err := console.Restore(); err != nil {
			a.logger.Warn().Err(err).Msg("Failed to restore terminal")
		}

		if closer, ok := a.deps.Opener.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to close audio device")
			}
		}

		if a.deps.History != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if a.config.HistoryRetention > 0 {
				if n, err := a.deps.History.Cleanup(ctx, a.config.HistoryRetention); err != nil {
					a.logger.Warn().Err(err).Msg("Failed to prune history")
				} else if n > 0 {
					a.logger.Debug().Int64("deleted", n).Msg("Pruned history")
				}
			}
			if err := a.deps.History.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("Failed to close history")
			}
		}
	})
}
