// Package render redraws the one-line status view in place.
package render

import (
	"context"
	"io"
	"time"

	"github.com/jfmyers9/ttyplay/internal/metadata"
	"github.com/jfmyers9/ttyplay/internal/player"
	"github.com/rs/zerolog"
)

// Source provides the state to draw
type Source interface {
	Snapshot() player.Snapshot
}

// Resolver provides display metadata for a path
type Resolver interface {
	Resolve(path string) metadata.Info
}

// Config holds renderer settings
type Config struct {
	RefreshRate time.Duration // how often to redraw
	Simple      bool          // progress only
}

// DefaultConfig returns the default renderer configuration
func DefaultConfig() Config {
	return Config{
		RefreshRate: 200 * time.Millisecond,
	}
}

// Renderer redraws the status line on a fixed cadence
type Renderer struct {
	config Config
	src    Source
	meta   Resolver
	out    io.Writer
	width  func() int
	now    func() time.Time
	logger zerolog.Logger

	last string
}

// New creates a Renderer writing to out. width reports the terminal width.
func New(cfg Config, src Source, meta Resolver, out io.Writer, width func() int, logger zerolog.Logger) *Renderer {
	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = DefaultConfig().RefreshRate
	}
	return &Renderer{
		config: cfg,
		src:    src,
		meta:   meta,
		out:    out,
		width:  width,
		now:    time.Now,
		logger: logger.With().Str("component", "render").Logger(),
	}
}

// Run draws immediately and then on every tick until ctx is cancelled,
// finishing with one last frame.
func (r *Renderer) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.config.RefreshRate)
	defer ticker.Stop()

	r.draw()

	for {
		select {
		case <-ctx.Done():
			r.draw()
			return nil
		case <-ticker.C:
			r.draw()
		}
	}
}

// draw writes the current frame unless it matches the previous one
func (r *Renderer) draw() {
	snap := r.src.Snapshot()

	// one column short of the edge so the cursor never wraps
	width := r.width() - 1
	if width < 1 {
		width = 1
	}

	line := FormatLine(Frame{
		Snapshot: snap,
		Info:     r.meta.Resolve(snap.Track.Path),
		Width:    width,
		Simple:   r.config.Simple,
		Now:      r.now(),
	})
	if line == r.last {
		return
	}

	if _, err := io.WriteString(r.out, "\r"+line); err != nil {
		r.logger.Debug().Err(err).Msg("Failed to draw status line")
		return
	}
	r.last = line
}
