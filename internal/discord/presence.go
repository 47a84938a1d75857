// Package discord publishes the playing track as a "Listening to" rich
// presence over the desktop client's local IPC socket.
package discord

import (
	"context"
	"time"

	"github.com/jfmyers9/ttyplay/internal/metadata"
	"github.com/jfmyers9/ttyplay/internal/player"
	"github.com/rs/zerolog"
)

// DefaultInterval is how often the player state is checked
const DefaultInterval = 2 * time.Second

// a start time that moved less than this is playback jitter, not a seek
const driftTolerance = 2 * time.Second

// Source provides player state
type Source interface {
	Snapshot() player.Snapshot
}

// Resolver provides display metadata for a path
type Resolver interface {
	Resolve(path string) metadata.Info
}

type rpcClient interface {
	SetActivity(*Activity) error
	Close() error
}

// Presence mirrors player state into the rich presence
type Presence struct {
	appID    string
	interval time.Duration
	logger   zerolog.Logger
	client   rpcClient
	connect  func(string) (rpcClient, error)
	now      func() time.Time

	// what is currently shown; zero when nothing is
	shownPath  string
	shownStart time.Time
}

// New creates a Presence for the registered application appID. Nothing is
// dialed until a track is playing.
func New(appID string, logger zerolog.Logger) *Presence {
	return &Presence{
		appID:    appID,
		interval: DefaultInterval,
		logger:   logger.With().Str("component", "discord").Logger(),
		connect: func(appID string) (rpcClient, error) {
			return ipcConnect(appID)
		},
		now: time.Now,
	}
}

// Run polls src until ctx is cancelled, then clears the presence. If the
// client isn't running, the error is logged and the next poll retries.
func (p *Presence) Run(ctx context.Context, src Source, meta Resolver) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	defer p.close()

	for {
		p.update(src.Snapshot(), meta)

		select {
		case <-ctx.Done():
			p.clear()
			return
		case <-ticker.C:
		}
	}
}

func (p *Presence) update(snap player.Snapshot, meta Resolver) {
	if snap.Status != player.Playing {
		p.clear()
		return
	}

	start := p.now().Add(-snap.Elapsed)
	if snap.Track.Path == p.shownPath && absDuration(start.Sub(p.shownStart)) < driftTolerance {
		return
	}

	if err := p.ensureConnected(); err != nil {
		p.logger.Debug().Err(err).Msg("Discord not available")
		return
	}

	info := meta.Resolve(snap.Track.Path)
	activity := &Activity{
		Type:    activityListening,
		Details: info.Title,
	}
	if info.Artist != "" {
		activity.State = "by " + info.Artist
	}
	if info.Album != "" {
		activity.Assets = &Assets{LargeText: info.Album}
	}

	startUnix := start.Unix()
	activity.Timestamps = &Timestamps{Start: &startUnix}
	if snap.Duration > 0 {
		endUnix := start.Add(snap.Duration).Unix()
		activity.Timestamps.End = &endUnix
	}

	if err := p.client.SetActivity(activity); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to set activity")
		p.close()
		return
	}

	p.shownPath = snap.Track.Path
	p.shownStart = start
	p.logger.Debug().Str("title", info.Title).Msg("Presence updated")
}

func (p *Presence) ensureConnected() error {
	if p.client != nil {
		return nil
	}
	client, err := p.connect(p.appID)
	if err != nil {
		return err
	}
	p.logger.Info().Msg("Connected to Discord")
	p.client = client
	return nil
}

func (p *Presence) clear() {
	if p.shownPath == "" {
		return
	}
	p.shownPath = ""
	p.shownStart = time.Time{}

	if p.client == nil {
		return
	}
	if err := p.client.SetActivity(nil); err != nil {
		p.logger.Debug().Err(err).Msg("Failed to clear activity")
		p.close()
	}
}

func (p *Presence) close() {
	if p.client == nil {
		return
	}
	_ = p.client.Close()
	p.client = nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
