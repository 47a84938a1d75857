package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jfmyers9/ttyplay/internal/metadata"
	"github.com/jfmyers9/ttyplay/internal/player"
	"github.com/rs/zerolog"
)

// Writer stores plays
type Writer interface {
	Record(ctx context.Context, p Play) (int64, error)
}

// Resolver provides display metadata for a path
type Resolver interface {
	Resolve(path string) metadata.Info
}

const writeTimeout = 2 * time.Second

// Recorder turns player events into history rows. It runs off the
// playback path; a slow database only delays the log.
type Recorder struct {
	store   Writer
	meta    Resolver
	session string
	logger  zerolog.Logger

	startedAt map[int]time.Time
}

// NewRecorder creates a Recorder with a fresh session id
func NewRecorder(store Writer, meta Resolver, logger zerolog.Logger) *Recorder {
	session := uuid.NewString()
	return &Recorder{
		store:     store,
		meta:      meta,
		session:   session,
		logger:    logger.With().Str("component", "history").Str("session", session).Logger(),
		startedAt: make(map[int]time.Time),
	}
}

// Session returns the id attached to every row from this recorder
func (r *Recorder) Session() string {
	return r.session
}

// Run records events until ctx is cancelled, then drains whatever is
// already buffered
func (r *Recorder) Run(ctx context.Context, events <-chan player.Event) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case ev := <-events:
					r.handle(ev)
				default:
					return
				}
			}
		case ev := <-events:
			r.handle(ev)
		}
	}
}

func (r *Recorder) handle(ev player.Event) {
	if ev.Kind == player.TrackStarted {
		r.startedAt[ev.Index] = ev.At
		return
	}

	started, ok := r.startedAt[ev.Index]
	if !ok {
		started = ev.At.Add(-ev.Played)
	}
	delete(r.startedAt, ev.Index)

	info := r.meta.Resolve(ev.Track.Path)
	play := Play{
		Session:   r.session,
		Path:      ev.Track.Path,
		Title:     info.Title,
		Artist:    info.Artist,
		Album:     info.Album,
		StartedAt: started,
		Played:    ev.Played,
		Duration:  ev.Duration,
		Listened:  Listened(ev.Duration, ev.Played),
	}

	switch ev.Kind {
	case player.TrackFinished:
		play.Outcome = OutcomeFinished
	case player.TrackSkipped:
		play.Outcome = OutcomeSkipped
	case player.TrackStopped:
		play.Outcome = OutcomeStopped
	case player.TrackFailed:
		play.Outcome = OutcomeFailed
		play.StartedAt = ev.At
		if ev.Err != nil {
			play.Error = ev.Err.Error()
		}
	default:
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if _, err := r.store.Record(ctx, play); err != nil {
		r.logger.Warn().Err(err).Str("path", play.Path).Msg("Failed to record play")
		return
	}

	r.logger.Debug().
		Str("title", play.Title).
		Str("outcome", string(play.Outcome)).
		Dur("played", play.Played).
		Bool("listened", play.Listened).
		Msg("Recorded play")
}
