package player

import (
	"time"

	"github.com/jfmyers9/ttyplay/internal/playlist"
)

// EventKind identifies what happened to a track
type EventKind int

const (
	TrackStarted  EventKind = iota // sink opened
	TrackFinished                  // played to the end
	TrackSkipped                   // left early by Next, Prev or a mode change
	TrackFailed                    // could not be opened
	TrackStopped                   // interrupted by Quit
)

// String returns a human-readable representation of the EventKind
func (k EventKind) String() string {
	switch k {
	case TrackStarted:
		return "started"
	case TrackFinished:
		return "finished"
	case TrackSkipped:
		return "skipped"
	case TrackFailed:
		return "failed"
	case TrackStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event reports a track lifecycle change. Events are delivered best-effort;
// the engine never waits on a slow consumer.
type Event struct {
	Kind     EventKind
	Index    int
	Track    playlist.Track
	At       time.Time
	Played   time.Duration // listening time, excluding pauses
	Duration time.Duration // track length, 0 when unknown
	Err      error         // set for TrackFailed
}
