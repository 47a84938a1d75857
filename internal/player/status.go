package player

import (
	"time"

	"github.com/jfmyers9/ttyplay/internal/playlist"
)

// Status is the transport state of the engine
type Status int

const (
	Stopped Status = iota // nothing playing
	Playing               // sink open and producing output
	Paused                // sink open, output suspended
)

// String returns a human-readable representation of the Status
func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of the engine state, taken under the
// engine's lock so it never mixes fields from two transitions.
type Snapshot struct {
	Status   Status
	Volume   int
	Muted    bool
	Index    int // index into the track list
	Total    int
	Track    playlist.Track
	Elapsed  time.Duration
	Duration time.Duration // 0 when unknown
	Mode     playlist.Mode
	Loop     bool
	Note     string    // last transient message, e.g. a skipped file
	NoteAt   time.Time // when Note was set
}
