// Package audio opens tracks on the output device. The player only sees the
// Opener and Sink interfaces, so decoding and output stay replaceable.
package audio

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrUnsupportedFormat is returned for extensions no decoder handles
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrUnreadable is returned when a file cannot be opened or decoded
	ErrUnreadable = errors.New("unreadable audio file")

	// ErrAudioUnavailable is returned when there is no output device at all,
	// either because the build has no backend or the speaker failed to start
	ErrAudioUnavailable = errors.New("audio output not available")
)

// Sink is one open track on the output device
type Sink interface {
	Pause()
	Resume()
	// Stop halts output and releases the decoder. OnFinished is not
	// called for a stopped sink. Stop is idempotent.
	Stop()
	SetVolume(volume int, muted bool)
	Position() time.Duration
	// Duration returns 0 when the length is unknown
	Duration() time.Duration
}

// OpenOptions configures a newly opened sink
type OpenOptions struct {
	Volume int
	Muted  bool
	// OnFinished runs on its own goroutine when the track plays to the end
	OnFinished func()
}

// Opener opens a sink for a file path
type Opener interface {
	Open(path string, opts OpenOptions) (Sink, error)
}

// gain maps a 0-100 volume to a base-2 exponent for effects.Volume.
// 100 is unity gain, 50 is half amplitude, 0 is silent.
func gain(volume int) (level float64, silent bool) {
	if volume <= 0 {
		return 0, true
	}
	if volume > 100 {
		volume = 100
	}
	return math.Log2(float64(volume) / 100), false
}
