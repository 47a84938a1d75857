//go:build (linux && cgo) || windows || darwin

package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/rs/zerolog"
)

// Device plays tracks through the system speaker. The speaker is
// initialized on the first Open at a fixed rate; tracks at other rates
// are resampled.
type Device struct {
	mu          sync.Mutex
	sampleRate  beep.SampleRate
	initialized bool
	initSpeaker func(beep.SampleRate, int) error
	logger      zerolog.Logger
}

// NewDevice creates a Device. Nothing touches the sound card until Open.
func NewDevice(logger zerolog.Logger) *Device {
	return &Device{
		sampleRate:  beep.SampleRate(44100),
		initSpeaker: speaker.Init,
		logger:      logger.With().Str("component", "audio").Logger(),
	}
}

func (d *Device) init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	// no output device means no track can play, not that this one is bad
	if err := d.initSpeaker(d.sampleRate, d.sampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("%w: failed to initialize speaker: %w", ErrAudioUnavailable, err)
	}
	d.initialized = true
	d.logger.Debug().Int("sample_rate", int(d.sampleRate)).Msg("Speaker initialized")

	return nil
}

// Open decodes path and starts it on the speaker
func (d *Device) Open(path string, opts OpenOptions) (Sink, error) {
	streamer, format, err := decode(path)
	if err != nil {
		return nil, err
	}

	if err := d.init(); err != nil {
		_ = streamer.Close()
		return nil, err
	}

	var out beep.Streamer = streamer
	if format.SampleRate != d.sampleRate {
		out = beep.Resample(4, format.SampleRate, d.sampleRate, streamer)
	}

	s := &sink{
		streamer: streamer,
		format:   format,
	}
	s.ctrl = &beep.Ctrl{Streamer: out}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2}
	s.volume.Volume, s.volume.Silent = levelFor(opts.Volume, opts.Muted)

	onFinished := opts.OnFinished
	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		if s.stopped.Load() || onFinished == nil {
			return
		}
		// the callback runs under the speaker lock
		go onFinished()
	})))

	d.logger.Debug().
		Str("path", path).
		Int("sample_rate", int(format.SampleRate)).
		Dur("duration", s.Duration()).
		Msg("Track opened")

	return s, nil
}

// Close drops anything still queued on the speaker
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		speaker.Clear()
	}
	return nil
}

var _ Opener = (*Device)(nil)

type sink struct {
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	stopped  atomic.Bool
}

func (s *sink) Pause() {
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *sink) Resume() {
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
}

func (s *sink) Stop() {
	if s.stopped.Swap(true) {
		return
	}

	// a nil streamer drains the Ctrl, which lets the Seq reach the callback
	speaker.Lock()
	s.ctrl.Streamer = nil
	speaker.Unlock()

	_ = s.streamer.Close()
}

func (s *sink) SetVolume(volume int, muted bool) {
	speaker.Lock()
	s.volume.Volume, s.volume.Silent = levelFor(volume, muted)
	speaker.Unlock()
}

func (s *sink) Position() time.Duration {
	if s.stopped.Load() {
		return 0
	}

	speaker.Lock()
	defer speaker.Unlock()
	return s.format.SampleRate.D(s.streamer.Position())
}

func (s *sink) Duration() time.Duration {
	n := s.streamer.Len()
	if n <= 0 {
		return 0
	}
	return s.format.SampleRate.D(n)
}

func levelFor(volume int, muted bool) (float64, bool) {
	level, silent := gain(volume)
	return level, silent || muted
}
