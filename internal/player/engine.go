// Package player implements the playback engine: a single owner of the
// playlist cursor, the open audio sink and the transport state.
//
// Every state change goes through one mailbox. User commands and the
// sink's "finished" signal are both messages, applied one at a time in
// arrival order while holding the engine's lock, so readers calling
// Snapshot never observe a half-applied transition.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jfmyers9/ttyplay/internal/audio"
	"github.com/jfmyers9/ttyplay/internal/playlist"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// ErrNoPlayableTracks is returned by Run when every track failed to open
var ErrNoPlayableTracks = errors.New("no playable tracks")

const (
	// DefaultVolume is used when no volume option is given
	DefaultVolume = 70

	mailboxSize = 64

	// EventBufferSize fits every event a full mailbox can produce: each
	// Next both releases a sink and opens one
	EventBufferSize = 4 * mailboxSize
)

type messageKind int

const (
	msgCommand messageKind = iota
	msgFinished
)

type message struct {
	kind messageKind
	cmd  Command
	gen  uint64 // sink generation for msgFinished
}

// Engine owns playback state. Create with New, drive with Run, feed with
// Submit, observe with Snapshot, and release with Close.
type Engine struct {
	opener        audio.Opener
	events        chan<- Event
	prefetch      func(playlist.Track)
	stopOnExhaust bool
	logger        zerolog.Logger
	now           func() time.Time

	mailbox   chan message
	done      chan struct{}
	runOnce   sync.Once
	closeOnce sync.Once

	mu       sync.RWMutex
	model    *playlist.Model
	sink     audio.Sink
	gen      uint64 // bumped for every opened sink
	status   Status
	volume   int
	muted    bool
	note     string
	noteAt   time.Time
	elapsed  time.Duration // shown while no sink is open
	duration time.Duration
	clock    clock
	failed   map[int]bool // indices that failed since the last good open
	closed   bool
}

// Option configures an Engine
type Option func(*Engine)

// WithVolume sets the initial volume, clamped to 0-100
func WithVolume(volume int) Option {
	return func(e *Engine) {
		e.volume = lo.Clamp(volume, 0, 100)
	}
}

// WithEvents delivers track lifecycle events to ch without blocking
func WithEvents(ch chan<- Event) Option {
	return func(e *Engine) {
		e.events = ch
	}
}

// WithPrefetch calls fn in its own goroutine with the track that would play
// after each one that opens, so slow lookups finish before it is needed
func WithPrefetch(fn func(playlist.Track)) Option {
	return func(e *Engine) {
		e.prefetch = fn
	}
}

// WithStopOnExhaust makes Run return once a non-looping playlist ends
func WithStopOnExhaust(stop bool) Option {
	return func(e *Engine) {
		e.stopOnExhaust = stop
	}
}

// withClock replaces the time source
func withClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates a stopped Engine positioned on the model's current track
func New(model *playlist.Model, opener audio.Opener, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		opener:  opener,
		logger:  logger.With().Str("component", "player").Logger(),
		now:     time.Now,
		mailbox: make(chan message, mailboxSize),
		done:    make(chan struct{}),
		model:   model,
		status:  Stopped,
		volume:  DefaultVolume,
		failed:  make(map[int]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit queues a command. It blocks only while the mailbox is full and
// returns false once the engine has stopped running.
func (e *Engine) Submit(cmd Command) bool {
	return e.post(message{kind: msgCommand, cmd: cmd})
}

func (e *Engine) post(msg message) bool {
	select {
	case <-e.done:
		return false
	default:
	}

	select {
	case e.mailbox <- msg:
		return true
	case <-e.done:
		return false
	}
}

// Done is closed when Run returns
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run applies queued messages until Quit, context cancellation, or a fatal
// playback error. It must be called at most once.
func (e *Engine) Run(ctx context.Context) (err error) {
	ran := false
	e.runOnce.Do(func() { ran = true })
	if !ran {
		return errors.New("engine already running")
	}
	defer close(e.done)

	e.logger.Debug().Int("tracks", e.model.Len()).Msg("Engine started")

	for {
		select {
		case <-ctx.Done():
			e.logger.Debug().Msg("Engine cancelled")
			return nil
		case msg := <-e.mailbox:
			stop, err := e.apply(msg)
			if err != nil {
				return err
			}
			if stop {
				return nil
			}
		}
	}
}

// Snapshot returns a consistent copy of the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := Snapshot{
		Status:   e.status,
		Volume:   e.volume,
		Muted:    e.muted,
		Index:    e.model.Index(),
		Total:    e.model.Len(),
		Track:    e.model.Current(),
		Elapsed:  e.elapsed,
		Duration: e.duration,
		Mode:     e.model.Mode(),
		Loop:     e.model.Loop(),
		Note:     e.note,
		NoteAt:   e.noteAt,
	}
	if e.sink != nil {
		snap.Elapsed = e.sink.Position()
		snap.Duration = e.sink.Duration()
	}

	return snap
}

// Close stops the open sink. It is safe to call more than once and from
// any goroutine, including while Run is still applying a message.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.closed = true
		if e.sink != nil {
			e.releaseSink(TrackStopped)
		}
		e.status = Stopped
		e.logger.Debug().Msg("Engine closed")
	})
}

// apply performs one transition under the write lock. stop reports that
// Run should return.
func (e *Engine) apply(msg message) (stop bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return true, nil
	}

	if msg.kind == msgFinished {
		return e.trackFinished(msg.gen)
	}

	e.logger.Debug().
		Str("command", msg.cmd.String()).
		Str("status", e.status.String()).
		Msg("Applying command")

	switch msg.cmd {
	case Play:
		return false, e.play()
	case Pause:
		e.pause()
	case Next:
		return false, e.skip(true)
	case Prev:
		return false, e.skip(false)
	case VolumeUp:
		e.setVolume(e.volume + VolumeStep)
	case VolumeDown:
		e.setVolume(e.volume - VolumeStep)
	case ToggleMute:
		e.muted = !e.muted
		e.applyVolume()
	case CycleMode:
		e.model.SetMode(e.model.Mode().Cycle())
		e.setNote("order: " + e.model.Mode().String())
	case ToggleLoop:
		e.model.SetLoop(!e.model.Loop())
		e.setNote(fmt.Sprintf("loop: %s", onOff(e.model.Loop())))
	case Quit:
		if e.sink != nil {
			e.releaseSink(TrackStopped)
		}
		e.status = Stopped
		e.logger.Info().Msg("Quit requested")
		return true, nil
	}

	return false, nil
}

func (e *Engine) play() error {
	switch {
	case e.status == Playing:
		return nil
	case e.sink != nil:
		e.sink.Resume()
		e.clock.resume(e.now())
		e.status = Playing
		return nil
	default:
		return e.openCurrent(true)
	}
}

func (e *Engine) pause() {
	if e.status != Playing || e.sink == nil {
		return
	}
	e.sink.Pause()
	e.clock.pause(e.now())
	e.status = Paused
}

// skip handles Next and Prev, which act in every status
func (e *Engine) skip(forward bool) error {
	if e.sink != nil {
		e.releaseSink(TrackSkipped)
	}

	res := e.model.Advance(forward)
	if res.Kind == playlist.Exhausted {
		e.status = Stopped
		e.logger.Debug().Bool("forward", forward).Msg("No more tracks in that direction")
		return nil
	}

	return e.openCurrent(forward)
}

// trackFinished advances after the sink played to the end. Signals from
// sinks that were already replaced carry an old generation and are dropped.
func (e *Engine) trackFinished(gen uint64) (bool, error) {
	if gen != e.gen || e.sink == nil {
		e.logger.Debug().Uint64("gen", gen).Uint64("current", e.gen).Msg("Ignoring stale finish signal")
		return false, nil
	}

	length := e.sink.Duration()
	e.releaseSink(TrackFinished)

	res := e.model.Advance(true)
	if res.Kind == playlist.Exhausted {
		// keep the last frame on screen
		e.elapsed = length
		e.duration = length
		e.status = Stopped
		e.logger.Info().Msg("Playlist finished")
		return e.stopOnExhaust, nil
	}

	return false, e.openCurrent(true)
}

// openCurrent opens the track under the cursor. Unreadable tracks are
// skipped in the direction of travel until one opens, the playlist is
// exhausted, or every track has failed.
func (e *Engine) openCurrent(forward bool) error {
	for {
		index := e.model.Index()
		track := e.model.Current()

		e.gen++
		gen := e.gen
		sink, err := e.opener.Open(track.Path, audio.OpenOptions{
			Volume: e.volume,
			Muted:  e.muted,
			OnFinished: func() {
				e.post(message{kind: msgFinished, gen: gen})
			},
		})
		if err == nil {
			e.sink = sink
			e.status = Playing
			e.elapsed, e.duration = 0, 0
			e.failed = make(map[int]bool)
			e.clock.start(e.now())
			e.emit(Event{Kind: TrackStarted, Index: index, Track: track, Duration: sink.Duration()})
			e.logger.Debug().Int("index", index).Str("path", track.Path).Msg("Track started")
			e.prefetchNext()
			return nil
		}

		if errors.Is(err, audio.ErrAudioUnavailable) {
			e.status = Stopped
			return err
		}

		e.failed[index] = true
		e.setNote(fmt.Sprintf("skipped %s: %s", track.Name(), failureReason(err)))
		e.emit(Event{Kind: TrackFailed, Index: index, Track: track, Err: err})
		e.logger.Warn().Err(err).Str("path", track.Path).Msg("Unreadable track, skipping")

		if len(e.failed) >= e.model.Len() {
			e.status = Stopped
			return ErrNoPlayableTracks
		}

		if e.model.Advance(forward).Kind == playlist.Exhausted {
			e.status = Stopped
			e.elapsed, e.duration = 0, 0
			return nil
		}
	}
}

// prefetchNext hands the upcoming track to the prefetch hook. Must be
// called with the lock held.
func (e *Engine) prefetchNext() {
	if e.prefetch == nil {
		return
	}
	next, ok := e.model.Peek(true)
	if !ok {
		return
	}
	go e.prefetch(next)
}

// releaseSink stops the open sink and reports how the track ended.
// Must be called with the lock held and a non-nil sink.
func (e *Engine) releaseSink(kind EventKind) {
	position, length := e.sink.Position(), e.sink.Duration()
	e.sink.Stop()
	e.sink = nil

	e.elapsed, e.duration = position, length
	played := e.clock.stop(e.now())

	e.emit(Event{
		Kind:     kind,
		Index:    e.model.Index(),
		Track:    e.model.Current(),
		Played:   played,
		Duration: length,
	})
}

func (e *Engine) setVolume(volume int) {
	e.volume = lo.Clamp(volume, 0, 100)
	e.applyVolume()
}

func (e *Engine) applyVolume() {
	if e.sink != nil {
		e.sink.SetVolume(e.volume, e.muted)
	}
}

func (e *Engine) setNote(note string) {
	e.note = note
	e.noteAt = e.now()
}

func (e *Engine) emit(ev Event) {
	if e.events == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	select {
	case e.events <- ev:
	default:
		e.logger.Debug().Str("event", ev.Kind.String()).Msg("Event channel full, dropping event")
	}
}

// failureReason is the short form of an open error for the status note
func failureReason(err error) string {
	switch {
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return "unsupported format"
	case errors.Is(err, audio.ErrUnreadable):
		return "unreadable"
	default:
		return err.Error()
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
