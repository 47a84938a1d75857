package playlist

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

var (
	// ErrEmptyInput is returned by Build when no playable tracks were resolved
	ErrEmptyInput = errors.New("no playable tracks")

	// ErrIndexOutOfRange is returned by JumpTo for an index outside the list
	ErrIndexOutOfRange = errors.New("track index out of range")
)

// Kind describes the outcome of an Advance call
type Kind int

const (
	Next      Kind = iota // cursor moved within the current pass
	Wrapped               // cursor crossed a pass boundary and wrapped
	Exhausted             // no further track; cursor unchanged
)

// String returns a human-readable representation of the Kind
func (k Kind) String() string {
	switch k {
	case Next:
		return "next"
	case Wrapped:
		return "wrapped"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Result is returned by Advance. Index is the new cursor, or the unchanged
// cursor when Kind is Exhausted.
type Result struct {
	Kind  Kind
	Index int
}

// Model is an ordered list of tracks with a cursor and a traversal policy.
//
// The track list never changes after Build. Traversal goes through order,
// which is the identity for Sequential and Reverse and a shuffled
// permutation for Random; the cursor is always order[pos].
//
// Model is not safe for concurrent use. The player engine owns it.
type Model struct {
	tracks []Track
	mode   Mode
	loop   bool
	order  []int
	pos    int
	rng    *rand.Rand
}

// Option configures a Model
type Option func(*Model)

// WithRand sets the random source used for Random mode permutations
func WithRand(r *rand.Rand) Option {
	return func(m *Model) {
		m.rng = r
	}
}

// WithSeed makes Random mode permutations reproducible
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Build creates a Model positioned on the first track of the traversal.
// In Random mode that is the first entry of a fresh permutation.
func Build(tracks []Track, mode Mode, loop bool, opts ...Option) (*Model, error) {
	if len(tracks) == 0 {
		return nil, ErrEmptyInput
	}

	m := &Model{
		tracks: append([]Track(nil), tracks...),
		mode:   mode,
		loop:   loop,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		now := uint64(time.Now().UnixNano())
		m.rng = rand.New(rand.NewPCG(now, now>>1))
	}

	m.order = m.buildOrder(-1)
	switch mode {
	case Reverse:
		// Reverse walks toward index 0, so the walk starts from the end
		m.pos = len(m.order) - 1
	default:
		m.pos = 0
	}

	return m, nil
}

// Len returns the number of tracks
func (m *Model) Len() int {
	return len(m.tracks)
}

// Tracks returns a copy of the track list in list order
func (m *Model) Tracks() []Track {
	return append([]Track(nil), m.tracks...)
}

// Mode returns the traversal mode
func (m *Model) Mode() Mode {
	return m.mode
}

// Loop reports whether the traversal wraps at the end of a pass
func (m *Model) Loop() bool {
	return m.loop
}

// Index returns the cursor as an index into the track list
func (m *Model) Index() int {
	return m.order[m.pos]
}

// Current returns the track under the cursor
func (m *Model) Current() Track {
	return m.tracks[m.order[m.pos]]
}

// Peek returns the track Advance(forward) would land on without moving the
// cursor. It reports false at an exhausted edge and at a Random pass
// boundary, where the next permutation does not exist yet.
func (m *Model) Peek(forward bool) (Track, bool) {
	step := m.step(forward)
	next := m.pos + step
	if next >= 0 && next < len(m.order) {
		return m.tracks[m.order[next]], true
	}
	if !m.loop || m.mode == Random {
		return Track{}, false
	}
	if step > 0 {
		return m.tracks[m.order[0]], true
	}
	return m.tracks[m.order[len(m.order)-1]], true
}

// Advance moves the cursor one step. forward=false steps back.
func (m *Model) Advance(forward bool) Result {
	step := m.step(forward)
	next := m.pos + step
	if next >= 0 && next < len(m.order) {
		m.pos = next
		return Result{Kind: Next, Index: m.Index()}
	}

	if !m.loop {
		return Result{Kind: Exhausted, Index: m.Index()}
	}

	if m.mode == Random {
		m.order = m.reshuffle(m.Index(), step > 0)
	}
	if step > 0 {
		m.pos = 0
	} else {
		m.pos = len(m.order) - 1
	}

	return Result{Kind: Wrapped, Index: m.Index()}
}

// step is the move through order for one Advance. Reverse walks order
// backwards.
func (m *Model) step(forward bool) int {
	step := 1
	if !forward {
		step = -1
	}
	if m.mode == Reverse {
		step = -step
	}
	return step
}

// JumpTo places the cursor on the given track-list index
func (m *Model) JumpTo(index int) error {
	if index < 0 || index >= len(m.tracks) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(m.tracks))
	}

	for pos, idx := range m.order {
		if idx == index {
			m.pos = pos
			return nil
		}
	}

	// order always holds every index
	return fmt.Errorf("%w: %d missing from traversal", ErrIndexOutOfRange, index)
}

// SetMode switches the traversal mode, keeping the current track selected.
// Switching into Random starts a new pass beginning at the current track.
func (m *Model) SetMode(mode Mode) {
	if mode == m.mode {
		return
	}

	current := m.Index()
	m.mode = mode
	m.order = m.buildOrder(current)
	_ = m.JumpTo(current)
}

// SetLoop toggles wrapping at pass boundaries
func (m *Model) SetLoop(loop bool) {
	m.loop = loop
}

// buildOrder returns the traversal order for the current mode. For Random,
// first (when >= 0) is moved to the front of the permutation.
func (m *Model) buildOrder(first int) []int {
	order := make([]int, len(m.tracks))
	for i := range order {
		order[i] = i
	}

	if m.mode != Random {
		return order
	}

	m.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	if first >= 0 {
		for i, idx := range order {
			if idx == first {
				order[0], order[i] = order[i], order[0]
				break
			}
		}
	}

	return order
}

// reshuffle generates the permutation for the next pass. The track that
// ended the previous pass is kept away from the edge the new pass starts
// from, so a pass boundary never plays the same track twice in a row.
func (m *Model) reshuffle(last int, forward bool) []int {
	order := m.buildOrder(-1)
	n := len(order)
	if n < 2 {
		return order
	}

	edge := 0
	if !forward {
		edge = n - 1
	}
	if order[edge] == last {
		other := m.rng.IntN(n-1) + 1
		if !forward {
			other = m.rng.IntN(n - 1)
		}
		order[edge], order[other] = order[other], order[edge]
	}

	return order
}
