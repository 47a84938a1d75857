package playlist

import (
	"fmt"
	"strings"
)

// Mode selects how the cursor walks the track list
type Mode int

const (
	Sequential Mode = iota // list order
	Reverse                // list order, walked toward index 0
	Random                 // a fresh permutation per pass
)

// String returns the short label used on the status line
func (m Mode) String() string {
	switch m {
	case Sequential:
		return "seq"
	case Reverse:
		return "rev"
	case Random:
		return "rnd"
	default:
		return "unknown"
	}
}

// Cycle returns the mode that follows m: seq -> rev -> rnd -> seq
func (m Mode) Cycle() Mode {
	switch m {
	case Sequential:
		return Reverse
	case Reverse:
		return Random
	default:
		return Sequential
	}
}

// ParseMode accepts the labels produced by String as well as the long names
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "seq", "sequential":
		return Sequential, nil
	case "rev", "reverse":
		return Reverse, nil
	case "rnd", "random", "shuffle":
		return Random, nil
	default:
		return Sequential, fmt.Errorf("unknown playback mode %q", s)
	}
}
