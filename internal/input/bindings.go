package input

import (
	"unicode"

	"github.com/jfmyers9/ttyplay/internal/player"
)

// Bindings maps keys to player commands. Letter bindings are
// case-insensitive.
type Bindings struct {
	codes map[Code]player.Command
	runes map[rune]player.Command
}

// DefaultBindings returns the standard key map:
//
//	p          pause
//	space      resume
//	left/right previous/next track
//	up/down    volume up/down
//	m          mute
//	o          cycle play order
//	l          toggle loop
//	q, ctrl+c  quit
func DefaultBindings() Bindings {
	return Bindings{
		codes: map[Code]player.Command{
			Left:  player.Prev,
			Right: player.Next,
			Up:    player.VolumeUp,
			Down:  player.VolumeDown,
			CtrlC: player.Quit,
		},
		runes: map[rune]player.Command{
			'p': player.Pause,
			' ': player.Play,
			'm': player.ToggleMute,
			'o': player.CycleMode,
			'l': player.ToggleLoop,
			'q': player.Quit,
		},
	}
}

// Lookup returns the command bound to k
func (b Bindings) Lookup(k Key) (player.Command, bool) {
	if k.Code == Rune {
		cmd, ok := b.runes[unicode.ToLower(k.Rune)]
		return cmd, ok
	}
	cmd, ok := b.codes[k.Code]
	return cmd, ok
}
