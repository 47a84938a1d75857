package player

// Command is a transport operation submitted to the engine
type Command int

const (
	Play Command = iota // start or resume
	Pause
	Next
	Prev
	VolumeUp
	VolumeDown
	ToggleMute
	CycleMode
	ToggleLoop
	Quit
)

// VolumeStep is the change applied by VolumeUp and VolumeDown
const VolumeStep = 5

// String returns a human-readable representation of the Command
func (c Command) String() string {
	switch c {
	case Play:
		return "play"
	case Pause:
		return "pause"
	case Next:
		return "next"
	case Prev:
		return "prev"
	case VolumeUp:
		return "volume-up"
	case VolumeDown:
		return "volume-down"
	case ToggleMute:
		return "toggle-mute"
	case CycleMode:
		return "cycle-mode"
	case ToggleLoop:
		return "toggle-loop"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}
