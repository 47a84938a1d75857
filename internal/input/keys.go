// Package input turns raw terminal bytes into player commands.
package input

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// Code classifies a key press
type Code int

const (
	Unknown Code = iota
	Rune         // printable character, see Key.Rune
	Up
	Down
	Left
	Right
	Enter
	Escape
	CtrlC
)

// String returns a human-readable representation of the Code
func (c Code) String() string {
	switch c {
	case Rune:
		return "rune"
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Enter:
		return "enter"
	case Escape:
		return "escape"
	case CtrlC:
		return "ctrl+c"
	default:
		return "unknown"
	}
}

// Key is one decoded key press
type Key struct {
	Code Code
	Rune rune
}

// String returns the rune for printable keys and the code name otherwise
func (k Key) String() string {
	if k.Code == Rune {
		return string(k.Rune)
	}
	return k.Code.String()
}

// KeyReader decodes keys from a terminal in raw mode. Arrow keys arrive as
// ESC [ A..D (or ESC O A..D in application cursor mode). An ESC with
// nothing else buffered behind it is a lone Escape press.
type KeyReader struct {
	r *bufio.Reader
}

// NewKeyReader wraps r
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{r: bufio.NewReader(r)}
}

// ReadKey blocks until a key is available
func (k *KeyReader) ReadKey() (Key, error) {
	b, err := k.r.ReadByte()
	if err != nil {
		return Key{}, err
	}

	switch b {
	case 0x03:
		return Key{Code: CtrlC}, nil
	case '\r', '\n':
		return Key{Code: Enter}, nil
	case 0x1b:
		return k.readEscape()
	}

	if b < utf8.RuneSelf {
		if b < 0x20 || b == 0x7f {
			return Key{Code: Unknown}, nil
		}
		return Key{Code: Rune, Rune: rune(b)}, nil
	}

	_ = k.r.UnreadByte()
	r, _, err := k.r.ReadRune()
	if err != nil {
		return Key{}, err
	}
	return Key{Code: Rune, Rune: r}, nil
}

func (k *KeyReader) readEscape() (Key, error) {
	if k.r.Buffered() == 0 {
		return Key{Code: Escape}, nil
	}

	intro, err := k.r.ReadByte()
	if err != nil {
		return Key{Code: Escape}, nil
	}
	if intro != '[' && intro != 'O' {
		_ = k.r.UnreadByte()
		return Key{Code: Escape}, nil
	}

	// parameter bytes 0x30-0x3f, then a final byte 0x40-0x7e
	for {
		b, err := k.r.ReadByte()
		if err != nil {
			return Key{Code: Unknown}, nil
		}
		if b >= 0x30 && b <= 0x3f {
			continue
		}

		switch b {
		case 'A':
			return Key{Code: Up}, nil
		case 'B':
			return Key{Code: Down}, nil
		case 'C':
			return Key{Code: Right}, nil
		case 'D':
			return Key{Code: Left}, nil
		default:
			return Key{Code: Unknown}, nil
		}
	}
}
