package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/jfmyers9/ttyplay/internal/metadata"
	"github.com/jfmyers9/ttyplay/internal/player"
	"github.com/mattn/go-runewidth"
)

const (
	// noteTTL is how long a transient note replaces the title
	noteTTL = 3 * time.Second

	// below this many columns the artist is dropped
	minTitleWithArtist = 15

	minBar = 10
	maxBar = 30
)

// Frame is everything one status line is drawn from
type Frame struct {
	Snapshot player.Snapshot
	Info     metadata.Info
	Width    int
	Simple   bool
	Now      time.Time
}

// FormatLine renders a frame as a single line of exactly Width columns
func FormatLine(f Frame) string {
	if f.Simple {
		return formatSimple(f)
	}
	return formatFull(f)
}

func statusIcon(s player.Status) string {
	switch s {
	case player.Playing:
		return "▶"
	case player.Paused:
		return "⏸"
	default:
		return "■"
	}
}

// formatSimple shows only the play state and progress
func formatSimple(f Frame) string {
	snap := f.Snapshot
	line := statusIcon(snap.Status) + " " + formatProgress(snap.Elapsed, snap.Duration)
	if snap.Duration > 0 {
		pct := int(100 * snap.Elapsed / snap.Duration)
		line += fmt.Sprintf(" %d%%", min(pct, 100))
	}
	return PadToWidth(line, f.Width)
}

// formatFull lays out:
//
//	icon [i/n] [mode|loop] [EXT] title - artist bar elapsed/total vol%
//
// The title takes whatever the fixed parts leave over.
func formatFull(f Frame) string {
	snap := f.Snapshot

	order := snap.Mode.String()
	if snap.Loop {
		order += "|loop"
	}
	prefix := fmt.Sprintf("%s [%d/%d] [%s]", statusIcon(snap.Status), snap.Index+1, snap.Total, order)
	if ext := snap.Track.Ext(); ext != "" {
		prefix += " [" + strings.ToUpper(ext) + "]"
	}

	volume := fmt.Sprintf("%d%%", snap.Volume)
	if snap.Muted {
		volume = "muted"
	}
	suffix := formatProgress(snap.Elapsed, snap.Duration) + " " + volume

	avail := f.Width - runewidth.StringWidth(prefix) - runewidth.StringWidth(suffix) - 2
	if avail <= 0 {
		return PadToWidth(prefix+" "+suffix, f.Width)
	}

	bar := ""
	if avail >= minTitleWithArtist+minBar+1 {
		width := min(max(avail/3, minBar), maxBar)
		bar = progressBar(snap.Elapsed, snap.Duration, width)
		avail -= width + 1
	}

	title := f.Info.Display()
	if avail < minTitleWithArtist {
		title = f.Info.Title
	}
	if snap.Note != "" && f.Now.Sub(snap.NoteAt) < noteTTL {
		title = snap.Note
	}

	parts := []string{prefix, PadToWidth(title, avail)}
	if bar != "" {
		parts = append(parts, bar)
	}
	parts = append(parts, suffix)

	return PadToWidth(strings.Join(parts, " "), f.Width)
}
