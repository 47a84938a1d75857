package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "..."

// PadToWidth pads or truncates text to exactly width display columns.
// Long text is cut and ends in "...". Wide runes (CJK, emoji) count as
// two columns. A width <= 0 returns text unchanged.
func PadToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}

	current := runewidth.StringWidth(text)
	switch {
	case current == width:
		return text
	case current < width:
		return text + strings.Repeat(" ", width-current)
	}

	if width <= len(ellipsis) {
		return runewidth.Truncate(ellipsis, width, "")
	}

	// a wide rune at the cut point can leave one column short
	result := runewidth.Truncate(text, width-len(ellipsis), "") + ellipsis
	if w := runewidth.StringWidth(result); w < width {
		result += strings.Repeat(" ", width-w)
	}
	return result
}

// FormatDuration formats d as MM:SS, or H:MM:SS from one hour up
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// formatProgress returns "elapsed/total", with --:-- for an unknown total
func formatProgress(elapsed, total time.Duration) string {
	if total <= 0 {
		return FormatDuration(elapsed) + "/--:--"
	}
	if elapsed > total {
		elapsed = total
	}
	return FormatDuration(elapsed) + "/" + FormatDuration(total)
}

// progressBar draws a width-column bar. An unknown duration draws an
// empty bar.
func progressBar(position, duration time.Duration, width int) string {
	if width <= 0 {
		return ""
	}
	if duration <= 0 {
		return strings.Repeat("░", width)
	}

	progress := float64(position) / float64(duration)
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}

	filled := int(progress * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
