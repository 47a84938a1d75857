package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jfmyers9/ttyplay/internal/playlist"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle   = lipgloss.NewStyle().Bold(true)
)

var keyHelp = [][2]string{
	{"space", "play"},
	{"p", "pause"},
	{"←/→", "prev/next"},
	{"↑/↓", "volume"},
	{"m", "mute"},
	{"o", "order"},
	{"l", "loop"},
	{"q", "quit"},
}

// Banner is printed once above the status line in full mode
func Banner(source string, tracks int, mode playlist.Mode, loop bool) string {
	noun := "tracks"
	if tracks == 1 {
		noun = "track"
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("ttyplay"),
		" ",
		mutedStyle.Render(fmt.Sprintf("%s · %d %s · %s · loop %s", source, tracks, noun, mode, onOff(loop))),
	)

	help := make([]string, len(keyHelp))
	for i, kv := range keyHelp {
		help[i] = keyStyle.Render(kv[0]) + " " + mutedStyle.Render(kv[1])
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(help, "  "))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
