package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jfmyers9/ttyplay/internal/history"
	"github.com/jfmyers9/ttyplay/internal/render"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently played tracks",
	Long: `Show plays recorded with --history (or history.enabled in the config file),
newest first.

A play is marked listened once it ran for half the track or four minutes,
whichever came first. Tracks shorter than 30 seconds never count.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntP("limit", "n", 20, "Number of plays to show (0=all)")
	historyCmd.Flags().IntP("width", "w", 0, "Truncate the title column so rows fit this width (0=disabled)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	plays, err := store.Recent(ctx, limit)
	if err != nil {
		return err
	}

	if len(plays) == 0 {
		fmt.Println("No plays recorded yet. Play with --history to start.")
		return nil
	}

	width, _ := cmd.Flags().GetInt("width")
	for _, p := range plays {
		fmt.Println(formatPlayRow(p, width))
	}

	total, err := store.Count(ctx, false)
	if err != nil {
		return err
	}
	listened, err := store.Count(ctx, true)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d plays, %d listened\n", total, listened)

	return nil
}

// formatPlayRow renders one play as fixed columns followed by the title.
// With width > 0 the title column is fitted so the row is exactly width
// columns.
func formatPlayRow(p history.Play, width int) string {
	mark := " "
	if p.Listened {
		mark = "✓"
	}

	length := "--:--"
	if p.Duration > 0 {
		length = render.FormatDuration(p.Duration)
	}

	prefix := strings.Join([]string{
		p.StartedAt.Local().Format("2006-01-02 15:04"),
		fmt.Sprintf("%-8s", p.Outcome),
		render.FormatDuration(p.Played) + "/" + length,
		mark,
	}, "  ")

	title := p.Title
	if p.Artist != "" {
		title += " - " + p.Artist
	}
	if p.Outcome == history.OutcomeFailed && p.Error != "" {
		title += " (" + p.Error + ")"
	}

	if width <= 0 {
		return prefix + "  " + title
	}

	avail := width - runewidth.StringWidth(prefix) - 2
	if avail < 1 {
		return render.PadToWidth(prefix, width)
	}
	return prefix + "  " + render.PadToWidth(title, avail)
}
