package cmd

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/jfmyers9/ttyplay/internal/metadata"
	"github.com/jfmyers9/ttyplay/internal/playlist"
	"github.com/jfmyers9/ttyplay/internal/render"
	"github.com/jfmyers9/ttyplay/internal/source"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <file|directory|playlist|glob>",
	Short: "Print the tracks a source resolves to",
	Long: `Resolve a source the same way playback does and print one line per track,
in the order they would play.

The output format can be customized in ~/.config/ttyplay/config.yaml
(list_format) using a Go template. Available fields: .Index, .Path, .Name,
.Ext, .Title, .Artist, .Album

Skipped playlist entries are reported on stderr.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("format", "f", "", "Output format template (overrides config)")
	listCmd.Flags().IntP("width", "w", 0, "Fixed output width (0=disabled)")
	listCmd.Flags().BoolVarP(&playRandom, "random", "r", false, "List in random order")
	listCmd.Flags().Uint64("seed", 0, "Seed for --random (0 picks one)")
}

// listEntry is the data passed to the list template
type listEntry struct {
	Index  int
	Path   string
	Name   string
	Ext    string
	Title  string
	Artist string
	Album  string
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.ListFormat = format
	}

	res, err := source.NewResolver(cfg.Extensions).Resolve(args[0])
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "skipped %s\n", w)
	}

	mode := playlist.Sequential
	var opts []playlist.Option
	if cfg.Random {
		mode = playlist.Random
		if seed, _ := cmd.Flags().GetUint64("seed"); seed != 0 {
			opts = append(opts, playlist.WithSeed(seed))
		}
	}

	model, err := playlist.Build(playlist.FromPaths(res.Paths), mode, false, opts...)
	if err != nil {
		return fmt.Errorf("no playable tracks found in %s", args[0])
	}

	width, _ := cmd.Flags().GetInt("width")
	meta := metadata.NewCache(metadata.TagReader{}, zerolog.Nop())

	for n := 1; ; n++ {
		track := model.Current()
		info := meta.Resolve(track.Path)

		line, err := formatEntry(listEntry{
			Index:  n,
			Path:   track.Path,
			Name:   track.Name(),
			Ext:    track.Ext(),
			Title:  info.Title,
			Artist: info.Artist,
			Album:  info.Album,
		}, cfg.ListFormat)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Println(render.PadToWidth(line, width))

		if model.Advance(true).Kind == playlist.Exhausted {
			return nil
		}
	}
}

// formatEntry applies the template to one track
func formatEntry(entry listEntry, templateStr string) (string, error) {
	tmpl, err := template.New("output").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("invalid template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, entry); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return buf.String(), nil
}
