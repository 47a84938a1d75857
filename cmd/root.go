/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jfmyers9/ttyplay/internal/app"
	"github.com/jfmyers9/ttyplay/internal/audio"
	"github.com/jfmyers9/ttyplay/internal/config"
	"github.com/jfmyers9/ttyplay/internal/discord"
	"github.com/jfmyers9/ttyplay/internal/history"
	"github.com/jfmyers9/ttyplay/internal/metadata"
	"github.com/jfmyers9/ttyplay/internal/playlist"
	"github.com/jfmyers9/ttyplay/internal/render"
	"github.com/jfmyers9/ttyplay/internal/source"
	"github.com/jfmyers9/ttyplay/internal/terminal"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var (
	playRandom    bool
	playSimple    bool
	playLoop      bool
	playVolume    int
	playExitOnEnd bool
	playHistory   bool
	playDiscord   bool
	logFile       string
	logLevel      string
)

// rootCmd plays a source when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "ttyplay <file|directory|playlist|glob>",
	Short: "Play audio files from the terminal",
	Long: `ttyplay plays a file, a directory, a playlist or a glob of audio files
and shows a single status line while it plays.

Keys:
  space        play / resume
  p            pause
  left, right  previous / next track
  up, down     volume +5 / -5
  m            mute
  o            cycle order (sequential, reverse, random)
  l            toggle loop
  q, ctrl+c    quit

Directories are scanned without recursion. Playlists (.txt, .m3u, .m3u8)
hold one path per line; relative entries resolve against the playlist's
directory.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runPlay,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVarP(&playRandom, "random", "r", false, "Play in random order")
	rootCmd.Flags().BoolVarP(&playSimple, "simple", "s", false, "Show only the progress indicator")
	rootCmd.Flags().BoolVarP(&playLoop, "loop", "l", false, "Start over after the last track")
	rootCmd.Flags().IntVarP(&playVolume, "volume", "m", 0, "Initial volume, 1-100 (default from config, 70)")
	rootCmd.Flags().BoolVarP(&playExitOnEnd, "exit-on-end", "x", false, "Exit when the playlist finishes")
	rootCmd.Flags().BoolVar(&playHistory, "history", false, "Record plays to the history database")
	rootCmd.Flags().BoolVar(&playDiscord, "discord", false, "Show the playing track as Discord rich presence (needs discord.app_id)")

	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", `Log file path, "-" for stderr (default: ~/.local/share/ttyplay/ttyplay.log)`)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig reads the config file and environment, then applies any
// flags the user actually passed
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("random") {
		cfg.Random = playRandom
	}
	if flags.Changed("simple") {
		cfg.Simple = playSimple
	}
	if flags.Changed("loop") {
		cfg.Loop = playLoop
	}
	if flags.Changed("volume") {
		cfg.Volume = playVolume
	}
	if flags.Changed("exit-on-end") {
		cfg.ExitOnEnd = playExitOnEnd
	}
	if flags.Changed("history") {
		cfg.History.Enabled = playHistory
	}
	if flags.Changed("discord") {
		cfg.Discord.Enabled = playDiscord
	}
	if flags.Changed("log-file") {
		cfg.LogFile = logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if cfg.Volume < 1 || cfg.Volume > 100 {
		return nil, fmt.Errorf("volume must be between 1 and 100, got %d", cfg.Volume)
	}

	return cfg, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, closeLog := setupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()

	logger.Info().
		Str("version", version).
		Str("source", args[0]).
		Msg("Starting ttyplay")

	mode := playlist.Sequential
	if cfg.Random {
		mode = playlist.Random
	}

	deps := app.Deps{
		Opener: audio.NewDevice(logger),
		Meta:   metadata.NewCache(metadata.TagReader{}, logger),
	}

	if cfg.History.Enabled {
		store, err := openHistory(cfg)
		if err != nil {
			// playback does not depend on history
			logger.Warn().Err(err).Msg("History disabled")
			fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		} else {
			deps.History = store
		}
	}

	if cfg.Discord.Enabled {
		if cfg.Discord.AppID == "" {
			logger.Warn().Msg("Discord presence enabled without discord.app_id, skipping")
			fmt.Fprintln(os.Stderr, "warning: discord presence needs discord.app_id in the config file")
		} else {
			deps.Presence = discord.New(cfg.Discord.AppID, logger)
		}
	}

	a, err := app.New(app.Config{
		Source:           args[0],
		Mode:             mode,
		Loop:             cfg.Loop,
		Simple:           cfg.Simple,
		Volume:           cfg.Volume,
		ExitOnEnd:        cfg.ExitOnEnd,
		RefreshRate:      cfg.RefreshRate,
		HistoryRetention: cfg.History.Retention,
	}, source.NewResolver(cfg.Extensions), deps, logger)
	if err != nil {
		closeHistory(deps.History, logger)
		if errors.Is(err, playlist.ErrEmptyInput) {
			return fmt.Errorf("no playable tracks found in %s", args[0])
		}
		return err
	}

	if !cfg.Simple {
		fmt.Fprintln(os.Stderr, render.Banner(args[0], len(a.Tracks()), mode, cfg.Loop))
	}
	for _, w := range a.Warnings() {
		fmt.Fprintf(os.Stderr, "skipped %s\n", w)
	}

	term, err := terminal.Open(os.Stdin, os.Stdout)
	if err != nil {
		closeHistory(deps.History, logger)
		return fmt.Errorf("failed to prepare terminal: %w", err)
	}

	if err := a.Run(cmd.Context(), term); err != nil {
		logger.Error().Err(err).Msg("Playback failed")
		return err
	}

	logger.Info().Msg("ttyplay stopped")
	return nil
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	path := cfg.History.Path
	if path == "" {
		dataDir, err := config.GetDataDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get data directory: %w", err)
		}
		path = filepath.Join(dataDir, "history.db")
	}
	return history.Open(path)
}

func closeHistory(store app.HistoryStore, logger zerolog.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close history")
	}
}
