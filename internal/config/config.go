package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Initial volume, 1-100
	Volume int

	// Start in random order
	Random bool

	// Wrap around at the end of the playlist
	Loop bool

	// Show only the progress indicator
	Simple bool

	// Exit once a non-looping playlist has finished
	ExitOnEnd bool

	// How often the status line is redrawn
	RefreshRate time.Duration

	// Audio extensions picked up from directories and globs
	Extensions []string

	// Output format template for the list command
	// Default: "{{.Index}}. {{.Title}}{{if .Artist}} - {{.Artist}}{{end}}"
	ListFormat string

	// Log file path; empty means <data dir>/ttyplay.log, "-" means stderr
	LogFile string

	// Log level (debug, info, warn, error)
	LogLevel string

	History HistoryConfig

	Discord DiscordConfig
}

// HistoryConfig holds play history settings
type HistoryConfig struct {
	Enabled   bool
	Path      string        // empty means <data dir>/history.db
	Retention time.Duration // plays older than this are pruned on exit
}

// DiscordConfig holds rich presence settings
type DiscordConfig struct {
	Enabled bool
	AppID   string // application id registered in the developer portal
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.AddConfigPath(getConfigDir())
	v.AddConfigPath(".")

	v.SetDefault("volume", 70)
	v.SetDefault("random", false)
	v.SetDefault("loop", false)
	v.SetDefault("simple", false)
	v.SetDefault("exit_on_end", false)
	v.SetDefault("refresh_rate", 200*time.Millisecond)
	v.SetDefault("extensions", []string{"mp3", "flac", "ogg", "aac"})
	v.SetDefault("list_format", "{{.Index}}. {{.Title}}{{if .Artist}} - {{.Artist}}{{end}}")
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", "")
	v.SetDefault("history.retention", 30*24*time.Hour)
	v.SetDefault("discord.enabled", false)
	v.SetDefault("discord.app_id", "")

	// Read config file (optional - don't fail if missing)
	_ = v.ReadInConfig()

	// TTYPLAY_HISTORY_ENABLED maps to history.enabled
	v.SetEnvPrefix("TTYPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Volume:      v.GetInt("volume"),
		Random:      v.GetBool("random"),
		Loop:        v.GetBool("loop"),
		Simple:      v.GetBool("simple"),
		ExitOnEnd:   v.GetBool("exit_on_end"),
		RefreshRate: v.GetDuration("refresh_rate"),
		Extensions:  v.GetStringSlice("extensions"),
		ListFormat:  v.GetString("list_format"),
		LogFile:     v.GetString("log_file"),
		LogLevel:    v.GetString("log_level"),
		History: HistoryConfig{
			Enabled:   v.GetBool("history.enabled"),
			Path:      v.GetString("history.path"),
			Retention: v.GetDuration("history.retention"),
		},
		Discord: DiscordConfig{
			Enabled: v.GetBool("discord.enabled"),
			AppID:   v.GetString("discord.app_id"),
		},
	}

	return cfg, nil
}

// getConfigDir returns the configuration directory path
func getConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(homeDir, ".config", "ttyplay")
}

// GetConfigDir returns the configuration directory path (public helper)
func GetConfigDir() string {
	return getConfigDir()
}

// GetDataDir returns the directory for the log file and history database,
// creating it if needed
func GetDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "ttyplay")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	return dataDir, nil
}

// Save writes configuration to the config directory
func (c *Config) Save() error {
	v := viper.New()

	configDir := getConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	configFile := filepath.Join(configDir, "config.yaml")

	v.Set("volume", c.Volume)
	v.Set("random", c.Random)
	v.Set("loop", c.Loop)
	v.Set("simple", c.Simple)
	v.Set("exit_on_end", c.ExitOnEnd)
	v.Set("refresh_rate", c.RefreshRate.String())
	v.Set("extensions", c.Extensions)
	v.Set("list_format", c.ListFormat)
	v.Set("log_file", c.LogFile)
	v.Set("log_level", c.LogLevel)
	v.Set("history.enabled", c.History.Enabled)
	v.Set("history.path", c.History.Path)
	v.Set("history.retention", c.History.Retention.String())
	v.Set("discord.enabled", c.Discord.Enabled)
	v.Set("discord.app_id", c.Discord.AppID)

	return v.WriteConfigAs(configFile)
}
