package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jfmyers9/ttyplay/internal/config"
	"github.com/rs/zerolog"
)

// setupLogger creates a logger with the specified configuration. An empty
// logFile logs to the data directory, since stderr belongs to the status
// line while playing; "-" forces stderr. The returned func closes the file.
func setupLogger(logFile, logLevel string) (zerolog.Logger, func()) {
	// Parse log level
	level := zerolog.InfoLevel
	switch logLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	if logFile == "" {
		if dataDir, err := config.GetDataDir(); err == nil {
			logFile = filepath.Join(dataDir, "ttyplay.log")
		} else {
			logFile = "-"
		}
	}

	// Set up output
	var output io.Writer = os.Stderr
	closer := func() {}
	if logFile != "-" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		} else {
			output = f
			closer = func() { _ = f.Close() }
		}
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Use pretty console output if logging to stderr
	if output == os.Stderr {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger, closer
}
