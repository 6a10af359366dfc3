// Package logger configures the process-wide zerolog logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Init initializes a stderr logger so structured logs never mix with
// report output on stdout. The level argument wins over the LOG_LEVEL
// environment variable; pretty selects human-readable console output
// instead of JSON lines.
func Init(level string, pretty bool) zerolog.Logger {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	var log zerolog.Logger
	if pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(parseLogLevel(level)).
			With().
			Timestamp().
			Logger()
	} else {
		log = zerolog.New(os.Stderr).
			Level(parseLogLevel(level)).
			With().
			Timestamp().
			Logger()
	}
	return log
}

// InitFile initializes a logger writing JSON lines to the given file.
func InitFile(level string, logFile string) (zerolog.Logger, error) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}

	//nolint:gosec // G304: User-specified log file path is intentional
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	log := zerolog.New(file).
		Level(parseLogLevel(level)).
		With().
		Timestamp().
		Logger()
	return log, nil
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "trace":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}
