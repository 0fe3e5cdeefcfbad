// Package logger holds the process-wide zerolog logger for the order desk
// client, plus the hashing helpers that keep user identifiers out of log
// output.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the shared logger. Packages log through it directly instead of
// threading a logger value around.
var Log zerolog.Logger

func init() {
	if os.Getenv("LOG_FORMAT") == "json" {
		SetJSON()
	} else {
		SetConsole()
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// SetLevel applies a named global log level. Unknown names fall back to info.
func SetLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetConsole switches to human-readable console output for local runs.
func SetConsole() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	Log = zerolog.New(output).
		With().
		Timestamp().
		Caller().
		Logger()
}

// SetJSON switches to line-delimited JSON output.
func SetJSON() {
	Log = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Logger()
}
