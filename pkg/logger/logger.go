// Package logger builds the process-wide zerolog logger.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the pennywatch logger and installs it as the package-level
// default. level accepts zerolog's level names (debug, info, warn, error);
// anything unparsable falls back to info. Dev runs get the human console
// writer, production runs emit JSON lines.
func New(level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(os.Stdout)
	if pretty {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		})
	}

	logger = logger.With().Timestamp().Str("app", "pennywatch").Logger()
	log.Logger = logger
	return logger
}
