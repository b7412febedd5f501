// Package logging sets up the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"rfm-insights/pkg/models"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init replaces log.Logger with a logger writing to stderr.
func Init(level, format string) error {
	l, err := New(os.Stderr, level, format)
	if err != nil {
		return err
	}
	log.Logger = l
	return nil
}

// New builds a logger. format is "console" or "json", level one of
// debug, info, warn, error.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	zerolog.TimeFieldFormat = time.RFC3339

	switch strings.ToLower(format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Nop(), &models.ConfigurationError{Key: "logging.format", Reason: fmt.Sprintf("unknown format %q (want console or json)", format)}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func parseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	}
	return zerolog.NoLevel, &models.ConfigurationError{Key: "logging.level", Reason: fmt.Sprintf("unknown level %q", level)}
}
