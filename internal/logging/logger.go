// Package logging sets up the structured logger shared by all
// components.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. Level strings follow zerolog names; an
// unknown level falls back to info. Set console to true for
// human-readable output during local development.
func New(level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stdout)
	if console {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	return out.Level(lvl).With().
		Timestamp().
		Str("app", "ward-assistant").
		Logger()
}
