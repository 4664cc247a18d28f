package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger. Dev mode writes human-readable console
// lines, otherwise one JSON object per line goes to stderr.
func Setup(level string, dev bool) {
	SetupWriter(os.Stderr, level, dev)
}

// SetupWriter is Setup with an explicit destination
func SetupWriter(w io.Writer, level string, dev bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(ParseLevel(level))

	out := w
	if dev {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// For returns a logger tagged with a component name
func For(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
