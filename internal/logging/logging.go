// Package logging builds the zerolog logger used for diagnostics: lines the
// listing parser dropped, informational stderr, errors absorbed silently.
// Diagnostics never reach the user as notifications.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// EnvLevel overrides the default log level.
const EnvLevel = "MPFS_LOG_LEVEL"

// New returns a console logger writing to w at the named level ("debug",
// "info", "warn", "error", "disabled"). An empty level falls back to
// MPFS_LOG_LEVEL and then to "warn".
func New(w io.Writer, level string) (zerolog.Logger, error) {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	if level == "" {
		level = "warn"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    true,
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
