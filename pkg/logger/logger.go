// Package logger constructs the zerolog loggers used across the storefront.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger tagged with the owning component. Output is JSON on
// stderr; set debug for development verbosity.
func New(component string, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
