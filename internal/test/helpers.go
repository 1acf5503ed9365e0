package test

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger returns a logger suitable for tests.
func Logger() *zerolog.Logger {
	l := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("app", "mercedesme-api").
		Logger()
	return &l
}
