package log

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Logger = zerolog.Logger

// New builds the process logger. Pretty output goes through the console
// writer; otherwise JSON on stderr.
func New(level string, pretty bool) Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	var l zerolog.Logger
	if pretty {
		l = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		l = log.Logger
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return l
}

// Nop returns a disabled logger for tests and optional dependencies.
func Nop() Logger {
	return zerolog.Nop()
}
