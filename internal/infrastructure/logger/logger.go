package logger

import (
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger and returns it. It uses the
// human-readable colorized console writer when format is "console" or
// when stdout is a terminal, and emits JSON lines otherwise.
func Setup(level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var l zerolog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = zerolog.DebugLevel
	case "warn":
		l = zerolog.WarnLevel
	case "error":
		l = zerolog.ErrorLevel
	default:
		l = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(l)

	var output = os.Stdout
	var logger zerolog.Logger
	if strings.ToLower(format) == "console" || isatty.IsTerminal(output.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(output).With().Timestamp().Logger()
	}

	log.Logger = logger
	return logger
}

// Logger returns a default info-level logger (JSON lines unless stdout is
// a terminal), used where a caller
// hasn't gone through Setup (e.g. package-level init in tests).
func Logger() zerolog.Logger {
	return Setup("info", "json")
}
