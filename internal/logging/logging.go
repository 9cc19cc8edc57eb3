// Package logging sets up structured status events. Events carry a level and
// a message; whether they are colored is decided by the writer that renders
// them, never by the code that emits them.
package logging

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Format selects how events are written.
type Format string

const (
	// FormatConsole renders human-readable status lines.
	FormatConsole Format = "console"
	// FormatJSON writes one JSON event per line, for a parent process to render.
	FormatJSON Format = "json"
)

// Event field names shared by emitters and the console renderer.
const (
	TargetField  = "target"
	SuccessField = "success"
)

func init() {
	zerolog.ErrorMarshalFunc = func(err error) interface{} {
		return eris.ToString(err, os.Getenv("PACK_DEBUG") != "")
	}
}

// New creates a logger writing to w in the given format.
func New(w io.Writer, format Format, debug bool) zerolog.Logger {
	var logger zerolog.Logger
	if format == FormatJSON {
		logger = zerolog.New(w)
	} else {
		logger = zerolog.New(NewConsoleWriter(w))
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return logger.Level(level)
}

// Nop returns a logger that drops everything.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// Success starts an info event rendered with the SUCCESS tag.
func Success(l *zerolog.Logger) *zerolog.Event {
	return l.Info().Bool(SuccessField, true)
}
