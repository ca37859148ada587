// Package diag holds the structured logging and error types shared by the
// grammar engine, the MSG visitor, and both hash generators.
package diag

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger exposing exactly the
// levels this module needs. The zero value discards everything, so a host
// that never calls NewLogger gets silent operation by default.
type Logger struct {
	z zerolog.Logger
}

// NewLogger returns a Logger writing to w at the given minimum level. A nil
// w discards all output.
func NewLogger(w io.Writer, level zerolog.Level) Logger {
	if w == nil {
		w = io.Discard
	}
	return Logger{z: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Discard is the default, silent Logger.
var Discard = Logger{z: zerolog.New(io.Discard).Level(zerolog.Disabled)}

// Tracef satisfies peg.Logger so a Logger can drive grammar-engine tracing
// directly.
func (l Logger) Tracef(format string, args ...interface{}) {
	l.z.Trace().Msgf(format, args...)
}

// Debug logs one structured debug event with the given message and fields.
func (l Logger) Debug(msg string, fields map[string]interface{}) {
	ev := l.z.Debug()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// Warn logs one structured warning event.
func (l Logger) Warn(msg string, fields map[string]interface{}) {
	ev := l.z.Warn()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}
