package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// BadgerLogger adapts the global logger to badger's Logger interface.
// Badger is chatty at info level, so its info and debug output is demoted
// to debug.
type BadgerLogger struct {
	l zerolog.Logger
}

// NewBadgerLogger returns a BadgerLogger tagged with component=badger.
func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{l: With().Str("component", "badger").Logger()}
}

func (b *BadgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error().Msgf(trim(format), args...)
}

func (b *BadgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn().Msgf(trim(format), args...)
}

func (b *BadgerLogger) Infof(format string, args ...interface{}) {
	b.l.Debug().Msgf(trim(format), args...)
}

func (b *BadgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug().Msgf(trim(format), args...)
}

// badger terminates its format strings with a newline
func trim(format string) string {
	return strings.TrimRight(format, "\n")
}
