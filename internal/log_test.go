package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"ERROR": LogLevelError,
		"warn":  LogLevelWarn,
		"INFO":  LogLevelInfo,
		"debug": LogLevelDebug,
		"TRACE": LogLevelTrace,
		"":      LogLevelInfo,
		"LOUD":  LogLevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestLoggerLevels(t *testing.T) {
	l := NewLogger(LogLevelDebug)
	assert.Equal(t, LogLevelDebug, l.GetLevel())
	assert.Equal(t, LogLevelDebug, l.With("run", "abc").GetLevel())

	nop := NewNopLogger()
	assert.NotPanics(t, func() {
		nop.Error("e %d", 1)
		nop.Trace("t")
	})
}
