package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{in: "debug", want: LogLevelDebug},
		{in: "info", want: LogLevelInfo},
		{in: "warn", want: LogLevelWarn},
		{in: "error", want: LogLevelError},
		{in: "bogus", want: LogLevelInfo},
		{in: "", want: LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.Info("agent registered", "agent", "finance")

	out := buf.String()
	assert.Contains(t, out, `"msg":"agent registered"`)
	assert.Contains(t, out, `"agent":"finance"`)
}

func TestNewLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "text", Output: &buf})

	logger.Info("agent registered", "agent", "finance")

	out := buf.String()
	assert.Contains(t, out, "msg=\"agent registered\"")
	assert.Contains(t, out, "agent=finance")
}

func TestNewLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelError, Format: "text", Output: &buf})

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("dropped")
	logger.Error("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}
