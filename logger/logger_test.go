// logger_test.go
package logger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level LogLevel) (*defaultLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &defaultLogger{logger: zap.New(core), logLevel: level}, logs
}

// TestDefaultLogger_SetLevel tests the SetLevel method of defaultLogger
func TestDefaultLogger_SetLevel(t *testing.T) {
	dLogger := &defaultLogger{logger: zap.NewNop()}

	dLogger.SetLevel(LogLevelWarn)
	assert.Equal(t, LogLevelWarn, dLogger.GetLogLevel())
}

func TestDefaultLogger_With(t *testing.T) {
	dLogger, logs := newObservedLogger(LogLevelInfo)

	child := dLogger.With(zap.String("host", "clearpass.example.com"))
	assert.IsType(t, &defaultLogger{}, child)

	child.Info("hello")
	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "clearpass.example.com", entries[0].ContextMap()["host"])
	}
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	dLogger, logs := newObservedLogger(LogLevelWarn)

	dLogger.Debug("debug message")
	dLogger.Info("info message")
	dLogger.Warn("warn message")
	err := dLogger.Error("error message")

	assert.EqualError(t, err, "error message")
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("warn message").Len())
	assert.Equal(t, 1, logs.FilterMessage("error message").Len())
}

func TestDefaultLogger_ErrorReturnsErrorWhenSilenced(t *testing.T) {
	dLogger, logs := newObservedLogger(LogLevelNone)

	err := dLogger.Error("still returned")
	assert.EqualError(t, err, "still returned")
	assert.Equal(t, 0, logs.Len())
}

func TestParseLogLevelFromString(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"LogLevelDebug", LogLevelDebug},
		{"LogLevelInfo", LogLevelInfo},
		{"LogLevelWarn", LogLevelWarn},
		{"LogLevelError", LogLevelError},
		{"LogLevelDPanic", LogLevelDPanic},
		{"LogLevelPanic", LogLevelPanic},
		{"LogLevelFatal", LogLevelFatal},
		{"LogLevelNone", LogLevelNone},
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"Warning", LogLevelWarn},
		{"loglevelerror", LogLevelError},
		{"off", LogLevelNone},
		{"verbose", LogLevelInfo},
		{"", LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("parse %s", tt.input), func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevelFromString(tt.input))
		})
	}
}

func TestLogRequestEndAndLogError(t *testing.T) {
	dLogger, logs := newObservedLogger(LogLevelDebug)

	dLogger.LogRequestEnd("request_end", "GET", "https://cp/api/endpoint", 200, 0)
	dLogger.LogError("request_error", "DELETE", "https://cp/api/endpoint/mac-address/aa", 404, errors.New("not found"))

	ended := logs.FilterMessage("HTTP request completed").All()
	if assert.Len(t, ended, 1) {
		assert.Equal(t, int64(200), ended[0].ContextMap()["status_code"])
	}
	failed := logs.FilterMessage("Error during HTTP request").All()
	if assert.Len(t, failed, 1) {
		assert.Equal(t, "not found", failed[0].ContextMap()["error_message"])
	}
}

func TestBuildLogger(t *testing.T) {
	l := BuildLogger(LogLevelError, LogOutputPretty, " ")
	assert.Equal(t, LogLevelError, l.GetLogLevel())

	l = BuildLogger(LogLevelInfo, LogOutputJSON, "")
	assert.Equal(t, LogLevelInfo, l.GetLogLevel())
}
