package marketauth

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("debug message", "kid", "k1")
	assert.Equal(t, 0, recorded.Len(), "Debug message should not be recorded at Info level")

	logger.Info("info message", "kid", "k1", "source", "cache")
	logger.Warn("warn message")
	logger.Error("error message", "code", "jwks_fetch_failed")

	entries := recorded.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "info message", entries[0].Message)
	assert.Equal(t, map[string]any{"kid": "k1", "source": "cache"}, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "jwks_fetch_failed", entries[2].ContextMap()["code"])
}

func TestLogrusLogger(t *testing.T) {
	var buf bytes.Buffer

	logrusLogger := logrus.New()
	logrusLogger.Out = &buf
	logrusLogger.Level = logrus.InfoLevel
	logrusLogger.Formatter = &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}

	logger := NewLogrusLogger(logrusLogger)

	logger.Debug("debug message")
	logger.Info("info message", "kid", "k1")
	logger.Warn("warn message", 42, "answer")
	logger.Error("error message", "dangling")

	output := buf.String()
	assert.NotContains(t, output, "debug message", "Debug messages should not be logged at Info level")
	assert.Contains(t, output, `msg="info message" kid=k1`)
	assert.Contains(t, output, `42=answer`)
	assert.Contains(t, output, `!BADKEY=dangling`)
	assert.Contains(t, output, "level=error")

	buf.Reset()
	logrusLogger.Level = logrus.DebugLevel
	logger.Debug("debug message")
	assert.Contains(t, buf.String(), "debug message", "Debug messages should be logged at Debug level")
}

func TestSlogSatisfiesLogger(t *testing.T) {
	var buf bytes.Buffer
	var logger Logger = slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("hello", "kid", "k1")
	assert.Contains(t, buf.String(), "kid=k1")
}
