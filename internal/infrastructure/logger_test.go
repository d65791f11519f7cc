package infrastructure

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"mixed case", "DEBUG", slog.LevelDebug},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.input))
		})
	}
}

func TestInitializeLogger_Console(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logger, err := InitializeLogger(config.LoggingConfig{
		Level:  "info",
		Output: "console",
	})
	require.NoError(t, err)
	require.NotNil(t, logger)

	// Subsequent calls return the same logger.
	again, err := InitializeLogger(config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	assert.Same(t, logger, again)
}

func TestInitializeLogger_File(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	logPath := filepath.Join(t.TempDir(), "nested", "app.log")
	logger, err := InitializeLogger(config.LoggingConfig{
		Level:    "info",
		Output:   "file",
		FilePath: logPath,
	})
	require.NoError(t, err)

	logger.Info("file sink works", slog.String("key", "value"))
	require.NoError(t, CloseLogFile())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file sink works")
	assert.Contains(t, string(data), `"key":"value"`)
}

func TestTraceIDPropagation(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	ctx = WithTraceID(ctx, "trace-123")
	assert.Equal(t, "trace-123", GetTraceID(ctx))

	// EnsureTraceID preserves an existing ID.
	assert.Equal(t, "trace-123", GetTraceID(EnsureTraceID(ctx)))

	// And generates one when missing.
	generated := GetTraceID(EnsureTraceID(context.Background()))
	assert.NotEmpty(t, generated)
	assert.Len(t, generated, 36)
}

func TestGenerateTraceID_Unique(t *testing.T) {
	a := GenerateTraceID()
	b := GenerateTraceID()
	assert.NotEqual(t, a, b)
}

func TestLoggerWithContext(t *testing.T) {
	ResetLoggerForTesting()
	defer ResetLoggerForTesting()

	ctx := WithTraceID(context.Background(), "trace-xyz")
	logger := LoggerWithContext(ctx)
	require.NotNil(t, logger)

	// Without a trace ID the global logger is returned as is.
	assert.NotNil(t, LoggerWithContext(context.Background()))
}

func TestOCRUsageCounter(t *testing.T) {
	counter := NewOCRUsageCounter(nil)
	assert.Zero(t, counter.Total())

	for i := 0; i < 5; i++ {
		counter.Inc()
	}
	assert.Equal(t, int64(5), counter.Total())

	// Failures are a separate series and do not count against the quota.
	counter.IncError()
	assert.Equal(t, int64(5), counter.Total())
}
