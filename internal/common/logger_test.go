package common

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetupLogger_RejectsUnknownFormat(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	require.NoError(t, SetupLogger(slog.LevelInfo, "json"))
	require.NoError(t, SetupLogger(slog.LevelInfo, "console"))
	require.ErrorIs(t, SetupLogger(slog.LevelInfo, "xml"), ErrInvalidConfig)
}

func TestLoggerFrom(t *testing.T) {
	assert.Equal(t, slog.Default(), LoggerFrom(context.Background()))

	logger := slog.Default().With("component", "test")
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, LoggerFrom(ctx))
}
