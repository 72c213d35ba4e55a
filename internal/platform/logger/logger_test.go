package logger_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danniel-isiah-libor/talos-io/internal/config"
	"github.com/danniel-isiah-libor/talos-io/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		enabled  slog.Level
		disabled slog.Level
	}{
		{name: "debug level", level: "debug", enabled: slog.LevelDebug, disabled: slog.Level(-8)},
		{name: "info level", level: "info", enabled: slog.LevelInfo, disabled: slog.LevelDebug},
		{name: "warn level", level: "warn", enabled: slog.LevelWarn, disabled: slog.LevelInfo},
		{name: "error level", level: "error", enabled: slog.LevelError, disabled: slog.LevelWarn},
		{name: "invalid level falls back to info", level: "loud", enabled: slog.LevelInfo, disabled: slog.LevelDebug},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := logger.Setup(config.ServerConfig{Port: 8080, LogLevel: tc.level})
			require.NoError(t, err)
			require.NotNil(t, log)

			ctx := context.Background()
			assert.True(t, log.Enabled(ctx, tc.enabled))
			assert.False(t, log.Enabled(ctx, tc.disabled))
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	custom := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := logger.WithLogger(context.Background(), custom)

	assert.Same(t, custom, logger.FromContext(ctx))
	assert.Same(t, custom, logger.FromContextOrDefault(ctx, nil))
}

func TestFromContextFallsBack(t *testing.T) {
	ctx := context.Background()

	assert.Same(t, slog.Default(), logger.FromContext(ctx))

	def := slog.New(slog.NewTextHandler(os.Stderr, nil))
	assert.Same(t, def, logger.FromContextOrDefault(ctx, def))
}

func TestWithLoggerNil(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, logger.WithLogger(ctx, nil))
}
