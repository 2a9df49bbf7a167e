package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	require.NoError(t, Init("debug", "console"))
	assert.True(t, L().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init("not-a-level", "json"))
	assert.False(t, L().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, L().Core().Enabled(zapcore.InfoLevel))
}

func TestPackageLevelHelpers(t *testing.T) {
	prev := L()
	t.Cleanup(func() { Set(prev) })

	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))

	Info("hello", zap.String("k", "v"))
	Warn("careful")
	With(zap.Int("n", 1)).Error("boom")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "hello", entries[0].Message)
	assert.Equal(t, "v", entries[0].ContextMap()["k"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(1), entries[2].ContextMap()["n"])
}
