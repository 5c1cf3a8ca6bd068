package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetAndHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := log
	Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })

	Info("fetched page", zap.Int("bytes", 42))
	Warn("strategy failed", zap.String("strategy", "strict"))
	Named("proxy").Error("upstream timeout")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "fetched page", entries[0].Message)
	assert.Equal(t, int64(42), entries[0].ContextMap()["bytes"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "proxy", entries[2].LoggerName)
}

func TestInitBuildsLogger(t *testing.T) {
	prev := log
	t.Cleanup(func() { Set(prev) })

	Init(false)
	require.NotNil(t, Get())
	Init(true)
	require.NotNil(t, Get())
}
