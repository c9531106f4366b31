package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewModes(t *testing.T) {
	prod, err := New("production")
	require.NoError(t, err)
	require.False(t, prod.SugaredLogger.Desugar().Core().Enabled(zapcore.DebugLevel))

	dev, err := New("")
	require.NoError(t, err)
	require.True(t, dev.SugaredLogger.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestWithAndNop(t *testing.T) {
	log := Nop().With("component", "test")
	log.Info("discarded", "key", "value")
	log.Sync()
}
