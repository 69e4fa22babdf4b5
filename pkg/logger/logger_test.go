package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	for _, production := range []bool{true, false} {
		l, err := New("debug", production)
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestZapLogger_KeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core)).With("component", "withdrawal")

	l.Info("withdrawal requested", "userId", "U1", "amount", 500.0)
	l.Warn("slow query", "ms", 1200)
	l.Error("failed", "error", "boom")
	l.Debug("details")

	require.Equal(t, 4, logs.Len())

	first := logs.All()[0]
	assert.Equal(t, "withdrawal requested", first.Message)
	fields := first.ContextMap()
	assert.Equal(t, "withdrawal", fields["component"])
	assert.Equal(t, "U1", fields["userId"])
	assert.Equal(t, 500.0, fields["amount"])

	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[2].Level)
}

func TestNop(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Info("ignored", "k", "v")
		_ = l.Sync()
	})
}
