package log

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, LevelInfo)

	l.Debug("hidden")
	l.Info("shown")
	l.Warn("shown too")
	require.Equal(t, 2, logs.Len())
	require.False(t, l.Enabled(LevelDebug))

	l.SetLevel(LevelSilent)
	l.Error("dropped")
	require.Equal(t, 2, logs.Len())
	require.Equal(t, LevelSilent, l.GetLevel())
}

func TestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, LevelDebug).With(String("component", "test"))

	l.Info("measured",
		Float64("percent", 0.5),
		Int("rings", 2),
		Bool("has_los", true),
		Duration("elapsed", time.Millisecond),
		Point("origin", 10.5, 3),
		Error(errors.New("boom")),
		Error(nil),
	)
	entry := logs.All()[0]
	fields := entry.ContextMap()
	require.Equal(t, "test", fields["component"])
	require.Equal(t, 0.5, fields["percent"])
	require.Equal(t, "(10.5,3)", fields["origin"])
	require.Equal(t, "boom", fields["error"])
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewWithCore(core, LevelDebug)

	l.WithContext(ContextWithRequestID(context.Background(), "req-7")).Info("served")
	l.WithContext(context.Background()).Info("anonymous")

	require.Equal(t, "req-7", logs.All()[0].ContextMap()["request_id"])
	require.NotContains(t, logs.All()[1].ContextMap(), "request_id")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, "": LevelInfo, "WARN": LevelWarn, "off": LevelSilent} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
		if in != "" && in != "off" && in != "WARN" {
			require.Equal(t, in, got.String())
		}
	}
	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	l := Nop()
	require.False(t, l.Enabled(LevelError))
	l.Error("ignored")
	require.NotNil(t, Provide())
}
