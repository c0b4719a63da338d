package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNew_BuildsBothFormats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New("debug", format, "stderr")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	}
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"taskType": "generate-content"})

	log.WithError(errors.New("boom")).Error("job failed", map[string]interface{}{
		"jobKey": int64(42),
		"cause":  errors.New("upstream"),
	})

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "job failed", entries[0].Message)
	assert.Equal(t, "generate-content", fields["taskType"])
	assert.Equal(t, int64(42), fields["jobKey"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "upstream", fields["cause"])
}

func TestNoOpLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewNoOpLogger().With(nil).Info("ignored", nil)
	})
}
