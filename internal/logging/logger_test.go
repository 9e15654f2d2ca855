package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseLevel("loud")
	assert.Error(t, err)
}

func TestNewHonoursLevel(t *testing.T) {
	l, err := New(Config{Level: "warn"})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
	assert.NotNil(t, NewDefault())
}

func TestEncodingFollowsMode(t *testing.T) {
	assert.Equal(t, "console", encoding(true))
	assert.Equal(t, "json", encoding(false))
	assert.Equal(t, "message", encoderConfig(false).MessageKey)
}
