package framework

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/extensions/v3/ext_debug_utils"
	"golang.org/x/exp/slog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		level, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, level, in)
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig("Texture")
	cfg.LogLevel = "warn"

	logger, err := NewLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "sample=Texture")
}

func TestSeverityLevel(t *testing.T) {
	assert.Equal(t, slog.LevelError, severityLevel(ext_debug_utils.SeverityError))
	assert.Equal(t, slog.LevelError, severityLevel(ext_debug_utils.SeverityError|ext_debug_utils.SeverityWarning))
	assert.Equal(t, slog.LevelWarn, severityLevel(ext_debug_utils.SeverityWarning))
	assert.Equal(t, slog.LevelInfo, severityLevel(ext_debug_utils.SeverityInfo))
	assert.Equal(t, slog.LevelDebug, severityLevel(ext_debug_utils.SeverityVerbose))
}
