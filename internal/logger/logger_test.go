package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/core/domain"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestNew_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()

	log, cleanup, err := New(&Config{
		Level:      "info",
		LogDir:     dir,
		Theme:      "default",
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
		FileOutput: true,
	})
	require.NoError(t, err)

	styled := NewPlainStyledLogger(log)
	styled.WarnWithIdentity("Identity blocked", "1.2.3.4", "reason", "threshold")
	styled.InfoHealthStatus("System is", domain.HealthWarning)
	cleanup()

	data, err := os.ReadFile(filepath.Join(dir, DefaultLogOutputName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Identity blocked 1.2.3.4")
	assert.Contains(t, string(data), `"reason":"threshold"`)
	assert.Contains(t, string(data), "System is warning")
}

func TestPlainStyledLogger_WithKeepsFields(t *testing.T) {
	log, cleanup, err := New(&Config{Level: "error", Theme: "default"})
	require.NoError(t, err)
	defer cleanup()

	styled := NewPlainStyledLogger(log).With("component", "test")
	assert.NotNil(t, styled.GetUnderlying())
}
