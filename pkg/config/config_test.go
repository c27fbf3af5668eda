package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.Database.Enabled())
	assert.False(t, cfg.Redis.Enabled)

	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 2, cfg.HTTP.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.HTTP.RetryDelay)

	assert.Equal(t, 50, cfg.Screen.TopN)
	assert.Equal(t, "/tmp/cn_screen_full.json", cfg.Screen.Output)
	assert.Equal(t, 80, cfg.Screen.MaxPages)
	assert.Equal(t, 6, cfg.Screen.Workers)
	assert.Equal(t, 200, cfg.Screen.EnrichTopK)
	assert.Equal(t, "/tmp/report_data_cn.json", cfg.Report.Output)
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgresql://cn:cn@localhost:5432/cnquant")
	t.Setenv("SCREEN_TOP_N", "30")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("REPORT_SYMBOLS", "600519, 000858,,600519,300750")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 30, cfg.Screen.TopN)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, []string{"600519", "000858", "300750"}, cfg.Report.Symbols)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad env", "ENV", "qa"},
		{"zero top n", "SCREEN_TOP_N", "0"},
		{"zero workers", "SCREEN_WORKERS", "0"},
		{"negative retries", "HTTP_MAX_RETRIES", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvAsDuration_Fallback(t *testing.T) {
	t.Setenv("HTTP_RETRY_DELAY", "soon")
	assert.Equal(t, 500*time.Millisecond, getEnvAsDuration("HTTP_RETRY_DELAY", "500ms"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screen.env")
	require.NoError(t, os.WriteFile(path, []byte("REPORT_NEWS_LIMIT=5\nSTREAM_POLL_INTERVAL=2s\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("REPORT_NEWS_LIMIT")
		os.Unsetenv("STREAM_POLL_INTERVAL")
	})

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Report.NewsLimit)
	assert.Equal(t, 2*time.Second, cfg.Stream.PollInterval)
	assert.Equal(t, "0 0 16 * * 1-5", cfg.Report.Cron)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
