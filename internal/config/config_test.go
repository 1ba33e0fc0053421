package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickfx/internal/domain/model"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.QuoteAPI.Timeout)
	assert.Equal(t, "https://adsynth-ofx-quotewidget-prod.herokuapp.com/api/1", cfg.QuoteAPI.URL)
	assert.Equal(t, 8*time.Hour, cfg.Cache.StaleAfter)
	assert.Equal(t, DriverSQLite, cfg.Cache.Driver)
	assert.Equal(t, 500*time.Millisecond, cfg.Refresh.PollInterval)
	assert.Equal(t, ModeDetached, cfg.Refresh.Mode)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Environment(t *testing.T) {
	t.Setenv("QUICKFX_SERVER_PORT", "9090")
	t.Setenv("QUICKFX_CACHE_DRIVER", "redis")
	t.Setenv("QUICKFX_CACHE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("QUICKFX_REFRESH_MODE", "inprocess")
	t.Setenv("QUICKFX_REFRESH_WARM_PAIRS", "USD_JPY,eur/usd")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, DriverRedis, cfg.Cache.Driver)
	assert.Equal(t, ModeInProcess, cfg.Refresh.Mode)

	pairs, err := cfg.Refresh.Pairs()
	require.NoError(t, err)
	assert.Equal(t, []model.CurrencyPair{
		{Base: "USD", Term: "JPY"},
		{Base: "EUR", Term: "USD"},
	}, pairs)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QUICKFX_CACHE_STALE_AFTER=2h\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("QUICKFX_CACHE_STALE_AFTER") })

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"), path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Cache.StaleAfter)
}

func TestLoadConfig_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "Unknown driver", env: map[string]string{"QUICKFX_CACHE_DRIVER": "mongo"}},
		{name: "Redis without url", env: map[string]string{"QUICKFX_CACHE_DRIVER": "redis"}},
		{name: "Port out of range", env: map[string]string{"QUICKFX_SERVER_PORT": "70000"}},
		{name: "Unknown mode", env: map[string]string{"QUICKFX_REFRESH_MODE": "cron"}},
		{name: "Bad duration", env: map[string]string{"QUICKFX_CACHE_STALE_AFTER": "soon"}},
		{name: "Bad warm pair", env: map[string]string{"QUICKFX_REFRESH_WARM_PAIRS": "USDJPY"}},
		{name: "Bad warm code", env: map[string]string{"QUICKFX_REFRESH_WARM_PAIRS": "US_JPY"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestCacheConfig_SQLitePath(t *testing.T) {
	path, err := CacheConfig{Path: "/tmp/q.db"}.SQLitePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/q.db", path)
}
