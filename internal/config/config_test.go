package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: tetrecs-test
nats:
  url: nats://nats:4222
  reconnect_wait: 5s
game:
  cols: 8
  rows: 6
  evict_timeout: 30m
loop:
  tick_interval: 50ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tetrecs-test", cfg.App.Name)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, 5*time.Second, cfg.NATS.ReconnectWait)
	assert.Equal(t, 8, cfg.Game.Cols)
	assert.Equal(t, 6, cfg.Game.Rows)
	assert.Equal(t, 30*time.Minute, cfg.Game.EvictTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.TickInterval)

	// 未配置的字段保持默认
	assert.Equal(t, 3, cfg.Game.Lives)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 60, cfg.Loop.SlotCount)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
redis:
  host: redis.local
`)
	t.Setenv("TETRECS_REDIS_HOST", "10.0.0.9")
	t.Setenv("TETRECS_GAME_LIVES", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.9", cfg.Redis.Host)
	assert.Equal(t, 5, cfg.Game.Lives)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tetrecs", cfg.App.Name)
	assert.Equal(t, 5, cfg.Game.Cols)
	assert.Equal(t, ":8081", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORS.AllowedOrigins)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
