package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "microdb", cfg.AppName)
	assert.Equal(t, "./data", cfg.Storage.Dir)
	assert.Equal(t, 64, cfg.Buffer.Capacity)
	assert.Equal(t, 128, cfg.Catalog.CacheSize)

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "microdb.yaml")
	yaml := `
app_name: shop
storage:
  dir: /var/lib/shop
buffer:
  capacity: 8
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.AppName)
	assert.Equal(t, "/var/lib/shop", cfg.Storage.Dir)
	assert.Equal(t, 8, cfg.Buffer.Capacity)
	assert.Equal(t, 128, cfg.Catalog.CacheSize) // default kept

	lvl, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MICRODB_STORAGE_DIR", "/tmp/env-dir")
	t.Setenv("MICRODB_BUFFER_CAPACITY", "3")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-dir", cfg.Storage.Dir)
	assert.Equal(t, 3, cfg.Buffer.Capacity)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	t.Setenv("MICRODB_LOG_LEVEL", "loud")
	_, err = LoadConfig("")
	require.ErrorContains(t, err, "log.level")
}
