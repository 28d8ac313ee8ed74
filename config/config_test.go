package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := DefaultConfig()
	cfg.Game.StartingYear = 1575
	cfg.Database.Driver = "file"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1575, loaded.Game.StartingYear)
	assert.Equal(t, "file", loaded.Database.Driver)
	assert.Equal(t, 16, loaded.Game.StartingAge)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveConfig(DefaultConfig(), path))

	t.Setenv("CRONICAS_SERVER_PORT", "9090")
	t.Setenv("CRONICAS_DB_DRIVER", "postgres")
	t.Setenv("CRONICAS_DB_DSN", "postgres://localhost/cronicas")
	t.Setenv("CRONICAS_GAME_STARTING_GOLD", "25")
	t.Setenv("CRONICAS_WHATSAPP_ENABLED", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/cronicas", cfg.Database.DSN)
	assert.Equal(t, 25, cfg.Game.StartingGold)
	assert.True(t, cfg.WhatsApp.Enabled)
	// untouched fields keep the file values
	assert.Equal(t, "info", cfg.Server.LogLevel)
}

func TestLoadConfigRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
