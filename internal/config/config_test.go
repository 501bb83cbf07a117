package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "catalog.json", cfg.Catalog.File)
	assert.Equal(t, ":8787", cfg.Relay.Listen)
	assert.Equal(t, "google/gemini-2.5-flash", cfg.Extract.Model)
	assert.False(t, cfg.Database.UseDB)
}

func TestSaveToAndLoadFromRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Catalog.File = "/data/catalog.json"
	cfg.Relay.Endpoint = "https://relay.example.com/fetch-image"
	cfg.Analytics.Enabled = true
	require.NoError(t, SaveTo(cfg, path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/catalog.json", loaded.Catalog.File)
	assert.Equal(t, "https://relay.example.com/fetch-image", loaded.Relay.Endpoint)
	assert.True(t, loaded.Analytics.Enabled)
}

func TestLoadFromFillsMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := "catalog:\n  file: only-this.json\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "only-this.json", cfg.Catalog.File)
	assert.Equal(t, ":8787", cfg.Relay.Listen)
	assert.Equal(t, "./output", cfg.Output.Dir)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 9000, cfg.Analytics.ClickHouse.Port)
}

func TestLoadFromRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err)
}
