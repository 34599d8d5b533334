package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useTempConfigHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	return home
}

func TestLoadMissingFile(t *testing.T) {
	useTempConfigHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKeys)
	assert.Equal(t, DefaultProvider, cfg.Provider())
}

func TestSaveAndReload(t *testing.T) {
	home := useTempConfigHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.SetAPIKey("google", "gk-123")
	cfg.DefaultProvider = "google"
	require.NoError(t, cfg.Save())

	info, err := os.Stat(filepath.Join(home, "imggen", "config.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "config file must be owner-only")

	reloaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gk-123", reloaded.APIKeyFor("google"))
	assert.Equal(t, "google", reloaded.Provider())
}

func TestLoadCorruptFileYieldsEmptyConfig(t *testing.T) {
	home := useTempConfigHome(t)
	dir := filepath.Join(home, "imggen")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{broken"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKeys)
}

func TestLegacyKeyMigration(t *testing.T) {
	home := useTempConfigHome(t)
	dir := filepath.Join(home, "imggen")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"api_key":"legacy-gk"}`), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy-gk", cfg.APIKeyFor("google"))
	assert.Equal(t, "google", cfg.Provider())
	assert.Empty(t, cfg.LegacyAPIKey)

	// The migration is written back in the new format.
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	var onDisk map[string]any
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.NotContains(t, onDisk, "api_key")
	assert.Contains(t, onDisk, "api_keys")
}

func TestEnvironmentOverridesStoredKey(t *testing.T) {
	useTempConfigHome(t)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.SetAPIKey("openai", "stored")

	assert.Equal(t, "stored", cfg.APIKeyFor("openai"))
	t.Setenv("OPENAI_API_KEY", "from-env")
	assert.Equal(t, "from-env", cfg.APIKeyFor("openai"))
}
