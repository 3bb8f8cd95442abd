package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etr/internal/api"
)

func TestLoad_MissingFileIsZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.NoError(t, err)
	assert.False(t, cfg.Sandbox)
	assert.Empty(t, cfg.AccountIDKey)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	saved := &Config{
		Sandbox:             true,
		AccountIDKey:        "abc123",
		PollIntervalSeconds: 15,
	}
	require.NoError(t, Save(path, saved))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestSave_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(path, &Config{}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\tnot yaml"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_BaseURL(t *testing.T) {
	assert.Equal(t, api.ProductionBaseURL, (&Config{}).BaseURL())
	assert.Equal(t, api.SandboxBaseURL, (&Config{Sandbox: true}).BaseURL())
	assert.Equal(t, "http://override", (&Config{Sandbox: true, APIBaseURL: "http://override"}).BaseURL())
}

func TestConfig_PollInterval(t *testing.T) {
	assert.Equal(t, 30*time.Second, (&Config{}).PollInterval())
	assert.Equal(t, 30*time.Second, (&Config{PollIntervalSeconds: -1}).PollInterval())
	assert.Equal(t, 10*time.Second, (&Config{PollIntervalSeconds: 10}).PollInterval())
}

func TestPath_UsesXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	assert.Equal(t, "/tmp/xdg/etr/config.yaml", Path())
}
