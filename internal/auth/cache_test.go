package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".credential_cache")

	saved := &Credential{
		AccessToken:  "tok",
		AccessSecret: "sec",
		Sandbox:      true,
	}
	require.NoError(t, SaveCredential(path, saved))

	loaded, err := LoadCredential(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", loaded.AccessToken)
	assert.Equal(t, "sec", loaded.AccessSecret)
	assert.True(t, loaded.Sandbox)
	assert.NotZero(t, loaded.SavedAt)
}

func TestSaveCredential_FileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".credential_cache")
	require.NoError(t, SaveCredential(path, &Credential{AccessToken: "tok"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadCredential_Missing(t *testing.T) {
	_, err := LoadCredential(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestLoadCredential_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".credential_cache")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := LoadCredential(path)
	assert.Error(t, err)
}

func TestClearCredential(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".credential_cache")
	require.NoError(t, SaveCredential(path, &Credential{AccessToken: "tok"}))

	require.NoError(t, ClearCredential(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing again is a no-op.
	assert.NoError(t, ClearCredential(path))
}
