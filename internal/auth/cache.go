package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Credential is a cached access credential. Sandbox credentials are not
// interchangeable with production ones, so the mode is stored alongside.
type Credential struct {
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`
	Sandbox      bool   `json:"sandbox"`
	SavedAt      int64  `json:"saved_at"`
}

// SaveCredential writes a credential to the cache file. Parent directories
// are created with 0700; the file is written with 0600.
func SaveCredential(path string, cred *Credential) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	if cred.SavedAt == 0 {
		cred.SavedAt = time.Now().Unix()
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LoadCredential reads a credential from the cache file. Returns an error
// if the file doesn't exist or contains invalid JSON.
func LoadCredential(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}

	return &cred, nil
}

// ClearCredential removes the cache file. Returns nil if it doesn't exist.
func ClearCredential(path string) error {
	err := os.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// CredentialCachePath returns the path to the credential cache file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/etr.
func CredentialCachePath() string {
	var configDir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		configDir = filepath.Join(xdg, "etr")
	} else {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".config", "etr")
	}
	return filepath.Join(configDir, ".credential_cache")
}
