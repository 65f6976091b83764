package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/strrl/pulsectl/internal/app/console"
)

const credentialsFileName = "credentials.json"

// Credentials is the dashboard login persisted by "pulsectl auth login".
// The file lives at ~/.pulsectl/credentials.json.
type Credentials struct {
	// ServerURL is the base URL of the dashboard.
	ServerURL string `json:"serverURL"`
	// Token is the operator's API token.
	Token string `json:"token,omitempty"`
	// SavedAt records when the login was stored.
	SavedAt time.Time `json:"saved_at"`
}

// credentialsPath returns ~/.pulsectl/credentials.json.
func credentialsPath() (string, error) {
	dir, err := console.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("get credentials path: %w", err)
	}
	return filepath.Join(dir, credentialsFileName), nil
}

// LoadCredentials reads the stored login.
func LoadCredentials() (*Credentials, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	return loadCredentialsFrom(path)
}

func loadCredentialsFrom(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &creds, nil
}

// saveCredentialsTo persists creds, creating the parent directory with 0700
// and the file with 0600.
func saveCredentialsTo(path string, creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ApplyTo fills the server URL and token of cfg that are not already set.
// The stored token is only used against the server it was issued for.
func (c *Credentials) ApplyTo(cfg *console.Config) {
	if cfg.Server.URL == "" {
		cfg.Server.URL = c.ServerURL
	}
	if cfg.Server.Token != "" {
		return
	}
	if normalizeURL(cfg.Server.URL) != normalizeURL(c.ServerURL) {
		return
	}
	cfg.Server.Token = c.Token
}
