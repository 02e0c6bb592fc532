// Package userconfig keeps per-user CLI state outside the project tree,
// under the OS user config directory (~/.config/trainlog on Linux).
package userconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const fileName = "config.json"

// Prefs is the persisted per-user state. Project-level settings (servers,
// auth strategy) live in trainlog.json instead.
type Prefs struct {
	SelectedServerURL string `json:"selected_server_url"`
}

func path() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "trainlog", fileName), nil
}

// Load reads the user prefs; a missing file yields zero-value prefs.
func Load() (*Prefs, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return &Prefs{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config: %w", err)
	}

	var prefs Prefs
	if err := json.Unmarshal(data, &prefs); err != nil {
		return nil, fmt.Errorf("failed to parse user config: %w", err)
	}
	return &prefs, nil
}

// Save writes the prefs, creating the directory on first use.
func Save(prefs *Prefs) error {
	p, err := path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}
	if err := os.WriteFile(p, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config: %w", err)
	}
	return nil
}

// SetSelectedServer records which server subsequent commands should target.
func SetSelectedServer(serverURL string) error {
	prefs, err := Load()
	if err != nil {
		return err
	}
	prefs.SelectedServerURL = serverURL
	return Save(prefs)
}

// GetSelectedServer returns the recorded server URL, empty if none is set.
func GetSelectedServer() (string, error) {
	prefs, err := Load()
	if err != nil {
		return "", err
	}
	return prefs.SelectedServerURL, nil
}
