package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Valid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	data := `{
  "servers": [
    {"url": "https://api.example.com", "alias": "production"},
    {"url": "http://localhost:8000", "alias": "local"}
  ],
  "auth_strategy": "cookie"
}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(cfg.Servers))
	}
	if cfg.Servers[0].Alias != "production" {
		t.Errorf("alias = %q, want %q", cfg.Servers[0].Alias, "production")
	}
	if cfg.Strategy() != StrategyCookie {
		t.Errorf("strategy = %q, want %q", cfg.Strategy(), StrategyCookie)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "malformed json",
			data: `{"servers": [`,
		},
		{
			name: "invalid server url",
			data: `{"servers": [{"url": "not a url", "alias": "x"}]}`,
		},
		{
			name: "unknown auth strategy",
			data: `{"servers": [], "auth_strategy": "basic"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, ConfigFileName)
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestStrategy_DefaultsToBearer(t *testing.T) {
	cfg := &Config{}
	if cfg.Strategy() != StrategyBearer {
		t.Errorf("strategy = %q, want %q", cfg.Strategy(), StrategyBearer)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	original := &Config{
		Servers: []Server{
			{URL: "https://api.example.com", Alias: "production"},
		},
		AuthStrategy: StrategyBearer,
	}
	if err := Save(path, original); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(loaded.Servers) != 1 || loaded.Servers[0].URL != original.Servers[0].URL {
		t.Errorf("loaded servers = %+v, want %+v", loaded.Servers, original.Servers)
	}
	if loaded.AuthStrategy != StrategyBearer {
		t.Errorf("auth strategy = %q, want %q", loaded.AuthStrategy, StrategyBearer)
	}
}

func TestFindConfigFile_SearchesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("failed to create directories: %v", err)
	}

	path := filepath.Join(root, ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"servers": []}`), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	if err := os.Chdir(nested); err != nil {
		t.Fatalf("failed to change directory: %v", err)
	}
	t.Cleanup(func() { os.Chdir(originalDir) })

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile() error: %v", err)
	}
	// Resolve symlinks before comparing; macOS tempdirs live under /var -> /private/var.
	wantResolved, _ := filepath.EvalSymlinks(path)
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != wantResolved {
		t.Errorf("found %q, want %q", found, path)
	}
}

func TestGetServerByAlias(t *testing.T) {
	cfg := &Config{
		Servers: []Server{
			{URL: "https://one.example.com", Alias: "one"},
			{URL: "https://two.example.com", Alias: "two"},
		},
	}

	server, err := cfg.GetServerByAlias("two")
	if err != nil {
		t.Fatalf("GetServerByAlias() error: %v", err)
	}
	if server.URL != "https://two.example.com" {
		t.Errorf("url = %q, want %q", server.URL, "https://two.example.com")
	}

	if _, err := cfg.GetServerByAlias("missing"); err == nil {
		t.Error("expected error for unknown alias, got nil")
	}
}
