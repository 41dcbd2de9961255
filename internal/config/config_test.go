// ABOUTME: Tests for beacon config functionality
// ABOUTME: Verifies config load, save, path resolution, env overrides, defaults, and store factory

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harper/beacon/internal/kv"
	"gopkg.in/yaml.v3"
)

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()
	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if !filepath.IsAbs(path) {
		t.Errorf("GetConfigPath returned non-absolute path: %s", path)
	}
}

func TestGetConfigPathWithXDGConfigHome(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path := GetConfigPath()
	if !strings.HasPrefix(path, tmpDir) {
		t.Errorf("GetConfigPath should use XDG_CONFIG_HOME, got %s", path)
	}
	if !strings.HasSuffix(path, filepath.Join("beacon", "config.yaml")) {
		t.Errorf("GetConfigPath should end with beacon/config.yaml, got %s", path)
	}
}

func TestGetConfigPathWithoutXDGConfigHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	path := GetConfigPath()
	if !strings.Contains(path, ".config") {
		t.Errorf("GetConfigPath should use .config fallback, got %s", path)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", tmpDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed on non-existent config: %v", err)
	}
	if cfg.Backend != kv.BackendBadger {
		t.Errorf("expected default backend 'badger' for new user, got %q", cfg.Backend)
	}

	if _, err := os.Stat(GetConfigPath()); os.IsNotExist(err) {
		t.Error("expected config file to be auto-created on first run")
	}
}

func TestLoadExistingSQLiteUser(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", tmpDir)

	dataDir := filepath.Join(tmpDir, "beacon")
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "beacon.db"), []byte("fake-sqlite-db"), 0600); err != nil {
		t.Fatalf("failed to create fake db: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != kv.BackendSQLite {
		t.Errorf("expected backend 'sqlite' for existing SQLite user, got %q", cfg.Backend)
	}
}

func TestLoadAutoCreatedConfigIsValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Setenv("XDG_DATA_HOME", tmpDir)

	if _, err := Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		t.Fatalf("failed to read auto-created config: %v", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("auto-created config is not valid YAML: %v", err)
	}
	if raw["backend"] != "badger" {
		t.Errorf("expected auto-created config backend 'badger', got %v", raw["backend"])
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("backend: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load should fail on invalid YAML")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := (&Config{Backend: "redis"}).Save(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("expected validation error for unknown backend")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := &Config{
		Backend:        kv.BackendSQLite,
		DataDir:        "/custom/data",
		BaseURL:        "https://beacon.example",
		ListenAddr:     "0.0.0.0:9000",
		PollInterval:   2 * time.Second,
		SampleInterval: 30 * time.Second,
		LogLevel:       "debug",
		AdminToken:     "s3cret",
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *loaded, *cfg)
	}

	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "poll_interval: 2s") {
		t.Errorf("durations should be written as strings, got:\n%s", data)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := (&Config{Backend: kv.BackendSQLite, LogLevel: "info"}).Save(); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BEACON_BACKEND", "memory")
	t.Setenv("BEACON_POLL_INTERVAL", "750ms")
	t.Setenv("BEACON_BASE_URL", "https://env.example/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend != kv.BackendMemory {
		t.Errorf("expected env backend 'memory', got %q", cfg.Backend)
	}
	if cfg.PollInterval != 750*time.Millisecond {
		t.Errorf("expected poll interval 750ms, got %v", cfg.PollInterval)
	}
	if cfg.GetBaseURL() != "https://env.example" {
		t.Errorf("expected trimmed base url, got %q", cfg.GetBaseURL())
	}
	if cfg.LogLevel != "info" {
		t.Errorf("file value should survive, got %q", cfg.LogLevel)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BEACON_TEST_DOTENV=from-file\nBEACON_TEST_PRESET=from-file\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BEACON_TEST_DOTENV", "")
	os.Unsetenv("BEACON_TEST_DOTENV")
	t.Setenv("BEACON_TEST_PRESET", "from-env")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("BEACON_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if got := os.Getenv("BEACON_TEST_PRESET"); got != "from-env" {
		t.Errorf(".env must not override existing env, got %q", got)
	}
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	if cfg.GetBackend() != kv.BackendBadger {
		t.Errorf("expected default backend 'badger', got %q", cfg.GetBackend())
	}
	if cfg.GetBaseURL() != DefaultBaseURL {
		t.Errorf("unexpected base url %q", cfg.GetBaseURL())
	}
	if cfg.GetListenAddr() != DefaultListenAddr {
		t.Errorf("unexpected listen addr %q", cfg.GetListenAddr())
	}
	if cfg.GetPollInterval() != 5*time.Second {
		t.Errorf("unexpected poll interval %v", cfg.GetPollInterval())
	}
	if cfg.GetSampleInterval() != 10*time.Second {
		t.Errorf("unexpected sample interval %v", cfg.GetSampleInterval())
	}
	if cfg.GetLogLevel() != "info" {
		t.Errorf("unexpected log level %q", cfg.GetLogLevel())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"full", Config{Backend: "charm", BaseURL: "http://localhost:8765", ListenAddr: "localhost:80", LogLevel: "warn"}, false},
		{"bad_backend", Config{Backend: "markdown"}, true},
		{"bad_url", Config{BaseURL: "not a url"}, true},
		{"bad_level", Config{LogLevel: "chatty"}, true},
		{"negative_interval", Config{PollInterval: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultDataDir(t *testing.T) {
	cfg := &Config{}
	dataDir := cfg.GetDataDir()
	if !filepath.IsAbs(dataDir) {
		t.Errorf("GetDataDir returned non-absolute path: %s", dataDir)
	}
	if filepath.Base(dataDir) != "beacon" {
		t.Errorf("GetDataDir should end with 'beacon', got %s", dataDir)
	}
}

func TestExplicitDataDir(t *testing.T) {
	cfg := &Config{DataDir: "/custom/data/path"}
	if got := cfg.GetDataDir(); got != "/custom/data/path" {
		t.Errorf("expected '/custom/data/path', got %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("cannot get home dir: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"~/foo", filepath.Join(home, "foo")},
		{"~", home},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		if result := ExpandPath(tt.input); result != tt.expected {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestOpenStoreBackends(t *testing.T) {
	for _, backend := range []string{kv.BackendSQLite, kv.BackendBadger, kv.BackendMemory, ""} {
		t.Run(backend, func(t *testing.T) {
			cfg := &Config{Backend: backend, DataDir: t.TempDir()}
			store, err := cfg.OpenStore()
			if err != nil {
				t.Fatalf("OpenStore(%q) failed: %v", backend, err)
			}
			defer store.Close()

			if err := store.Set("ping", []byte("1")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
		})
	}
}

func TestOpenStoreSqliteCreatesDBInDataDir(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{Backend: kv.BackendSQLite, DataDir: tmpDir}

	store, err := cfg.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "beacon.db")); err != nil {
		t.Errorf("expected beacon.db in data dir: %v", err)
	}
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := &Config{Backend: "redis", DataDir: t.TempDir()}

	_, err := cfg.OpenStore()
	if err == nil {
		t.Fatal("expected error for unknown backend, got nil")
	}
	if !strings.Contains(err.Error(), "unknown backend") {
		t.Errorf("expected 'unknown backend' error, got: %v", err)
	}
}
