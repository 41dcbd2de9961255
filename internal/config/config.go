// ABOUTME: Beacon configuration management with backend selection
// ABOUTME: YAML file under XDG config, BEACON_* env overrides and the store factory

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/harper/beacon/internal/kv"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides, e.g. BEACON_BACKEND.
const EnvPrefix = "BEACON"

const (
	DefaultBaseURL        = "http://localhost:8765"
	DefaultListenAddr     = "127.0.0.1:8765"
	DefaultPollInterval   = 5 * time.Second
	DefaultSampleInterval = 10 * time.Second
	DefaultLogLevel       = "info"
)

// defaultDBFilename is the SQLite database filename used for existing-user detection.
const defaultDBFilename = "beacon.db"

var validate = validator.New()

// Config stores beacon configuration.
type Config struct {
	// Backend selects the store: badger (default), sqlite, charm or memory.
	Backend string `mapstructure:"backend" yaml:"backend,omitempty" validate:"omitempty,oneof=badger sqlite charm memory"`

	// DataDir is the root directory for local stores. Supports ~ expansion.
	// Defaults to $XDG_DATA_HOME/beacon.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`

	// BaseURL prefixes viewer and short-link URLs.
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`

	// ListenAddr is where `beacon serve` listens.
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr,omitempty" validate:"omitempty,hostname_port"`

	PollInterval   time.Duration `mapstructure:"poll_interval" yaml:"poll_interval,omitempty" validate:"gte=0"`
	SampleInterval time.Duration `mapstructure:"sample_interval" yaml:"sample_interval,omitempty" validate:"gte=0"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error fatal"`

	// AdminToken guards the viewer's link admin routes when set.
	AdminToken string `mapstructure:"admin_token" yaml:"admin_token,omitempty"`

	// CharmHost overrides the Charm server for the charm backend.
	CharmHost string `mapstructure:"charm_host" yaml:"charm_host,omitempty"`
}

// GetBackend returns the configured backend, defaulting to badger.
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return kv.BackendBadger
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetBaseURL returns the viewer base URL without a trailing slash.
func (c *Config) GetBaseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

// GetListenAddr returns the viewer listen address.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// GetPollInterval returns the viewer refresh period.
func (c *Config) GetPollInterval() time.Duration {
	if c.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.PollInterval
}

// GetSampleInterval returns the producer sampling period.
func (c *Config) GetSampleInterval() time.Duration {
	if c.SampleInterval <= 0 {
		return DefaultSampleInterval
	}
	return c.SampleInterval
}

// GetLogLevel returns the log level name.
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return DefaultLogLevel
	}
	return c.LogLevel
}

// Validate checks field values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// defaultDataDir returns the default XDG data directory for beacon.
func defaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "beacon")
}

// defaultFirstRunConfig returns the appropriate default config for first-time runs.
// If an existing SQLite database is found, it preserves SQLite as the backend.
// Otherwise, it defaults to badger for new users.
func defaultFirstRunConfig() *Config {
	dbPath := filepath.Join(defaultDataDir(), defaultDBFilename)
	_, err := os.Stat(dbPath)
	switch {
	case err == nil:
		return &Config{Backend: kv.BackendSQLite}
	case !os.IsNotExist(err):
		fmt.Fprintf(os.Stderr, "warning: could not check for existing database: %v\n", err)
	}
	return &Config{Backend: kv.BackendBadger}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStore creates the kv.Store for the configured backend.
func (c *Config) OpenStore() (kv.Store, error) {
	backend := c.GetBackend()
	if backend == kv.BackendCharm {
		cfg := kv.DefaultCharmConfig()
		if c.CharmHost != "" {
			cfg.CharmHost = c.CharmHost
		}
		return kv.NewCharmStore(cfg)
	}
	return kv.Open(backend, c.GetDataDir())
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "beacon", "config.yaml")
}

// LoadDotEnv loads KEY=value pairs from the given files (default .env)
// into the environment without overriding variables already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads config from the default path. On first run a default config
// file is written.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom reads config from path, applying BEACON_* environment overrides.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// every key needs a default so AutomaticEnv can see it during Unmarshal
	first := defaultFirstRunConfig()
	v.SetDefault("backend", "")
	v.SetDefault("data_dir", "")
	v.SetDefault("base_url", "")
	v.SetDefault("listen_addr", "")
	v.SetDefault("poll_interval", 0)
	v.SetDefault("sample_interval", 0)
	v.SetDefault("log_level", "")
	v.SetDefault("admin_token", "")
	v.SetDefault("charm_host", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if saveErr := first.SaveTo(path); saveErr != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save default config: %v\n", saveErr)
		}
		v.SetDefault("backend", first.Backend)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fileConfig is the on-disk shape; durations are written as strings.
type fileConfig struct {
	Backend        string `yaml:"backend,omitempty"`
	DataDir        string `yaml:"data_dir,omitempty"`
	BaseURL        string `yaml:"base_url,omitempty"`
	ListenAddr     string `yaml:"listen_addr,omitempty"`
	PollInterval   string `yaml:"poll_interval,omitempty"`
	SampleInterval string `yaml:"sample_interval,omitempty"`
	LogLevel       string `yaml:"log_level,omitempty"`
	AdminToken     string `yaml:"admin_token,omitempty"`
	CharmHost      string `yaml:"charm_host,omitempty"`
}

// Save writes config to the default path.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes config to path atomically.
func (c *Config) SaveTo(path string) error {
	fc := fileConfig{
		Backend:    c.Backend,
		DataDir:    c.DataDir,
		BaseURL:    c.BaseURL,
		ListenAddr: c.ListenAddr,
		LogLevel:   c.LogLevel,
		AdminToken: c.AdminToken,
		CharmHost:  c.CharmHost,
	}
	if c.PollInterval > 0 {
		fc.PollInterval = c.PollInterval.String()
	}
	if c.SampleInterval > 0 {
		fc.SampleInterval = c.SampleInterval.String()
	}

	data, err := yaml.Marshal(fc)
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// atomicWrite writes data to a temp file in the target directory and
// renames it into place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
