// Package config loads the autobm configuration file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/autobm/internal/storage"
)

// Config is the application configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Storage  StorageConfig  `yaml:"storage"`
	Settings SettingsConfig `yaml:"settings"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// AppConfig holds process-level options.
type AppConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the message port address.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// URL is the base URL senders post to.
func (c *HTTPConfig) URL() string {
	host, port, err := net.SplitHostPort(c.Addr)
	if err != nil {
		return "http://" + c.Addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Addr, validation.Required, validation.By(hostPort)),
	)
}

func hostPort(value any) error {
	s, _ := value.(string)
	if _, _, err := net.SplitHostPort(s); err != nil {
		return errors.New("must be host:port")
	}
	return nil
}

// StorageConfig selects the bookmark store.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	// Path may be empty to use the backend's default location.
	Path string `yaml:"path"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(storage.BackendJSON, storage.BackendSQLite)),
	)
}

// SettingsConfig locates the settings file.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel: slog.LevelInfo,
			HTTP:     HTTPConfig{Addr: "127.0.0.1:7333"},
		},
		Storage: StorageConfig{Backend: storage.BackendJSON},
	}
}

// DefaultPath returns ~/.config/autobm/config.yaml.
func DefaultPath() (string, error) {
	dir, err := storage.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads filename over the defaults, expanding ${VAR} references
// first. A missing file is not an error unless required is set.
func Load(filename string, required bool) (*Config, error) {
	cfg := NewDefaultConfig()

	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist) && !required:
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", filename, err)
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", filename, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// SettingsPath returns the settings file, defaulting next to the store.
func (c *Config) SettingsPath() (string, error) {
	if c.Settings.Path != "" {
		return c.Settings.Path, nil
	}
	dir, err := storage.DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}
