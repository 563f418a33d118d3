// Package config provides configuration management for filehaven.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
)

// ConfigDir is the directory name under the user config root.
const ConfigDir = "filehaven"

// EnvToken is the environment variable consulted for the bearer token.
const EnvToken = "FILEHAVEN_TOKEN"

// Config holds client settings. The bearer token is deliberately not part of
// the INI file; it lives in its own token file (see token.go) so that
// `config show` output and shared config files never leak credentials.
//
// INI format (~/.config/filehaven/config):
//
//	[filehaven]
//	server_url = https://files.example.com/api/v1
//	retry_max = 0
//
//	[proxy]
//	mode = no-proxy
//	host =
//	port = 8080
//	user =
//	no_proxy =
type Config struct {
	// Server settings
	ServerURL string `ini:"server_url"`

	// RetryMax is the number of transport-level retries retryablehttp may
	// attempt. 0 (the default) disables automatic retries; retry policy
	// belongs to the caller.
	RetryMax int `ini:"retry_max"`

	// Proxy settings
	ProxyMode     string `ini:"mode"` // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string `ini:"host"`
	ProxyPort     int    `ini:"port"`
	ProxyUser     string `ini:"user"`
	ProxyPassword string `ini:"-"` // never persisted; flag or prompt only
	NoProxy       string `ini:"no_proxy"`

	// Token is resolved at load time (flag > env > token file), never
	// read from or written to the INI file.
	Token string `ini:"-"`
}

// Validation errors returned by Validate.
var (
	ErrNoServerURL  = errors.New("server URL is empty")
	ErrBadProxyMode = errors.New("unsupported proxy mode")
)

// DefaultConfig returns a Config with defaults applied.
func DefaultConfig() *Config {
	return &Config{
		RetryMax:  0,
		ProxyMode: "no-proxy",
		ProxyPort: 8080,
	}
}

// DefaultConfigPath returns the per-user config file location
// (~/.config/filehaven/config on Unix, %AppData% equivalent on Windows).
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ConfigDir, "config")
}

// Load reads the INI config file at path. A missing file is not an error:
// defaults are returned so first-run works before `config init`.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := f.Section("filehaven").MapTo(cfg); err != nil {
		return nil, fmt.Errorf("failed to read [filehaven] section: %w", err)
	}
	if err := f.Section("proxy").MapTo(cfg); err != nil {
		return nil, fmt.Errorf("failed to read [proxy] section: %w", err)
	}

	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
// The token and proxy password are never written.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if path == "" {
		return errors.New("cannot determine config file path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f := ini.Empty()
	if err := f.Section("filehaven").ReflectFrom(c); err != nil {
		return fmt.Errorf("failed to build [filehaven] section: %w", err)
	}
	if err := f.Section("proxy").ReflectFrom(c); err != nil {
		return fmt.Errorf("failed to build [proxy] section: %w", err)
	}
	// ReflectFrom writes every tagged field into both sections; keep each
	// key in its own section so the file stays readable.
	f.Section("filehaven").DeleteKey("mode")
	f.Section("filehaven").DeleteKey("host")
	f.Section("filehaven").DeleteKey("port")
	f.Section("filehaven").DeleteKey("user")
	f.Section("filehaven").DeleteKey("no_proxy")
	f.Section("proxy").DeleteKey("server_url")
	f.Section("proxy").DeleteKey("retry_max")

	if err := f.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}

// MergeWithFlags overlays flag/environment values onto the loaded config.
// Priority: flags > environment > config file > defaults.
func (c *Config) MergeWithFlags(serverURL, token string) {
	if serverURL != "" {
		c.ServerURL = serverURL
	} else if env := os.Getenv("FILEHAVEN_SERVER"); env != "" {
		c.ServerURL = env
	}
	if token != "" {
		c.Token = token
	}
}

// Validate checks that the config is usable for API calls.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return ErrNoServerURL
	}
	switch strings.ToLower(c.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return fmt.Errorf("%w: %s", ErrBadProxyMode, c.ProxyMode)
	}
	return nil
}
