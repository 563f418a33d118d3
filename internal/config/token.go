package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultTokenPath returns the per-user token file location
// (~/.config/filehaven/token). Returns "" if the user config root cannot
// be determined.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, ConfigDir, "token")
}

// ReadTokenFile reads a bearer token from the given file, trimming
// surrounding whitespace.
func ReadTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteTokenFile writes the token to path with owner-only permissions,
// creating parent directories as needed.
func WriteTokenFile(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// RemoveTokenFile deletes the token file. A missing file is not an error.
func RemoveTokenFile(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ResolveToken returns a bearer token by checking sources in priority order:
//
//  1. Provided token parameter (e.g. from --token flag)
//  2. FILEHAVEN_TOKEN environment variable
//  3. Token file at tokenPath (default path when empty)
//
// The second return value names the winning source ("flag", "environment",
// "token-file", or "" when nothing was found), for --verbose diagnostics.
func ResolveToken(token, tokenPath string) (string, string) {
	if token != "" {
		return token, "flag"
	}
	if env := os.Getenv(EnvToken); env != "" {
		return env, "environment"
	}
	if tokenPath == "" {
		tokenPath = DefaultTokenPath()
	}
	if tokenPath != "" {
		if t, err := ReadTokenFile(tokenPath); err == nil && t != "" {
			return t, "token-file"
		}
	}
	return "", ""
}

// TokenStore persists the session credential to a token file. It is the
// durable credential store behind the session manager: absence of the file
// means unauthenticated.
type TokenStore struct {
	Path string
}

// NewTokenStore returns a TokenStore at the default per-user path.
func NewTokenStore() *TokenStore {
	return &TokenStore{Path: DefaultTokenPath()}
}

// Load returns the persisted token, or "" when none is stored.
func (s *TokenStore) Load() (string, error) {
	if s.Path == "" {
		return "", nil
	}
	token, err := ReadTokenFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Save persists the token, replacing any previous one.
func (s *TokenStore) Save(token string) error {
	if s.Path == "" {
		return fmt.Errorf("cannot determine token file path")
	}
	return WriteTokenFile(s.Path, token)
}

// Clear removes the persisted token. Clearing an absent token is a no-op.
func (s *TokenStore) Clear() error {
	if s.Path == "" {
		return nil
	}
	return RemoveTokenFile(s.Path)
}
