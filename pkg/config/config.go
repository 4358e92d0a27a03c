package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DataDirEnv overrides the default ~/.shopmind data directory.
	DataDirEnv = "SHOPMIND_DATA_DIR"
	// ConfigPathEnv overrides the config file location (testing).
	ConfigPathEnv = "SHOPMIND_CONFIG_PATH"

	dbFileName = "sessions.db"
)

// RemoteConfig holds the remote session service settings. An empty backend
// URL means the tracker runs local-only.
type RemoteConfig struct {
	BackendURL string `json:"backend_url"`
	APIKey     string `json:"api_key"`
}

// DataDir returns the shopmind data directory, creating nothing.
// Defaults to ~/.shopmind, overridable with SHOPMIND_DATA_DIR.
func DataDir() (string, error) {
	if envDir := os.Getenv(DataDirEnv); envDir != "" {
		return envDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".shopmind"), nil
}

// DatabasePath returns the path of the local session database, creating the
// data directory if needed.
func DatabasePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(dir, dbFileName), nil
}

func configPath() (string, error) {
	if testPath := os.Getenv(ConfigPathEnv); testPath != "" {
		return testPath, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetRemoteConfig reads the remote service configuration. A missing file
// yields an empty (local-only) config, not an error.
func GetRemoteConfig() (*RemoteConfig, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &RemoteConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg RemoteConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveRemoteConfig validates and writes the remote service configuration.
func SaveRemoteConfig(cfg *RemoteConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Configured reports whether a remote backend is fully configured.
func (c *RemoteConfig) Configured() bool {
	return c.BackendURL != "" && c.APIKey != ""
}

// Validate checks if the remote config is valid
func (c *RemoteConfig) Validate() error {
	if err := ValidateBackendURL(c.BackendURL); err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}
	if err := ValidateAPIKey(c.APIKey); err != nil {
		return fmt.Errorf("invalid API key: %w", err)
	}
	return nil
}

// ValidateBackendURL checks if the backend URL is valid
func ValidateBackendURL(backendURL string) error {
	if backendURL == "" {
		return nil // Empty is allowed (not configured)
	}

	parsed, err := url.Parse(backendURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if parsed.Scheme == "" {
		return fmt.Errorf("url must include scheme (http:// or https://)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url must include a host")
	}

	return nil
}

// ValidateAPIKey checks if the API key format is valid
func ValidateAPIKey(apiKey string) error {
	if apiKey == "" {
		return nil // Empty is allowed (not configured)
	}

	const minKeyLength = 16
	if len(apiKey) < minKeyLength {
		return fmt.Errorf("api key too short (minimum %d characters)", minKeyLength)
	}
	if strings.ContainsAny(apiKey, " \t\n\r") {
		return fmt.Errorf("api key contains invalid whitespace characters")
	}

	return nil
}
