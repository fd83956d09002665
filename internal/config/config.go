// Package config reads and writes the per-install gitflow configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is the persisted application configuration. Zero values fall back
// to defaults at the point of use.
type Config struct {
	BackupDir     string `json:"backupDir,omitempty"`
	RetentionDays int    `json:"retentionDays,omitempty"`
	MaxBackups    int    `json:"maxBackups,omitempty"`
	UndoDepth     int    `json:"undoDepth,omitempty"`
}

// configPath returns the config file location under the user config dir.
func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "gitflow", "config.json"), nil
}

// Load reads the configuration, returning defaults when no file exists.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration, creating the config directory as needed.
func Save(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ResolveBackupDir returns the configured backup directory, defaulting to a
// gitflow-backups directory under the user config dir.
func (c *Config) ResolveBackupDir() string {
	if c.BackupDir != "" {
		return c.BackupDir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "gitflow", "backups")
}
