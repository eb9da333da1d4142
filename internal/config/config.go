// Package config provides configuration loading and structs for seiri.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Archive ArchiveConfig `yaml:"archive"`
	Output  OutputConfig  `yaml:"output"`
	Clean   CleanConfig   `yaml:"clean"`
	Media   MediaConfig   `yaml:"media"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ArchiveConfig locates the Twitter export on disk.
type ArchiveConfig struct {
	Path    string `yaml:"path"`
	Workers int    `yaml:"workers"`
}

// OutputConfig controls dataset output.
type OutputConfig struct {
	Path     string   `yaml:"path"`
	Formats  []string `yaml:"formats"`
	Basename string   `yaml:"basename"`
}

// CleanConfig mirrors the text cleaning options. Pointers distinguish
// "unset" (use default) from an explicit false.
type CleanConfig struct {
	RemoveURLs       *bool `yaml:"remove_urls"`
	RemoveMentions   *bool `yaml:"remove_mentions"`
	RemoveHashtags   *bool `yaml:"remove_hashtags"`
	RemoveEmails     *bool `yaml:"remove_emails"`
	RemoveNumbers    *bool `yaml:"remove_numbers"`
	NormalizeUnicode *bool `yaml:"normalize_unicode"`
	PreserveEmojis   *bool `yaml:"preserve_emojis"`
}

// MediaConfig controls media inventory and copying.
type MediaConfig struct {
	Enabled    *bool `yaml:"enabled"`
	CopyByType *bool `yaml:"copy_by_type"`
}

// StorageConfig holds paths for the database and the search index.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// WatchConfig controls watch-mode reprocessing.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Archive.Path = expandPath(cfg.Archive.Path, configDir)
	cfg.Output.Path = expandPath(cfg.Output.Path, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
