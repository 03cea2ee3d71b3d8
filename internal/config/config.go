// Package config provides configuration loading and structs for the Kanren engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hiro0218/kanren/internal/relate"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool          `yaml:"debug"`
	Server ServerConfig  `yaml:"server"`
	Corpus CorpusConfig  `yaml:"corpus"`
	Output OutputConfig  `yaml:"output"`
	Relate relate.Config `yaml:"relate"`
	Search SearchConfig  `yaml:"search"`
	Watch  WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// CorpusConfig holds the corpus source settings. Source selects the backend:
// "json" reads the posts/tags export files, "sqlite" reads the document database.
type CorpusConfig struct {
	Source       string `yaml:"source"`
	PostsPath    string `yaml:"posts_path"`
	TagsPath     string `yaml:"tags_path"`
	DatabasePath string `yaml:"database_path"`
}

// OutputConfig holds the artifact output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// SearchConfig holds runtime query engine settings.
type SearchConfig struct {
	MaxResults int `yaml:"max_results"`
	CacheSize  int `yaml:"cache_size"`
}

// WatchConfig holds corpus file watch settings.
type WatchConfig struct {
	Enabled    bool `yaml:"enabled"`
	DebounceMs int  `yaml:"debounce_ms"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
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
	cfg.Corpus.PostsPath = expandPath(cfg.Corpus.PostsPath, configDir)
	cfg.Corpus.TagsPath = expandPath(cfg.Corpus.TagsPath, configDir)
	cfg.Corpus.DatabasePath = expandPath(cfg.Corpus.DatabasePath, configDir)
	cfg.Output.Dir = expandPath(cfg.Output.Dir, configDir)

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

// expandPath converts a path to absolute. Paths starting with "./" are relative
// to configDir; other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
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
