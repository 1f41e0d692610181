package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	History  HistoryConfig  `yaml:"history"`
	Plan     PlanConfig     `yaml:"plan"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port    int      `yaml:"port"`
	APIKeys []APIKey `yaml:"api_keys"`
}

type APIKey struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

// HistoryConfig configures the git repository exported snapshots are
// committed to. An empty repository URL keeps history in a local repository.
type HistoryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	RepositoryURL string `yaml:"repository_url"`
	Branch        string `yaml:"branch"`
	Username      string `yaml:"username"`
	Token         string `yaml:"token"`
	LocalPath     string `yaml:"local_path"`
	AuthorName    string `yaml:"author_name"`
	AuthorEmail   string `yaml:"author_email"`
}

// PlanConfig holds the quota of the workspace plan. 0 means unlimited.
type PlanConfig struct {
	AppLimit int `yaml:"app_limit"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables
	dataStr := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(dataStr), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.History.Branch == "" {
		cfg.History.Branch = "main"
	}
	if cfg.History.LocalPath == "" {
		cfg.History.LocalPath = "/data/app-history"
	}
	if cfg.History.AuthorName == "" {
		cfg.History.AuthorName = "appsd"
	}
	if cfg.History.AuthorEmail == "" {
		cfg.History.AuthorEmail = "appsd@localhost"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "/data/apps.db"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that have no sensible default
func (c *Config) Validate() error {
	if c.Plan.AppLimit < 0 {
		return fmt.Errorf("plan.app_limit must not be negative")
	}
	for i, ak := range c.Server.APIKeys {
		if ak.Key == "" {
			return fmt.Errorf("server.api_keys[%d] has an empty key", i)
		}
	}
	return nil
}

func (c *Config) ValidateAPIKey(key string) bool {
	for _, ak := range c.Server.APIKeys {
		if ak.Key == key {
			return true
		}
	}
	return false
}
