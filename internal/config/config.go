package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFile     = "liquid.yaml"
	DefaultListen   = "127.0.0.1:7980"
	DefaultModel    = "gemini-2.5-flash"
	DefaultEndpoint = "https://generativelanguage.googleapis.com"
)

type Config struct {
	Version          int         `yaml:"version"`
	Listen           string      `yaml:"listen"`
	Model            ModelConfig `yaml:"model"`
	Store            StoreConfig `yaml:"store"`
	Log              LogConfig   `yaml:"log"`
	PromptFile       string      `yaml:"prompt_file"`
	LegacyHeuristics bool        `yaml:"legacy_heuristics"`
}

type ModelConfig struct {
	Name          string        `yaml:"name"`
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	MaxAttempts   int           `yaml:"max_attempts"`
}

type StoreConfig struct {
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func Default() *Config {
	return &Config{
		Version: 1,
		Listen:  DefaultListen,
		Model: ModelConfig{
			Name:          DefaultModel,
			Endpoint:      DefaultEndpoint,
			Timeout:       60 * time.Second,
			RatePerSecond: 1,
			MaxAttempts:   3,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		return fmt.Errorf("listen address is required")
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		return fmt.Errorf("model name is required")
	}
	if cfg.Model.Endpoint != "" {
		u, err := url.Parse(cfg.Model.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("model endpoint must be an http(s) url: %q", cfg.Model.Endpoint)
		}
	}
	if cfg.Model.Timeout < 0 {
		return fmt.Errorf("model timeout must not be negative")
	}
	if cfg.Model.RatePerSecond < 0 {
		return fmt.Errorf("model rate_per_second must not be negative")
	}
	if cfg.Model.MaxAttempts < 0 || cfg.Model.MaxAttempts > 10 {
		return fmt.Errorf("model max_attempts must be between 0 and 10")
	}
	if _, err := StoreScheme(cfg.Store.DSN); err != nil {
		return err
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", cfg.Log.Level)
	}
	return nil
}

// StoreScheme returns "postgres", "sqlite" or "" for a disabled store.
func StoreScheme(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", nil
	default:
		return "", fmt.Errorf("store dsn must start with postgres:// or sqlite://")
	}
}
