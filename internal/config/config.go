// Package config loads service configuration from a YAML file with
// environment variable overrides. Environment variables take precedence.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	ListenAddr   string            `yaml:"listen_addr"`
	DatabasePath string            `yaml:"database_path"`
	TaxonomyPath string            `yaml:"taxonomy_path"`
	AuthSecret   string            `yaml:"auth_secret"`
	Classify     ClassifySection   `yaml:"classify"`
	Gemini       GeminiSection     `yaml:"gemini"`
	NATS         NATSSection       `yaml:"nats"`
	Filesystem   map[string]string `yaml:"filesystem"` // resource class -> root dir
}

// ClassifySection holds the classifier policy knobs.
type ClassifySection struct {
	Threshold float64 `yaml:"threshold"`
	Margin    float64 `yaml:"margin"`
}

// GeminiSection holds language-capability settings.
type GeminiSection struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// NATSSection holds NATS connection settings.
type NATSSection struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

// Load reads a YAML config file (optional) and applies env overrides and
// defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// Environment variable overrides.
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("TAXONOMY_PATH"); v != "" {
		cfg.TaxonomyPath = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.AuthSecret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_TOKEN"); v != "" {
		cfg.NATS.Token = v
	}
	if v := os.Getenv("CLASSIFY_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CLASSIFY_THRESHOLD %q: %w", v, err)
		}
		cfg.Classify.Threshold = f
	}
	if v := os.Getenv("CLASSIFY_MARGIN"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CLASSIFY_MARGIN %q: %w", v, err)
		}
		cfg.Classify.Margin = f
	}

	// Defaults.
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "taskgate.db"
	}
	if cfg.Classify.Threshold == 0 {
		cfg.Classify.Threshold = 0.5
	}
	if cfg.Classify.Margin == 0 {
		cfg.Classify.Margin = 0.1
	}

	// Validation.
	if cfg.Classify.Threshold < 0 || cfg.Classify.Threshold > 1 {
		return nil, fmt.Errorf("classify threshold must be in [0,1], got %v", cfg.Classify.Threshold)
	}
	if cfg.Classify.Margin < 0 || cfg.Classify.Margin > 1 {
		return nil, fmt.Errorf("classify margin must be in [0,1], got %v", cfg.Classify.Margin)
	}

	return cfg, nil
}
