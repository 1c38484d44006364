// ABOUTME: Configuration loading and parsing for parlord
// ABOUTME: Supports YAML files with environment variable expansion and validation

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config represents the complete parlord configuration
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Providers ProvidersConfig `yaml:"providers"`
	Render    RenderConfig    `yaml:"render"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProvidersConfig holds model backend configuration.
// Endpoint is the base URL all three provider routes build on. ChatEndpoint,
// when set, forces the OpenAI-style chat route regardless of model ID.
type ProvidersConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	ChatEndpoint string  `yaml:"chat_endpoint"`
	APIKey       string  `yaml:"api_key"`
	DefaultModel string  `yaml:"default_model"`
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
}

// RenderConfig controls the outgoing-text markdown rendering step
type RenderConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default values applied when the config file leaves fields unset.
const (
	DefaultModel       = "claude-2.1"
	DefaultMaxTokens   = 1024
	DefaultTemperature = 1.0
)

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Providers.DefaultModel == "" {
		c.Providers.DefaultModel = DefaultModel
	}
	if c.Providers.MaxTokens == 0 {
		c.Providers.MaxTokens = DefaultMaxTokens
	}
	if c.Providers.Temperature == 0 {
		c.Providers.Temperature = DefaultTemperature
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Providers.Endpoint == "" {
		return fmt.Errorf("providers.endpoint is required")
	}
	if c.Providers.APIKey == "" {
		return fmt.Errorf("providers.api_key is required")
	}
	return nil
}
