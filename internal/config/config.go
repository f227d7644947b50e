package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cropdoc/internal/types"

	"gopkg.in/yaml.v3"
)

// Config holds all cropdoc configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Classifier configuration
	LLM LLMConfig `yaml:"llm"`

	// Task/plan store
	Store StoreConfig `yaml:"store"`

	// Weed/crop matching table
	Enrichment EnrichmentConfig `yaml:"enrichment"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the classification backend.
type LLMConfig struct {
	Backend     string   `yaml:"backend"` // rest, genai
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Models      []string `yaml:"models"` // tried in order
	Timeout     string   `yaml:"timeout"`
	Temperature float64  `yaml:"temperature"`
}

// StoreConfig configures task/plan persistence.
type StoreConfig struct {
	Backend string `yaml:"backend"` // json, sqlite, leveldb
	Path    string `yaml:"path"`
	Driver  string `yaml:"driver"` // sqlite3 (cgo), sqlite (pure Go)
}

// EnrichmentConfig points at an optional YAML mapping that extends the built-in table.
type EnrichmentConfig struct {
	MappingFile string `yaml:"mapping_file"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	File       string          `yaml:"file"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultDir returns ~/.cropdoc, or .cropdoc when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".cropdoc"
	}
	return filepath.Join(home, ".cropdoc")
}

// DefaultConfigPath returns the default path to config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	dir := DefaultDir()
	return &Config{
		Name:    "cropdoc",
		Version: "0.3.0",

		LLM: LLMConfig{
			Backend:     "rest",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Models:      []string{"gemini-2.5-flash", "gemini-2.0-flash"},
			Timeout:     "90s",
			Temperature: 0.4,
		},

		Store: StoreConfig{
			Backend: "json",
			Path:    filepath.Join(dir, "store.json"),
			Driver:  "sqlite",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(dir, "logs", "cropdoc.log"),
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults; env overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if url := os.Getenv("GEMINI_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if backend := os.Getenv("CROPDOC_LLM_BACKEND"); backend != "" {
		c.LLM.Backend = backend
	}
	if models := os.Getenv("CROPDOC_MODELS"); models != "" {
		c.LLM.Models = splitList(models)
	}

	if path := os.Getenv("CROPDOC_STORE"); path != "" {
		c.Store.Path = path
	}
	if backend := os.Getenv("CROPDOC_STORE_BACKEND"); backend != "" {
		c.Store.Backend = backend
	}

	if level := os.Getenv("CROPDOC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateLLM checks what the classifier needs. Only the classification
// path calls it; the store and enrichment work without credentials.
func (c *Config) ValidateLLM() error {
	var missing []string
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		missing = append(missing, "API key (set GEMINI_API_KEY)")
	}
	if len(c.LLM.Models) == 0 {
		missing = append(missing, "model list")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", types.ErrConfiguration, strings.Join(missing, ", "))
	}
	switch c.LLM.Backend {
	case "", "rest", "genai":
	default:
		return fmt.Errorf("%w: unknown llm backend %q (valid: rest, genai)", types.ErrConfiguration, c.LLM.Backend)
	}
	return nil
}

// Validate checks the non-credential parts of the configuration.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "json", "sqlite", "leveldb":
	default:
		return fmt.Errorf("%w: unknown store backend %q (valid: json, sqlite, leveldb)", types.ErrConfiguration, c.Store.Backend)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store path is empty", types.ErrConfiguration)
	}
	return nil
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	return c.LLM.GetTimeout()
}

// GetTimeout parses Timeout, falling back to 90s.
func (l LLMConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(l.Timeout)
	if err != nil || d <= 0 {
		return 90 * time.Second
	}
	return d
}
