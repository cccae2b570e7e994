package config

import (
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultBaseURL    = "https://api.cohere.com"
	DefaultModel      = "command-r-plus-08-2024"
	DefaultEmbedModel = "embed-v4.0"
	DefaultEmbedDim   = 1024
)

// Config is read once at startup and never mutated afterwards.
// A missing API key is a valid degraded state, not a load error.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	EmbedModel string
	EmbedDim   int
}

func FromEnv() *Config {
	cfg := &Config{
		APIKey:     os.Getenv("COHERE_API_KEY"),
		BaseURL:    os.Getenv("GENIE_BASE_URL"),
		Model:      os.Getenv("GENIE_MODEL"),
		EmbedModel: os.Getenv("GENIE_EMBED_MODEL"),
	}

	if dim := os.Getenv("GENIE_EMBED_DIM"); dim != "" {
		if n, err := strconv.Atoi(dim); err == nil && n > 0 {
			cfg.EmbedDim = n
		}
	}

	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.EmbedModel == "" {
		c.EmbedModel = DefaultEmbedModel
	}
	if c.EmbedDim == 0 {
		c.EmbedDim = DefaultEmbedDim
	}
}

// HasAPIKey reports whether the process was started with a key configured.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "genie"), nil
}

func DBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "genie.db"), nil
}

func PromptsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prompts"), nil
}
