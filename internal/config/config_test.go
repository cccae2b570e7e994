package config

import "testing"

func clearEnv(t *testing.T) {
	t.Setenv("COHERE_API_KEY", "")
	t.Setenv("GENIE_BASE_URL", "")
	t.Setenv("GENIE_MODEL", "")
	t.Setenv("GENIE_EMBED_MODEL", "")
	t.Setenv("GENIE_EMBED_DIM", "")
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()

	if cfg.APIKey != "" {
		t.Errorf("expected empty API key, got '%s'", cfg.APIKey)
	}

	if cfg.BaseURL != "https://api.cohere.com" {
		t.Errorf("expected default base URL, got '%s'", cfg.BaseURL)
	}

	if cfg.Model != "command-r-plus-08-2024" {
		t.Errorf("expected default model, got '%s'", cfg.Model)
	}

	if cfg.EmbedModel != "embed-v4.0" {
		t.Errorf("expected default embed model, got '%s'", cfg.EmbedModel)
	}

	if cfg.EmbedDim != 1024 {
		t.Errorf("expected default embed dim 1024, got %d", cfg.EmbedDim)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COHERE_API_KEY", "test-key")
	t.Setenv("GENIE_BASE_URL", "https://proxy.example.com")
	t.Setenv("GENIE_MODEL", "command-light")
	t.Setenv("GENIE_EMBED_DIM", "256")

	cfg := FromEnv()

	if cfg.APIKey != "test-key" {
		t.Errorf("expected API key 'test-key', got '%s'", cfg.APIKey)
	}

	if cfg.BaseURL != "https://proxy.example.com" {
		t.Errorf("expected overridden base URL, got '%s'", cfg.BaseURL)
	}

	if cfg.Model != "command-light" {
		t.Errorf("expected overridden model, got '%s'", cfg.Model)
	}

	if cfg.EmbedDim != 256 {
		t.Errorf("expected embed dim 256, got %d", cfg.EmbedDim)
	}
}

func TestFromEnvBadEmbedDim(t *testing.T) {
	clearEnv(t)
	t.Setenv("GENIE_EMBED_DIM", "not-a-number")

	cfg := FromEnv()

	if cfg.EmbedDim != 1024 {
		t.Errorf("expected fallback to default dim, got %d", cfg.EmbedDim)
	}
}

func TestHasAPIKey(t *testing.T) {
	cfg := &Config{}
	if cfg.HasAPIKey() {
		t.Error("expected HasAPIKey to be false for empty key")
	}

	cfg.APIKey = "k"
	if !cfg.HasAPIKey() {
		t.Error("expected HasAPIKey to be true")
	}
}

func TestApplyDefaultsPreservesValues(t *testing.T) {
	cfg := &Config{
		APIKey:   "key",
		Model:    "custom-model",
		EmbedDim: 512,
	}

	cfg.ApplyDefaults()

	if cfg.Model != "custom-model" {
		t.Errorf("expected model preserved, got '%s'", cfg.Model)
	}

	if cfg.EmbedDim != 512 {
		t.Errorf("expected embed dim preserved, got %d", cfg.EmbedDim)
	}

	if cfg.BaseURL != "https://api.cohere.com" {
		t.Errorf("expected default base URL filled in, got '%s'", cfg.BaseURL)
	}
}
