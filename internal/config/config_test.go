package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"cropdoc/internal/types"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "GEMINI_BASE_URL", "CROPDOC_LLM_BACKEND", "CROPDOC_MODELS",
		"CROPDOC_STORE", "CROPDOC_STORE_BACKEND", "CROPDOC_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "cropdoc" {
		t.Errorf("expected Name=cropdoc, got %s", cfg.Name)
	}
	if cfg.LLM.Backend != "rest" {
		t.Errorf("expected Backend=rest, got %s", cfg.LLM.Backend)
	}
	if len(cfg.LLM.Models) == 0 || cfg.LLM.Models[0] != "gemini-2.5-flash" {
		t.Errorf("expected gemini-2.5-flash first, got %v", cfg.LLM.Models)
	}
	if cfg.Store.Backend != "json" {
		t.Errorf("expected store backend json, got %s", cfg.Store.Backend)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := DefaultConfig()
	cfg.LLM.APIKey = "test-key"
	cfg.LLM.Models = []string{"model-a", "model-b"}
	cfg.Store.Backend = "sqlite"

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM.APIKey != "test-key" {
		t.Errorf("expected APIKey=test-key, got %s", loaded.LLM.APIKey)
	}
	if len(loaded.LLM.Models) != 2 || loaded.LLM.Models[1] != "model-b" {
		t.Errorf("expected models to round-trip, got %v", loaded.LLM.Models)
	}
	if loaded.Store.Backend != "sqlite" {
		t.Errorf("expected store backend sqlite, got %s", loaded.Store.Backend)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Timeout != "90s" {
		t.Errorf("expected default timeout, got %s", cfg.LLM.Timeout)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_ValidateLLM(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ValidateLLM()
	if err == nil {
		t.Fatal("expected validation error for missing API key")
	}
	if !errorsIs(err, types.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}

	cfg.LLM.APIKey = "k"
	if err := cfg.ValidateLLM(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg.LLM.Models = nil
	if err := cfg.ValidateLLM(); err == nil {
		t.Error("expected error for empty model list")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	cfg.Store.Backend = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown store backend")
	}
}

func TestGetLLMTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "15s"
	if got := cfg.GetLLMTimeout(); got != 15*time.Second {
		t.Errorf("expected 15s, got %v", got)
	}
	cfg.LLM.Timeout = "soon"
	if got := cfg.GetLLMTimeout(); got != 90*time.Second {
		t.Errorf("expected fallback 90s, got %v", got)
	}
}
