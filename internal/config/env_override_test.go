package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorsIs(err, target error) bool { return errors.Is(err, target) }

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("GEMINI_API_KEY sets key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "env-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "env-key", cfg.LLM.APIKey)
	})

	t.Run("CROPDOC_MODELS splits and trims", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CROPDOC_MODELS", " gemini-2.5-pro, ,gemini-2.5-flash ")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, []string{"gemini-2.5-pro", "gemini-2.5-flash"}, cfg.LLM.Models)
	})

	t.Run("empty env leaves config alone", func(t *testing.T) {
		clearEnv(t)

		cfg := &Config{LLM: LLMConfig{APIKey: "from-file", Backend: "genai"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "from-file", cfg.LLM.APIKey)
		assert.Equal(t, "genai", cfg.LLM.Backend)
	})
}

func TestEnvOverrides_Store(t *testing.T) {
	clearEnv(t)
	t.Setenv("CROPDOC_STORE", "/tmp/plans.db")
	t.Setenv("CROPDOC_STORE_BACKEND", "leveldb")
	t.Setenv("CROPDOC_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/tmp/plans.db", cfg.Store.Path)
	assert.Equal(t, "leveldb", cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
