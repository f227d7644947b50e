package perception

import (
	"fmt"
	"strings"

	"cropdoc/internal/config"
	"cropdoc/internal/types"
)

// Backend identifiers accepted in llm.backend.
const (
	BackendREST  = "rest"
	BackendGenAI = "genai"
)

// NewBackendFromConfig builds the backend named by cfg.Backend.
// An empty backend name selects REST.
func NewBackendFromConfig(cfg config.LLMConfig) (Backend, error) {
	gc := DefaultGeminiConfig(cfg.APIKey)
	if strings.TrimSpace(cfg.BaseURL) != "" {
		gc.BaseURL = cfg.BaseURL
	}
	gc.Timeout = cfg.GetTimeout()
	if cfg.Temperature > 0 {
		gc.Temperature = cfg.Temperature
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendREST:
		return NewGeminiBackend(gc), nil
	case BackendGenAI:
		return NewGenAIBackend(gc), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm backend %q", types.ErrConfiguration, cfg.Backend)
	}
}
