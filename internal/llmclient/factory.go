// File: internal/llmclient/factory.go

// Package llmclient provides concrete generative-backend clients behind
// the schemas.LLMClient interface.
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/config"
)

// NewClient builds the client for one configured backend.
func NewClient(cfg config.BackendConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(cfg, logger)
	case "openai":
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported provider %q for backend %q", cfg.Provider, cfg.ID)
	}
}
