// File: internal/llmclient/openai.go
package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xkilldash9x/refine-cli/api/schemas"
	"github.com/xkilldash9x/refine-cli/internal/config"
)

// OpenAIClient implements schemas.LLMClient over the chat-completions
// protocol. A custom endpoint turns it into a client for any
// OpenAI-compatible provider (Groq and friends serve the same API).
type OpenAIClient struct {
	client     *openai.Client
	httpClient *http.Client
	model      string
	logger     *zap.Logger
}

// NewOpenAIClient initializes the client, pointing it at the configured
// endpoint when one is set. The per-backend timeout is the only bound on
// a generation call; the aggregator imposes none of its own.
func NewOpenAIClient(cfg config.BackendConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for backend %q", cfg.ID)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.HTTPClient = httpClient
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}

	return &OpenAIClient{
		client:     openai.NewClientWithConfig(clientCfg),
		httpClient: httpClient,
		model:      cfg.Model,
		logger:     logger.Named("llm_client.openai"),
	}, nil
}

// Generate sends the prompts as a two-message chat completion.
func (c *OpenAIClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: float32(req.Options.Temperature),
		MaxTokens:   req.Options.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("API returned no choices")
	}

	c.logger.Info("LLM generation complete (OpenAI-compatible)",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// Close implements schemas.LLMClient.
func (c *OpenAIClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
