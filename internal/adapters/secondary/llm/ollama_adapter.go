package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"

	"github.com/vetroai/vetro/config"
	"github.com/vetroai/vetro/internal/core/domain"
	"github.com/vetroai/vetro/internal/core/ports"
	"github.com/vetroai/vetro/internal/logger"
)

// OllamaAdapter implements the LLMPort interface for the Ollama LLM provider
type OllamaAdapter struct {
	client *ollama.LLM
	config *config.LLMConfig
	logger logger.Logger
}

// NewOllamaAdapter creates a new OllamaAdapter
func NewOllamaAdapter(cfg *config.LLMConfig, log logger.Logger) (*OllamaAdapter, error) {
	log.Info("Initializing Ollama adapter", "endpoint", cfg.Ollama.Endpoint, "model", cfg.Ollama.Model)

	client, err := ollama.New(
		ollama.WithServerURL(cfg.Ollama.Endpoint),
		ollama.WithModel(cfg.Ollama.Model),
	)
	if err != nil {
		log.Error("Failed to initialize Ollama client", "error", err)
		return nil, err
	}

	return &OllamaAdapter{
		client: client,
		config: cfg,
		logger: log,
	}, nil
}

// StreamResponse generates a reply for the message history, forwarding each
// streamed chunk to onToken. Cancelling ctx aborts the stream mid-flight.
func (a *OllamaAdapter) StreamResponse(ctx context.Context, messages []domain.Message, onToken ports.TokenFunc) (string, error) {
	a.logger.Info("Generating response with Ollama",
		"model", a.config.Ollama.Model, "message_count", len(messages))

	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(chatMessageType(msg.Role), msg.Content))
	}

	opts := []llms.CallOption{
		llms.WithMaxTokens(a.config.Ollama.MaxTokens),
		llms.WithTemperature(0.7),
	}
	if onToken != nil {
		opts = append(opts, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			onToken(string(chunk))
			return nil
		}))
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, a.config.Ollama.TimeoutSeconds*time.Second)
	defer cancel()

	resp, err := a.client.GenerateContent(timeoutCtx, content, opts...)
	if err != nil {
		a.logger.Error("Ollama generation failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama returned no choices")
	}

	return resp.Choices[0].Content, nil
}

// GetModelInfo returns information about the current LLM model
func (a *OllamaAdapter) GetModelInfo(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{
		"name":      a.config.Ollama.Model,
		"provider":  "ollama",
		"endpoint":  a.config.Ollama.Endpoint,
		"maxTokens": a.config.Ollama.MaxTokens,
	}, nil
}

// chatMessageType maps domain roles onto langchaingo message types
func chatMessageType(role string) schema.ChatMessageType {
	switch role {
	case domain.RoleSystem:
		return schema.ChatMessageTypeSystem
	case domain.RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
