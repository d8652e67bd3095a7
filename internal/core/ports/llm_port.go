package ports

import (
	"context"

	"github.com/vetroai/vetro/internal/core/domain"
)

// TokenFunc receives one streamed completion chunk. A nil TokenFunc is
// allowed and means the caller only wants the final text.
type TokenFunc func(token string)

// LLMPort defines the interface for the remote chat-completion backend
type LLMPort interface {
	// StreamResponse generates a reply for the given message history,
	// invoking onToken for every streamed chunk, and returns the full text.
	// Cancelling ctx aborts the stream.
	StreamResponse(ctx context.Context, messages []domain.Message, onToken TokenFunc) (string, error)

	// GetModelInfo returns information about the current model
	GetModelInfo(ctx context.Context) (map[string]interface{}, error)
}
