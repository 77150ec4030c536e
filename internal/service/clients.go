package service

import (
	"context"

	"github.com/deskwise/deskwise/internal/openai"
)

// CompletionClient defines the interface for LLM chat completions
type CompletionClient interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (string, error)
}

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}
