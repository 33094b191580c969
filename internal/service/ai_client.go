package service

import (
	"context"
)

// ChatClient is the chat side of an OpenAI-compatible provider
type ChatClient interface {
	// ChatCompletion runs a non-streaming completion
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)

	// ChatCompletionStream runs a streaming completion, calling back once per chunk
	ChatCompletionStream(ctx context.Context, req ChatCompletionRequest, callback StreamCallback) error

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}

// Embedder turns texts into vectors
type Embedder interface {
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
	IsEnabled() bool
}

// StreamChunk represents a generic streaming response chunk
type StreamChunk struct {
	// Regular content (always present in streaming)
	Content string

	// Thinking/reasoning content (provider-specific, e.g., DeepSeek)
	ThinkingContent string

	Role string

	// FinishReason is set on the final chunk
	FinishReason string

	Done bool
}

// Ensure OpenAIClient implements both sides
var (
	_ ChatClient = (*OpenAIClient)(nil)
	_ Embedder   = (*OpenAIClient)(nil)
)
