package service

import (
	"encoding/json"
	"strings"
)

// StreamChunkParser is the interface for provider-specific chunk parsing
type StreamChunkParser interface {
	ParseChunk(data []byte) (*StreamChunk, error)
}

type streamDelta struct {
	Role             string  `json:"role,omitempty"`
	Content          string  `json:"content,omitempty"`
	ReasoningContent *string `json:"reasoning_content,omitempty"`
}

type rawStreamChunk struct {
	Choices []struct {
		Delta        streamDelta `json:"delta"`
		FinishReason string      `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

func decodeStreamChunk(data []byte) (*rawStreamChunk, error) {
	var raw rawStreamChunk
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// OpenAIStreamChunkParser parses standard OpenAI-format streaming chunks
type OpenAIStreamChunkParser struct{}

// ParseChunk converts a standard chunk. reasoning_content is ignored.
func (p *OpenAIStreamChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	raw, err := decodeStreamChunk(data)
	if err != nil {
		return nil, err
	}
	chunk := &StreamChunk{}
	if len(raw.Choices) > 0 {
		choice := raw.Choices[0]
		chunk.Role = choice.Delta.Role
		chunk.Content = choice.Delta.Content
		chunk.FinishReason = choice.FinishReason
		chunk.Done = choice.FinishReason != ""
	}
	return chunk, nil
}

// NVIDIAStreamChunkParser parses NVIDIA/DeepSeek chunks, which carry the
// model's reasoning next to the answer.
type NVIDIAStreamChunkParser struct{}

// ParseChunk converts a chunk, keeping reasoning_content as ThinkingContent.
func (p *NVIDIAStreamChunkParser) ParseChunk(data []byte) (*StreamChunk, error) {
	raw, err := decodeStreamChunk(data)
	if err != nil {
		return nil, err
	}
	chunk := &StreamChunk{}
	if len(raw.Choices) > 0 {
		choice := raw.Choices[0]
		chunk.Role = choice.Delta.Role
		chunk.Content = choice.Delta.Content
		if choice.Delta.ReasoningContent != nil {
			chunk.ThinkingContent = *choice.Delta.ReasoningContent
		}
		chunk.FinishReason = choice.FinishReason
		chunk.Done = choice.FinishReason != ""
	}
	return chunk, nil
}

// IsNVIDIAProvider checks if the base URL is NVIDIA API
func IsNVIDIAProvider(baseURL string) bool {
	return strings.TrimRight(baseURL, "/") == "https://integrate.api.nvidia.com/v1"
}

// IsOpenAIProvider checks if the base URL is official OpenAI API
func IsOpenAIProvider(baseURL string) bool {
	return strings.Contains(baseURL, "api.openai.com")
}

// parserFor picks the chunk parser for a provider base URL. Unknown
// providers get the OpenAI format.
func parserFor(baseURL string) (StreamChunkParser, string) {
	switch {
	case IsNVIDIAProvider(baseURL):
		return &NVIDIAStreamChunkParser{}, "nvidia"
	case IsOpenAIProvider(baseURL):
		return &OpenAIStreamChunkParser{}, "openai"
	default:
		return &OpenAIStreamChunkParser{}, "openai-compatible"
	}
}
