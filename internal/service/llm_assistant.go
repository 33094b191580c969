package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"salesdesk/internal/logger"
	"salesdesk/internal/model"
	"salesdesk/internal/pipeline"
)

// AssistantFallbackText accompanies every remote assistant error body.
const AssistantFallbackText = "I apologize, but I'm having trouble processing your request right now. Please try rephrasing your question or use the filter options below."

const finishReasonStop = "stop"

// LLMOptions tunes the in-process assistant
type LLMOptions struct {
	Model            string
	Temperature      float64
	MaxTokens        int
	MaxPromptUnits   int
	MaxPromptFAQs    int
	MaxRelevantUnits int
}

// DefaultLLMOptions are the settings the sales dashboard was tuned with.
func DefaultLLMOptions() LLMOptions {
	return LLMOptions{
		Model:            "gpt-4o-mini",
		Temperature:      0.2,
		MaxTokens:        400,
		MaxPromptUnits:   10,
		MaxPromptFAQs:    5,
		MaxRelevantUnits: 3,
	}
}

// LLMAssistant answers assistant requests with a chat completion. It is the
// server side of the /assistant contract.
type LLMAssistant struct {
	client ChatClient
	opts   LLMOptions
	logger *zap.Logger
}

// NewLLMAssistant wraps a chat client. Zero option fields take the defaults.
func NewLLMAssistant(client ChatClient, opts LLMOptions, log *zap.Logger) *LLMAssistant {
	def := DefaultLLMOptions()
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if opts.Temperature == 0 {
		opts.Temperature = def.Temperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = def.MaxTokens
	}
	if opts.MaxPromptUnits == 0 {
		opts.MaxPromptUnits = def.MaxPromptUnits
	}
	if opts.MaxPromptFAQs == 0 {
		opts.MaxPromptFAQs = def.MaxPromptFAQs
	}
	if opts.MaxRelevantUnits == 0 {
		opts.MaxRelevantUnits = def.MaxRelevantUnits
	}
	return &LLMAssistant{client: client, opts: opts, logger: logger.OrNop(log)}
}

func (a *LLMAssistant) completionRequest(req *model.AssistantRequest) (ChatCompletionRequest, error) {
	user, err := userPrompt(req, a.opts.MaxPromptUnits, a.opts.MaxPromptFAQs)
	if err != nil {
		return ChatCompletionRequest{}, err
	}
	return ChatCompletionRequest{
		Model: a.opts.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt(req)},
			{Role: "user", Content: user},
		},
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
	}, nil
}

// Answer runs one completion and attaches the units the query is about.
func (a *LLMAssistant) Answer(ctx context.Context, req *model.AssistantRequest) (*model.AssistantResponse, error) {
	start := time.Now()
	creq, err := a.completionRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.ChatCompletion(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in chat completion")
	}

	choice := resp.Choices[0]
	return &model.AssistantResponse{
		Response:      choice.Message.Content,
		RelevantUnits: RelevantUnits(req.Query, req.UnitsData, a.opts.MaxRelevantUnits),
		Confidence:    confidenceFor(choice.FinishReason),
		ResponseTime:  time.Since(start).Milliseconds(),
	}, nil
}

// AnswerStream streams the completion through onToken and returns the
// assembled answer.
func (a *LLMAssistant) AnswerStream(ctx context.Context, req *model.AssistantRequest, onToken TokenCallback) (*model.AssistantResponse, error) {
	start := time.Now()
	creq, err := a.completionRequest(req)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	finish := ""
	err = a.client.ChatCompletionStream(ctx, creq, func(chunk *StreamChunk) error {
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
		if chunk.ThinkingContent == "" && chunk.Content == "" {
			return nil
		}
		text.WriteString(chunk.Content)
		return onToken(chunk.ThinkingContent, chunk.Content)
	})
	if err != nil {
		return nil, fmt.Errorf("chat stream failed: %w", err)
	}

	return &model.AssistantResponse{
		Response:      text.String(),
		RelevantUnits: RelevantUnits(req.Query, req.UnitsData, a.opts.MaxRelevantUnits),
		Confidence:    confidenceFor(finish),
		ResponseTime:  time.Since(start).Milliseconds(),
	}, nil
}

func confidenceFor(finishReason string) model.Confidence {
	if finishReason == finishReasonStop {
		return model.ConfidenceHigh
	}
	return model.ConfidenceMedium
}

func systemPrompt(req *model.AssistantRequest) string {
	name, location := "Multiple Projects", "Various Locations"
	if p := req.ProjectData; p != nil {
		if p.Name != "" {
			name = p.Name
		}
		if p.Location != "" {
			location = p.Location
		}
	}
	ctxLabel := req.Context
	if ctxLabel == "" {
		ctxLabel = "General inquiry"
	}

	priceRange := "N/A"
	prices := make([]int64, 0, len(req.UnitsData))
	for _, u := range req.UnitsData {
		prices = append(prices, u.Price)
	}
	if lo, hi, ok := pipeline.PriceBounds(prices); ok {
		priceRange = fmt.Sprintf("₹%sCr - ₹%sCr", pipeline.CroreString(lo), pipeline.CroreString(hi))
	}

	return `You are a helpful real estate assistant built into a sales dashboard. Your goal is to answer user queries quickly and clearly for live sales calls.

RESPONSE FORMAT RULES:
- Use clean, key-value pair format with emoji headers
- Each property gets a 🏠 emoji header with title
- Use bullet points for easy scanning
- Keep responses friendly but concise
- No marketing fluff, just facts
- End with no CTA or contact details

USE THIS EXACT FORMAT:

🏠 [Property Title like "3 BHK - Type 01" or "3 BHK Lower Penthouse - Type 1"]
Price: ₹X.XX Cr

Area: XXXX sq. ft.

Features: [Comma-separated list of key features]

Availability: ✅ Available / ⏳ Under Construction / ❌ Sold

For multiple units, use separate 🏠 sections for each.

` + fmt.Sprintf("Current Project: %s\nLocation: %s\n\nAvailable Units: %d units\nPrice Range: %s\n\nContext: %s",
		name, location, len(req.UnitsData), priceRange, ctxLabel)
}

func userPrompt(req *model.AssistantRequest, maxUnits, maxFAQs int) (string, error) {
	project, err := json.MarshalIndent(req.ProjectData, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode project: %w", err)
	}
	units, err := json.MarshalIndent(head(req.UnitsData, maxUnits), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode units: %w", err)
	}
	faqs, err := json.MarshalIndent(head(req.FAQsData, maxFAQs), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode faqs: %w", err)
	}

	return fmt.Sprintf("Query: \"%s\"\n\nProject Data: %s\nUnits Data: %s\nFAQs: %s\n\nProvide a clean, scannable response using the exact format specified with emoji headers and key-value pairs.",
		req.Query, project, units, faqs), nil
}

// head returns at most n leading items, never nil.
func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		items = items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}

// RelevantUnits picks the units a free-text query is about, in order,
// keeping at most limit. A unit matches when the query names its type,
// says "{n}bhk", asks for "available" and the unit is, says "under" and
// the unit is within the price ceiling, or names one of its features.
// "under" without an amount has no ceiling and matches every unit.
func RelevantUnits(query string, units []model.Unit, limit int) []model.Unit {
	lower := strings.ToLower(query)
	ceiling := pipeline.PriceCeiling(lower)
	asksAvailable := strings.Contains(lower, "available")
	asksUnder := strings.Contains(lower, "under")

	out := []model.Unit{}
	for _, u := range units {
		if limit > 0 && len(out) >= limit {
			break
		}
		if (u.Type != "" && strings.Contains(lower, strings.ToLower(u.Type))) ||
			strings.Contains(lower, fmt.Sprintf("%dbhk", u.Bedrooms)) ||
			(asksAvailable && u.IsAvailable()) ||
			(asksUnder && float64(u.Price) <= ceiling) ||
			mentionsFeature(lower, u.Features) {
			out = append(out, u)
		}
	}
	return out
}

func mentionsFeature(lower string, features []string) bool {
	for _, f := range features {
		if f != "" && strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
