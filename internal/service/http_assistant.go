package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"salesdesk/internal/model"
	"salesdesk/internal/utils"
)

// RemoteError is a non-2xx answer from a remote model endpoint.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return fmt.Sprintf("API request failed with status %d: %s", e.Status, msg)
}

// HTTPAssistant calls an external assistant endpoint speaking the
// /assistant contract.
type HTTPAssistant struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPAssistant creates a client for endpoint. apiKey may be empty.
func NewHTTPAssistant(endpoint, apiKey string, timeout time.Duration) *HTTPAssistant {
	return &HTTPAssistant{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Answer posts req and decodes the reply. Error bodies become *RemoteError.
func (a *HTTPAssistant) Answer(ctx context.Context, req *model.AssistantRequest) (*model.AssistantResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
		httpReq.Header.Set("apikey", a.apiKey)
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remote := &RemoteError{Status: resp.StatusCode, Message: string(raw)}
		// the body's fallback text is dropped; the caller answers locally
		var payload model.AssistantError
		if utils.DecodeLenient(raw, &payload) == nil && payload.Error != "" {
			remote.Message = payload.Error
		}
		return nil, remote
	}

	var out model.AssistantResponse
	if err := utils.DecodeLenient(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to decode assistant response: %w", err)
	}
	if out.Response == "" {
		return nil, errors.New("assistant returned an empty response")
	}
	return &out, nil
}
