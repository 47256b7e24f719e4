/*-------------------------------------------------------------------------
 *
 * provider.go
 *    Decision provider clients
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/decisions/provider.go
 *
 *-------------------------------------------------------------------------
 */

package decisions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hoopsho/basecamp/internal/config"
)

/* ProviderResponse is the raw result of one model call */
type ProviderResponse struct {
	Content   string
	TokensIn  int
	TokensOut int
	LatencyMs int64
}

/*
 * Provider produces completions for decision prompts. The system
 * context frames the decision; the prompt carries the interpolated
 * step question. Implementations must distinguish transport failures
 * (returned as *TransportError) from well-formed responses whose
 * content the router cannot use.
 */
type Provider interface {
	Complete(ctx context.Context, model, systemContext, prompt string) (*ProviderResponse, error)
}

/* TransportError marks a failure to reach the provider at all */
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

/* HTTPProvider calls an OpenAI-compatible chat completions endpoint */
type HTTPProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

/* NewHTTPProvider builds a provider for one configured tier endpoint */
func NewHTTPProvider(tc config.TierConfig, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		endpoint: tc.Endpoint,
		apiKey:   os.Getenv(tc.APIKeyEnv),
		client:   &http.Client{Timeout: timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *HTTPProvider) Complete(ctx context.Context, model, systemContext, prompt string) (*ProviderResponse, error) {
	messages := []chatMessage{}
	if systemContext != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemContext})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: error=%w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build completion request: endpoint='%s', error=%w", p.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Err: fmt.Errorf("status=%d, body='%s'", resp.StatusCode, truncate(string(body), 200))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse completion response: error=%w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("failed to parse completion response: error=no choices returned")
	}

	return &ProviderResponse{
		Content:   parsed.Choices[0].Message.Content,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
