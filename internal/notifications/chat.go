/*-------------------------------------------------------------------------
 *
 * chat.go
 *    Chat notification service
 *
 * Posts channel messages and interactive approval requests to a chat
 * webhook endpoint. Thread handles returned by the first post in a
 * conversation keep every later notification in the same thread.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/notifications/chat.go
 *
 *-------------------------------------------------------------------------
 */

package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

/* ChatService posts messages to a chat webhook endpoint */
type ChatService struct {
	webhookURL string
	token      string
	httpClient *http.Client
}

/* NewChatService creates a new chat service */
func NewChatService(webhookURL, token string, timeout time.Duration) *ChatService {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ChatService{
		webhookURL: webhookURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type chatPayload struct {
	Channel      string   `json:"channel"`
	Text         string   `json:"text"`
	ThreadHandle string   `json:"thread_handle,omitempty"`
	Options      []string `json:"options,omitempty"`
	Interactive  bool     `json:"interactive,omitempty"`
}

type chatResponse struct {
	MessageHandle string `json:"message_handle"`
}

/* PostMessage posts a plain message and returns its handle */
func (c *ChatService) PostMessage(ctx context.Context, channel, text string, threadHandle *string) (string, error) {
	payload := chatPayload{Channel: channel, Text: text}
	if threadHandle != nil {
		payload.ThreadHandle = *threadHandle
	}
	return c.post(ctx, payload)
}

/* PostInteractive posts a message with response options and returns its handle */
func (c *ChatService) PostInteractive(ctx context.Context, channel, text string, options []string, threadHandle *string) (string, error) {
	payload := chatPayload{Channel: channel, Text: text, Options: options, Interactive: true}
	if threadHandle != nil {
		payload.ThreadHandle = *threadHandle
	}
	return c.post(ctx, payload)
}

func (c *ChatService) post(ctx context.Context, payload chatPayload) (string, error) {
	if c.webhookURL == "" {
		return "", fmt.Errorf("chat service not configured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("chat payload serialization failed: error=%w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("chat request creation failed: error=%w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat post failed: channel='%s', error=%w", payload.Channel, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat post failed: channel='%s', status=%d, body='%s'",
			payload.Channel, resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		/* a handle-less success still delivered the message */
		return "", nil
	}
	return parsed.MessageHandle, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
