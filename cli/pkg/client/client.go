/*-------------------------------------------------------------------------
 *
 * client.go
 *    HTTP API client for basecamp-cli
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    cli/pkg/client/client.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

/* Client talks to the Basecamp HTTP API */
type Client struct {
	baseURL    string
	httpClient *http.Client
}

/* NewClient creates a new API client */
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

/* CreateDefinition uploads a procedure definition */
func (c *Client) CreateDefinition(body map[string]interface{}) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(http.MethodPost, "/api/v1/definitions", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* ActivateDefinition marks a definition active */
func (c *Client) ActivateDefinition(id string) error {
	return c.do(http.MethodPut, "/api/v1/definitions/"+id+"/status", map[string]interface{}{"status": "active"}, nil)
}

/* ListDefinitions fetches all definitions */
func (c *Client) ListDefinitions() ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	if err := c.do(http.MethodGet, "/api/v1/definitions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* CreateInstance starts a new procedure instance */
func (c *Client) CreateInstance(slug string, seed map[string]interface{}, priority int) (map[string]interface{}, error) {
	var out map[string]interface{}
	body := map[string]interface{}{
		"definition_slug": slug,
		"seed_data":       seed,
		"priority":        priority,
	}
	if err := c.do(http.MethodPost, "/api/v1/instances", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* ListInstances fetches instances, optionally filtered by status */
func (c *Client) ListInstances(status string) ([]map[string]interface{}, error) {
	path := "/api/v1/instances"
	if status != "" {
		path += "?status=" + status
	}
	var out []map[string]interface{}
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* GetInstance fetches a single instance */
func (c *Client) GetInstance(id string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := c.do(http.MethodGet, "/api/v1/instances/"+id, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* GetAuditTrail fetches an instance's audit events */
func (c *Client) GetAuditTrail(id string) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	if err := c.do(http.MethodGet, "/api/v1/instances/"+id+"/audit", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

/* ResumeInstance delivers a human response to a paused instance */
func (c *Client) ResumeInstance(id string, data map[string]interface{}) error {
	return c.do(http.MethodPost, "/api/v1/instances/"+id+"/resume", map[string]interface{}{"response_data": data}, nil)
}

func (c *Client) do(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to serialize request: error=%w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: error=%w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: path='%s', error=%w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed: path='%s', status=%d, body='%s'", path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: path='%s', error=%w", path, err)
		}
	}
	return nil
}
