/*-------------------------------------------------------------------------
 *
 * service.go
 *    External record store client
 *
 * HTTPService talks to the system-of-record API that conditional_query
 * and external_call steps consult. StaticService provides the same
 * surface over an in-memory fixture set for development installs.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/records/service.go
 *
 *-------------------------------------------------------------------------
 */

package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

/* Service is the record store surface shared by the engine and triggers */
type Service interface {
	Query(ctx context.Context, filters map[string]interface{}) ([]map[string]interface{}, error)
	Find(ctx context.Context, id string) (map[string]interface{}, error)
	Update(ctx context.Context, id string, attrs map[string]interface{}) (map[string]interface{}, error)
}

/* HTTPService queries an external record API */
type HTTPService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

/* NewHTTPService creates a new record service client */
func NewHTTPService(baseURL, apiKey string, timeout time.Duration) *HTTPService {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPService{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

/* Query lists records matching the given filters */
func (s *HTTPService) Query(ctx context.Context, filters map[string]interface{}) ([]map[string]interface{}, error) {
	params := url.Values{}
	for key, value := range filters {
		params.Set(key, fmt.Sprintf("%v", value))
	}
	endpoint := s.baseURL + "/records"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var result struct {
		Records []map[string]interface{} `json:"records"`
	}
	if err := s.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("record query failed: error=%w", err)
	}
	return result.Records, nil
}

/* Find fetches a single record by id */
func (s *HTTPService) Find(ctx context.Context, id string) (map[string]interface{}, error) {
	var record map[string]interface{}
	endpoint := s.baseURL + "/records/" + url.PathEscape(id)
	if err := s.do(ctx, http.MethodGet, endpoint, nil, &record); err != nil {
		return nil, fmt.Errorf("record lookup failed: id='%s', error=%w", id, err)
	}
	return record, nil
}

/* Update patches a record's attributes and returns the updated record */
func (s *HTTPService) Update(ctx context.Context, id string, attrs map[string]interface{}) (map[string]interface{}, error) {
	var record map[string]interface{}
	endpoint := s.baseURL + "/records/" + url.PathEscape(id)
	if err := s.do(ctx, http.MethodPatch, endpoint, attrs, &record); err != nil {
		return nil, fmt.Errorf("record update failed: id='%s', error=%w", id, err)
	}
	return record, nil
}

func (s *HTTPService) do(ctx context.Context, method, endpoint string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to serialize payload: error=%w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: error=%w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		if len(raw) > 200 {
			raw = raw[:200]
		}
		return fmt.Errorf("status=%d, body='%s'", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: error=%w", err)
		}
	}
	return nil
}
