/*-------------------------------------------------------------------------
 *
 * chat_test.go
 *    Tests for the chat notification service
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/notifications/chat_test.go
 *
 *-------------------------------------------------------------------------
 */

package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostMessageReturnsHandle(t *testing.T) {
	var got chatPayload
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{MessageHandle: "msg-123"})
	}))
	defer server.Close()

	svc := NewChatService(server.URL, "secret-token", 5*time.Second)
	handle, err := svc.PostMessage(context.Background(), "ops-escalations", "instance failed", nil)
	require.NoError(t, err)
	assert.Equal(t, "msg-123", handle)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "ops-escalations", got.Channel)
	assert.Equal(t, "instance failed", got.Text)
	assert.False(t, got.Interactive)
	assert.Empty(t, got.ThreadHandle)
}

func TestPostMessageThreadsReplies(t *testing.T) {
	var got chatPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{MessageHandle: "msg-456"})
	}))
	defer server.Close()

	svc := NewChatService(server.URL, "", time.Second)
	thread := "thread-1"
	_, err := svc.PostMessage(context.Background(), "general", "followup", &thread)
	require.NoError(t, err)
	assert.Equal(t, "thread-1", got.ThreadHandle)
}

func TestPostInteractiveCarriesOptions(t *testing.T) {
	var got chatPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{MessageHandle: "msg-789"})
	}))
	defer server.Close()

	svc := NewChatService(server.URL, "", time.Second)
	handle, err := svc.PostInteractive(context.Background(), "approvals", "approve refund?", []string{"approve", "reject"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "msg-789", handle)
	assert.True(t, got.Interactive)
	assert.Equal(t, []string{"approve", "reject"}, got.Options)
}

func TestPostMessageNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "channel_not_found", http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewChatService(server.URL, "", time.Second)
	_, err := svc.PostMessage(context.Background(), "missing", "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestPostMessageUnparsableBodyStillSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	svc := NewChatService(server.URL, "", time.Second)
	handle, err := svc.PostMessage(context.Background(), "general", "hello", nil)
	require.NoError(t, err)
	assert.Empty(t, handle)
}

func TestPostMessageUnconfigured(t *testing.T) {
	svc := NewChatService("", "", time.Second)
	_, err := svc.PostMessage(context.Background(), "general", "hello", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSendTemplatedValidation(t *testing.T) {
	m := NewEmailMessenger("smtp.example.com", 587, "user", "pass", "noreply@example.com")
	m.RegisterTemplate("reminder", Template{Subject: "Reminder: {{topic}}", Body: "Please review {{topic}}."})

	_, err := m.SendTemplated(context.Background(), "not-an-address", "reminder", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email address")

	_, err = m.SendTemplated(context.Background(), "ops@example.com", "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown email template")
}

func TestSendTemplatedDisabledWhenUnconfigured(t *testing.T) {
	m := NewEmailMessenger("", 0, "", "", "")
	_, err := m.SendTemplated(context.Background(), "ops@example.com", "reminder", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
