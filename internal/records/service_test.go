/*-------------------------------------------------------------------------
 *
 * service_test.go
 *    Tests for the record store clients
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/records/service_test.go
 *
 *-------------------------------------------------------------------------
 */

package records

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

func TestHTTPQueryEncodesFilters(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("status")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []map[string]interface{}{
				{"id": "rec-1", "status": "overdue"},
				{"id": "rec-2", "status": "overdue"},
			},
		})
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, "api-key", 5*time.Second)
	recs, err := svc.Query(context.Background(), map[string]interface{}{"status": "overdue"})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, "/records", gotPath)
	assert.Equal(t, "overdue", gotQuery)
	assert.Equal(t, "Bearer api-key", gotAuth)
}

func TestHTTPFindAndUpdate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "rec-1", "status": "open"})
		case http.MethodPatch:
			var attrs map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&attrs))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "rec-1", "status": attrs["status"]})
		}
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, "", time.Second)

	rec, err := svc.Find(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "open", rec["status"])

	rec, err = svc.Update(context.Background(), "rec-1", map[string]interface{}{"status": "closed"})
	require.NoError(t, err)
	assert.Equal(t, "closed", rec["status"])
}

func TestHTTPNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "record missing", http.StatusNotFound)
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, "", time.Second)
	_, err := svc.Find(context.Background(), "no-such")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=404")
}

func TestStaticQueryMatchesAllFilters(t *testing.T) {
	svc := NewStaticService([]map[string]interface{}{
		{"id": "a", "status": "overdue", "region": "emea"},
		{"id": "b", "status": "overdue", "region": "apac"},
		{"id": "c", "status": "paid", "region": "emea"},
	})

	recs, err := svc.Query(context.Background(), map[string]interface{}{"status": "overdue", "region": "emea"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0]["id"])

	recs, err = svc.Query(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestStaticUpdateDoesNotLeakReferences(t *testing.T) {
	svc := NewStaticService([]map[string]interface{}{{"id": "a", "status": "open"}})

	rec, err := svc.Find(context.Background(), "a")
	require.NoError(t, err)
	rec["status"] = "mutated-by-caller"

	rec, err = svc.Find(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "open", rec["status"])

	_, err = svc.Update(context.Background(), "a", map[string]interface{}{"status": "closed"})
	require.NoError(t, err)

	rec, err = svc.Find(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "closed", rec["status"])
}

func TestStaticFindMissing(t *testing.T) {
	svc := NewStaticService(nil)
	_, err := svc.Find(context.Background(), "nope")
	require.Error(t, err)
}
