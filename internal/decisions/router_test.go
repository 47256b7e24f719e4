/*-------------------------------------------------------------------------
 *
 * router_test.go
 *    Tests for the tiered decision router
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/decisions/router_test.go
 *
 *-------------------------------------------------------------------------
 */

package decisions

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsho/basecamp/internal/config"
	"github.com/hoopsho/basecamp/internal/db"
)

/* scriptedProvider returns canned responses in order */
type scriptedProvider struct {
	responses      []*ProviderResponse
	errs           []error
	calls          int
	systemContexts []string
}

func (p *scriptedProvider) Complete(ctx context.Context, model, systemContext, prompt string) (*ProviderResponse, error) {
	i := p.calls
	p.calls++
	p.systemContexts = append(p.systemContexts, systemContext)
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return nil, errors.New("script exhausted")
}

/* memoryRecorder collects audit events in order */
type memoryRecorder struct {
	events []*db.AuditEvent
}

func (r *memoryRecorder) InsertAuditEvent(ctx context.Context, event *db.AuditEvent) error {
	r.events = append(r.events, event)
	return nil
}

func verdictResponse(action string, confidence float64) *ProviderResponse {
	return &ProviderResponse{
		Content:   fmt.Sprintf(`{"action": "%s", "confidence": %f, "reason": "test", "output": {"k": "v"}}`, action, confidence),
		TokensIn:  100,
		TokensOut: 20,
		LatencyMs: 5,
	}
}

func testLadder(t *testing.T) *Ladder {
	t.Helper()
	ladder, err := NewLadder([]config.TierConfig{
		{Name: "small", Model: "small-1", CostPerTokenIn: 0.000001, CostPerTokenOut: 0.000002},
		{Name: "medium", Model: "medium-1", CostPerTokenIn: 0.00001, CostPerTokenOut: 0.00002},
		{Name: "large", Model: "large-1", CostPerTokenIn: 0.0001, CostPerTokenOut: 0.0002},
	})
	require.NoError(t, err)
	return ladder
}

func TestRouterConfidentAtFirstTier(t *testing.T) {
	ladder := testLadder(t)
	recorder := &memoryRecorder{}
	tier0 := &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.92)}}
	tier1 := &scriptedProvider{}
	router := NewRouter(ladder, map[int]Provider{0: tier0, 1: tier1, 2: &scriptedProvider{}}, recorder, 0.7)

	decision, err := router.Decide(context.Background(), DecideRequest{
		InstanceID:   uuid.New(),
		StepPosition: 1,
		Prompt:       "decide",
		MinTier:      0,
		MaxTier:      2,
	})
	require.NoError(t, err)

	assert.Equal(t, "approve", decision.Action)
	assert.Equal(t, 0, decision.Tier)
	assert.Equal(t, []int{0}, decision.Chain)
	assert.False(t, decision.Escalated)
	assert.False(t, decision.NeedsHuman)
	assert.Equal(t, 100, decision.TokensIn)
	assert.Equal(t, 20, decision.TokensOut)
	assert.Zero(t, tier1.calls, "higher tiers must not be consulted")

	require.Len(t, recorder.events, 1)
	assert.Equal(t, db.EventDecisionCall, recorder.events[0].EventType)
}

func TestRouterEscalatesOnLowConfidence(t *testing.T) {
	ladder := testLadder(t)
	recorder := &memoryRecorder{}
	tier0 := &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.4)}}
	tier1 := &scriptedProvider{responses: []*ProviderResponse{verdictResponse("reject", 0.85)}}
	router := NewRouter(ladder, map[int]Provider{0: tier0, 1: tier1, 2: &scriptedProvider{}}, recorder, 0.7)

	decision, err := router.Decide(context.Background(), DecideRequest{
		InstanceID: uuid.New(),
		MinTier:    0,
		MaxTier:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, "reject", decision.Action)
	assert.Equal(t, 1, decision.Tier)
	assert.Equal(t, []int{0, 1}, decision.Chain)
	assert.True(t, decision.Escalated)
	assert.False(t, decision.NeedsHuman)
	assert.Equal(t, 200, decision.TokensIn)

	/* call, escalation, call */
	require.Len(t, recorder.events, 3)
	assert.Equal(t, db.EventDecisionCall, recorder.events[0].EventType)
	assert.Equal(t, db.EventDecisionEscalated, recorder.events[1].EventType)
	assert.Equal(t, db.EventDecisionCall, recorder.events[2].EventType)
}

func TestRouterExhaustedBelowThreshold(t *testing.T) {
	ladder := testLadder(t)
	recorder := &memoryRecorder{}
	providers := map[int]Provider{
		0: &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.3)}},
		1: &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.6)}},
		2: &scriptedProvider{responses: []*ProviderResponse{verdictResponse("reject", 0.5)}},
	}
	router := NewRouter(ladder, providers, recorder, 0.7)

	decision, err := router.Decide(context.Background(), DecideRequest{
		InstanceID: uuid.New(),
		MinTier:    0,
		MaxTier:    2,
	})
	require.NoError(t, err)

	assert.True(t, decision.NeedsHuman)
	assert.Equal(t, []int{0, 1, 2}, decision.Chain)
	/* best answer so far is still surfaced for the human reviewer */
	assert.Equal(t, "approve", decision.Action)
	assert.Equal(t, 0.6, decision.Confidence)
}

func TestRouterTransportErrorEscalates(t *testing.T) {
	ladder := testLadder(t)
	recorder := &memoryRecorder{}
	providers := map[int]Provider{
		0: &scriptedProvider{errs: []error{&TransportError{Err: errors.New("connection refused")}}},
		1: &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.9)}},
		2: &scriptedProvider{},
	}
	router := NewRouter(ladder, providers, recorder, 0.7)

	decision, err := router.Decide(context.Background(), DecideRequest{
		InstanceID: uuid.New(),
		MinTier:    0,
		MaxTier:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, "approve", decision.Action)
	assert.Equal(t, 1, decision.Tier)
	assert.Equal(t, []int{0, 1}, decision.Chain)

	/* the failed attempt still leaves both a call and an escalation event */
	var types []string
	for _, event := range recorder.events {
		types = append(types, event.EventType)
	}
	assert.Equal(t, []string{db.EventDecisionCall, db.EventDecisionEscalated, db.EventDecisionCall}, types)
}

func TestRouterUnparseableVerdictRecordsEscalation(t *testing.T) {
	ladder := testLadder(t)
	recorder := &memoryRecorder{}
	providers := map[int]Provider{
		0: &scriptedProvider{responses: []*ProviderResponse{{Content: "not json", TokensIn: 10, TokensOut: 5}}},
		1: &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.9)}},
		2: &scriptedProvider{},
	}
	router := NewRouter(ladder, providers, recorder, 0.7)

	decision, err := router.Decide(context.Background(), DecideRequest{
		InstanceID: uuid.New(),
		MinTier:    0,
		MaxTier:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, decision.Tier)

	var types []string
	for _, event := range recorder.events {
		types = append(types, event.EventType)
	}
	assert.Equal(t, []string{db.EventDecisionCall, db.EventDecisionEscalated, db.EventDecisionCall}, types)
}

func TestRouterThreadsSystemContext(t *testing.T) {
	ladder := testLadder(t)
	tier0 := &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.9)}}
	router := NewRouter(ladder, map[int]Provider{0: tier0, 1: &scriptedProvider{}, 2: &scriptedProvider{}}, &memoryRecorder{}, 0.7)

	_, err := router.Decide(context.Background(), DecideRequest{
		InstanceID:    uuid.New(),
		SystemContext: "You triage invoices.",
		Prompt:        "decide",
		MinTier:       0,
		MaxTier:       0,
	})
	require.NoError(t, err)
	require.Len(t, tier0.systemContexts, 1)
	assert.Equal(t, "You triage invoices.", tier0.systemContexts[0])
}

func TestRouterDefaultSystemContext(t *testing.T) {
	ladder := testLadder(t)
	tier0 := &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.9)}}
	router := NewRouter(ladder, map[int]Provider{0: tier0, 1: &scriptedProvider{}, 2: &scriptedProvider{}}, &memoryRecorder{}, 0.7)

	_, err := router.Decide(context.Background(), DecideRequest{
		InstanceID: uuid.New(),
		Prompt:     "decide",
		MinTier:    0,
		MaxTier:    0,
	})
	require.NoError(t, err)
	require.Len(t, tier0.systemContexts, 1)
	assert.Equal(t, defaultSystemContext, tier0.systemContexts[0])
}

func TestRouterAllTiersFail(t *testing.T) {
	ladder := testLadder(t)
	recorder := &memoryRecorder{}
	providers := map[int]Provider{
		0: &scriptedProvider{errs: []error{&TransportError{Err: errors.New("down")}}},
		1: &scriptedProvider{errs: []error{&TransportError{Err: errors.New("down")}}},
		2: &scriptedProvider{errs: []error{&TransportError{Err: errors.New("down")}}},
	}
	router := NewRouter(ladder, providers, recorder, 0.7)

	decision, err := router.Decide(context.Background(), DecideRequest{
		InstanceID: uuid.New(),
		MinTier:    0,
		MaxTier:    2,
	})
	require.Error(t, err)
	require.NotNil(t, decision)
	assert.True(t, decision.NeedsHuman)
	assert.Equal(t, []int{0, 1, 2}, decision.Chain)
}

func TestRouterRespectsMinTier(t *testing.T) {
	ladder := testLadder(t)
	recorder := &memoryRecorder{}
	tier0 := &scriptedProvider{}
	tier1 := &scriptedProvider{responses: []*ProviderResponse{verdictResponse("approve", 0.9)}}
	router := NewRouter(ladder, map[int]Provider{0: tier0, 1: tier1, 2: &scriptedProvider{}}, recorder, 0.7)

	decision, err := router.Decide(context.Background(), DecideRequest{
		InstanceID: uuid.New(),
		MinTier:    1,
		MaxTier:    2,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, decision.Tier)
	assert.Equal(t, []int{1}, decision.Chain)
	assert.Zero(t, tier0.calls, "tiers below the floor must be skipped")
}

func TestParseVerdict(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		v, err := parseVerdict(`{"action": "approve", "confidence": 0.8}`)
		require.NoError(t, err)
		assert.Equal(t, "approve", v.Action)
		assert.Equal(t, 0.8, v.Confidence)
	})

	t.Run("fenced json", func(t *testing.T) {
		v, err := parseVerdict("```json\n{\"action\": \"reject\", \"confidence\": 0.6}\n```")
		require.NoError(t, err)
		assert.Equal(t, "reject", v.Action)
	})

	t.Run("missing action", func(t *testing.T) {
		_, err := parseVerdict(`{"confidence": 0.8}`)
		assert.Error(t, err)
	})

	t.Run("confidence out of range", func(t *testing.T) {
		_, err := parseVerdict(`{"action": "approve", "confidence": 1.5}`)
		assert.Error(t, err)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := parseVerdict("I would approve this request.")
		assert.Error(t, err)
	})
}
