/*-------------------------------------------------------------------------
 *
 * router.go
 *    Tiered decision router with confidence-gated escalation
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/decisions/router.go
 *
 *-------------------------------------------------------------------------
 */

package decisions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/metrics"
)

/* EventRecorder appends audit events; satisfied by *db.Queries */
type EventRecorder interface {
	InsertAuditEvent(ctx context.Context, event *db.AuditEvent) error
}

/* DecideRequest is one decision the router must resolve */
type DecideRequest struct {
	InstanceID    uuid.UUID
	StepPosition  int
	SystemContext string
	Prompt        string
	MinTier       int
	MaxTier       int
}

/* defaultSystemContext frames every decision when the step supplies none */
const defaultSystemContext = `You are a decision engine inside an automated procedure. ` +
	`Answer with a single JSON object: {"action": "<verb>", "confidence": <0.0-1.0>, ` +
	`"reason": "<short justification>", "output": {<structured result>}}. No other text.`

/*
 * Decision is the router's verdict. NeedsHuman is set when every tier
 * up to MaxTier answered below the confidence threshold, or when the
 * final tier could not produce a usable answer at all.
 */
type Decision struct {
	Action     string
	Output     map[string]interface{}
	Reason     string
	Confidence float64
	Tier       int
	Chain      []int
	TokensIn   int
	TokensOut  int
	Cost       float64
	Escalated  bool
	NeedsHuman bool
}

/*
 * Router walks the tier ladder from cheap to expensive. Each tier is
 * asked once; an answer at or above the threshold wins. Below-threshold
 * answers and provider failures escalate to the next tier. Every call
 * is recorded as an audit event before the router moves on.
 */
type Router struct {
	ladder    *Ladder
	providers map[int]Provider
	recorder  EventRecorder
	threshold float64
}

/* NewRouter builds a router over per-tier providers */
func NewRouter(ladder *Ladder, providers map[int]Provider, recorder EventRecorder, threshold float64) *Router {
	return &Router{
		ladder:    ladder,
		providers: providers,
		recorder:  recorder,
		threshold: threshold,
	}
}

/* Threshold returns the configured confidence threshold */
func (r *Router) Threshold() float64 {
	return r.threshold
}

/* MaxTierIndex returns the highest tier index in the ladder */
func (r *Router) MaxTierIndex() int {
	return r.ladder.Len() - 1
}

/*
 * Decide resolves one decision request. It never returns an error for
 * low confidence; only when no tier in range produced a parseable
 * answer does the caller get a Decision with NeedsHuman set alongside
 * the last error.
 */
func (r *Router) Decide(ctx context.Context, req DecideRequest) (*Decision, error) {
	start := r.ladder.Clamp(req.MinTier)
	end := r.ladder.Clamp(req.MaxTier)
	if end < start {
		end = start
	}

	systemContext := req.SystemContext
	if systemContext == "" {
		systemContext = defaultSystemContext
	}

	var (
		chain     []int
		best      *Decision
		lastErr   error
		totalIn   int
		totalOut  int
		totalCost float64
	)

	for idx := start; idx <= end; idx++ {
		tier, err := r.ladder.Tier(idx)
		if err != nil {
			return nil, err
		}
		provider, ok := r.providers[idx]
		if !ok {
			return nil, fmt.Errorf("failed to route decision: tier=%d, error=no provider configured", idx)
		}

		chain = append(chain, idx)
		resp, err := provider.Complete(ctx, tier.Model, systemContext, req.Prompt)
		if err != nil {
			var te *TransportError
			status := "content_error"
			if errors.As(err, &te) {
				status = "transport_error"
			}
			metrics.RecordDecisionCall(idx, status, 0, 0)
			r.recordCall(ctx, req, idx, nil, nil, chain, fmt.Sprintf("Decision call failed at tier %s: %v", tier.Name, err))
			log.Warn().
				Str("instance_id", req.InstanceID.String()).
				Int("tier", idx).
				Err(err).
				Msg("Decision provider call failed")
			lastErr = err
			if idx < end {
				metrics.RecordDecisionEscalation(idx, idx+1)
				r.recordEscalation(ctx, req, idx, nil, chain,
					fmt.Sprintf("Provider error at tier %s, escalating to tier %d", tier.Name, idx+1))
			}
			continue
		}

		totalIn += resp.TokensIn
		totalOut += resp.TokensOut
		totalCost += tier.Cost(resp.TokensIn, resp.TokensOut)

		verdict, err := parseVerdict(resp.Content)
		if err != nil {
			metrics.RecordDecisionCall(idx, "content_error", resp.TokensIn, resp.TokensOut)
			r.recordCall(ctx, req, idx, resp, nil, chain, fmt.Sprintf("Unparseable decision at tier %s: %v", tier.Name, err))
			lastErr = err
			if idx < end {
				metrics.RecordDecisionEscalation(idx, idx+1)
				r.recordEscalation(ctx, req, idx, nil, chain,
					fmt.Sprintf("Unparseable verdict at tier %s, escalating to tier %d", tier.Name, idx+1))
			}
			continue
		}

		metrics.RecordDecisionCall(idx, "ok", resp.TokensIn, resp.TokensOut)
		r.recordCall(ctx, req, idx, resp, verdict, chain,
			fmt.Sprintf("Decision at tier %s: action='%s', confidence=%.2f", tier.Name, verdict.Action, verdict.Confidence))

		if best == nil || verdict.Confidence > best.Confidence {
			best = &Decision{
				Action:     verdict.Action,
				Output:     verdict.Output,
				Reason:     verdict.Reason,
				Confidence: verdict.Confidence,
				Tier:       idx,
			}
		}

		if verdict.Confidence >= r.threshold {
			best = &Decision{
				Action:     verdict.Action,
				Output:     verdict.Output,
				Reason:     verdict.Reason,
				Confidence: verdict.Confidence,
				Tier:       idx,
			}
			break
		}

		if idx < end {
			metrics.RecordDecisionEscalation(idx, idx+1)
			r.recordEscalation(ctx, req, idx, &verdict.Confidence, chain,
				fmt.Sprintf("Confidence %.2f below threshold %.2f, escalating to tier %d", verdict.Confidence, r.threshold, idx+1))
		}
	}

	if best == nil {
		return &Decision{
			Chain:      chain,
			TokensIn:   totalIn,
			TokensOut:  totalOut,
			Cost:       totalCost,
			NeedsHuman: true,
		}, fmt.Errorf("failed to resolve decision: instance='%s', tiers=%v, error=%w", req.InstanceID, chain, lastErr)
	}

	best.Chain = chain
	best.TokensIn = totalIn
	best.TokensOut = totalOut
	best.Cost = totalCost
	best.Escalated = len(chain) > 1
	best.NeedsHuman = best.Confidence < r.threshold
	return best, nil
}

/* verdict is the JSON shape every decision provider must answer with */
type verdict struct {
	Action     string                 `json:"action"`
	Confidence float64                `json:"confidence"`
	Reason     string                 `json:"reason"`
	Output     map[string]interface{} `json:"output"`
}

/*
 * parseVerdict extracts the decision JSON from provider content.
 * Providers sometimes wrap JSON in code fences; strip those before
 * decoding.
 */
func parseVerdict(content string) (*verdict, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var v verdict
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, fmt.Errorf("failed to parse decision verdict: error=%w", err)
	}
	if v.Action == "" {
		return nil, fmt.Errorf("failed to parse decision verdict: error=missing action")
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return nil, fmt.Errorf("failed to parse decision verdict: confidence=%f, error=out of range", v.Confidence)
	}
	return &v, nil
}

func (r *Router) recordCall(ctx context.Context, req DecideRequest, tier int, resp *ProviderResponse, v *verdict, chain []int, summary string) {
	event := &db.AuditEvent{
		InstanceID:      req.InstanceID,
		StepPosition:    intPtr(req.StepPosition),
		EventType:       db.EventDecisionCall,
		Tier:            intPtr(tier),
		EscalationChain: toInt64Array(chain),
		Summary:         summary,
		Detail:          db.JSONBMap{},
	}
	if resp != nil {
		event.TokensIn = intPtr(resp.TokensIn)
		event.TokensOut = intPtr(resp.TokensOut)
		latency := int(resp.LatencyMs)
		event.LatencyMs = &latency
	}
	if v != nil {
		event.Confidence = &v.Confidence
		event.Detail = db.JSONBMap{"action": v.Action, "reason": v.Reason}
	}
	if err := r.recorder.InsertAuditEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("instance_id", req.InstanceID.String()).Msg("Failed to record decision audit event")
	}
}

func (r *Router) recordEscalation(ctx context.Context, req DecideRequest, fromTier int, confidence *float64, chain []int, summary string) {
	event := &db.AuditEvent{
		InstanceID:      req.InstanceID,
		StepPosition:    intPtr(req.StepPosition),
		EventType:       db.EventDecisionEscalated,
		Tier:            intPtr(fromTier),
		Confidence:      confidence,
		EscalationChain: toInt64Array(chain),
		Summary:         summary,
		Detail:          db.JSONBMap{},
	}
	if err := r.recorder.InsertAuditEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("instance_id", req.InstanceID.String()).Msg("Failed to record escalation audit event")
	}
}

func intPtr(v int) *int {
	return &v
}

func toInt64Array(chain []int) pq.Int64Array {
	out := make(pq.Int64Array, len(chain))
	for i, v := range chain {
		out[i] = int64(v)
	}
	return out
}
