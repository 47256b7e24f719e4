/*-------------------------------------------------------------------------
 *
 * audit_queries.go
 *    Database queries for the audit log
 *
 * The audit log is append-only: this file deliberately contains no UPDATE
 * or DELETE statements. It is the sole source of historical truth and the
 * basis for cost accounting.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/audit_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

/* Audit queries */
const (
	insertAuditEventQuery = `
		INSERT INTO basecamp.audit_events
		(instance_id, step_position, event_type, tier, confidence, tokens_in,
		 tokens_out, latency_ms, escalation_chain, summary, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)
		RETURNING id, created_at`

	listAuditEventsQuery = `
		SELECT * FROM basecamp.audit_events
		WHERE instance_id = $1
		ORDER BY id ASC`

	listAuditEventsByTypeQuery = `
		SELECT * FROM basecamp.audit_events
		WHERE instance_id = $1 AND event_type = $2
		ORDER BY id ASC`

	instanceTokenUsageQuery = `
		SELECT tier, COALESCE(SUM(tokens_in), 0) AS tokens_in, COALESCE(SUM(tokens_out), 0) AS tokens_out
		FROM basecamp.audit_events
		WHERE instance_id = $1 AND event_type = 'decision_call' AND tier IS NOT NULL
		GROUP BY tier
		ORDER BY tier ASC`
)

/* TierUsage aggregates token counts for one decision tier */
type TierUsage struct {
	Tier      int `db:"tier"`
	TokensIn  int `db:"tokens_in"`
	TokensOut int `db:"tokens_out"`
}

/* InsertAuditEvent appends one audit event */
func (q *Queries) InsertAuditEvent(ctx context.Context, e *AuditEvent) error {
	err := q.DB.QueryRowContext(ctx, insertAuditEventQuery,
		e.InstanceID, e.StepPosition, e.EventType, e.Tier, e.Confidence,
		e.TokensIn, e.TokensOut, e.LatencyMs, e.EscalationChain, e.Summary, e.Detail,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit event: instance_id='%s', type='%s', error=%w", e.InstanceID, e.EventType, err)
	}
	return nil
}

/* ListAuditEvents returns an instance's full audit trail in order */
func (q *Queries) ListAuditEvents(ctx context.Context, instanceID uuid.UUID) ([]AuditEvent, error) {
	var events []AuditEvent
	if err := q.DB.SelectContext(ctx, &events, listAuditEventsQuery, instanceID); err != nil {
		return nil, fmt.Errorf("failed to list audit events: instance_id='%s', error=%w", instanceID, err)
	}
	return events, nil
}

/* ListAuditEventsByType returns an instance's events of one type in order */
func (q *Queries) ListAuditEventsByType(ctx context.Context, instanceID uuid.UUID, eventType string) ([]AuditEvent, error) {
	var events []AuditEvent
	if err := q.DB.SelectContext(ctx, &events, listAuditEventsByTypeQuery, instanceID, eventType); err != nil {
		return nil, fmt.Errorf("failed to list audit events: instance_id='%s', type='%s', error=%w", instanceID, eventType, err)
	}
	return events, nil
}

/* InstanceTokenUsage sums decision-call token counts per tier */
func (q *Queries) InstanceTokenUsage(ctx context.Context, instanceID uuid.UUID) ([]TierUsage, error) {
	var usage []TierUsage
	if err := q.DB.SelectContext(ctx, &usage, instanceTokenUsageQuery, instanceID); err != nil {
		return nil, fmt.Errorf("failed to sum token usage: instance_id='%s', error=%w", instanceID, err)
	}
	return usage, nil
}
