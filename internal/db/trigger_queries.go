/*-------------------------------------------------------------------------
 *
 * trigger_queries.go
 *    Database queries for trigger checks
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/trigger_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

/* Trigger check queries */
const (
	createTriggerCheckQuery = `
		INSERT INTO basecamp.trigger_checks
		(worker_role_id, name, trigger_type, definition_slug, config, interval_seconds, enabled)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)
		RETURNING id, created_at, updated_at`

	getTriggerCheckQuery = `SELECT * FROM basecamp.trigger_checks WHERE id = $1`

	listTriggerChecksQuery = `
		SELECT * FROM basecamp.trigger_checks
		WHERE worker_role_id = $1
		ORDER BY name ASC`

	listDueTriggerChecksQuery = `
		SELECT * FROM basecamp.trigger_checks
		WHERE worker_role_id = $1 AND enabled = true
		AND (last_checked_at IS NULL OR last_checked_at + interval_seconds * INTERVAL '1 second' <= $2)
		ORDER BY last_checked_at ASC NULLS FIRST`

	markTriggerCheckedQuery = `
		UPDATE basecamp.trigger_checks
		SET last_checked_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	markTriggerFiredQuery = `
		UPDATE basecamp.trigger_checks
		SET last_checked_at = NOW(), last_fired_at = NOW(), updated_at = NOW()
		WHERE id = $1`
)

/* CreateTriggerCheck inserts a trigger check */
func (q *Queries) CreateTriggerCheck(ctx context.Context, t *TriggerCheck) error {
	err := q.DB.QueryRowContext(ctx, createTriggerCheckQuery,
		t.WorkerRoleID, t.Name, t.TriggerType, t.DefinitionSlug, t.Config, t.IntervalSeconds, t.Enabled,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trigger check: name='%s', error=%w", t.Name, err)
	}
	return nil
}

/* GetTriggerCheck returns a trigger check by id */
func (q *Queries) GetTriggerCheck(ctx context.Context, id uuid.UUID) (*TriggerCheck, error) {
	var t TriggerCheck
	if err := q.DB.GetContext(ctx, &t, getTriggerCheckQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get trigger check: id='%s', error=%w", id, err)
	}
	return &t, nil
}

/* ListTriggerChecks lists a role's trigger checks */
func (q *Queries) ListTriggerChecks(ctx context.Context, roleID uuid.UUID) ([]TriggerCheck, error) {
	var checks []TriggerCheck
	if err := q.DB.SelectContext(ctx, &checks, listTriggerChecksQuery, roleID); err != nil {
		return nil, fmt.Errorf("failed to list trigger checks: role_id='%s', error=%w", roleID, err)
	}
	return checks, nil
}

/* ListDueTriggerChecks lists a role's trigger checks due at the given time */
func (q *Queries) ListDueTriggerChecks(ctx context.Context, roleID uuid.UUID, now time.Time) ([]TriggerCheck, error) {
	var checks []TriggerCheck
	if err := q.DB.SelectContext(ctx, &checks, listDueTriggerChecksQuery, roleID, now); err != nil {
		return nil, fmt.Errorf("failed to list due trigger checks: role_id='%s', error=%w", roleID, err)
	}
	return checks, nil
}

/* MarkTriggerChecked stamps a check as run without firing */
func (q *Queries) MarkTriggerChecked(ctx context.Context, id uuid.UUID) error {
	if _, err := q.DB.ExecContext(ctx, markTriggerCheckedQuery, id); err != nil {
		return fmt.Errorf("failed to mark trigger checked: id='%s', error=%w", id, err)
	}
	return nil
}

/* MarkTriggerFired stamps a check as run and fired */
func (q *Queries) MarkTriggerFired(ctx context.Context, id uuid.UUID) error {
	if _, err := q.DB.ExecContext(ctx, markTriggerFiredQuery, id); err != nil {
		return fmt.Errorf("failed to mark trigger fired: id='%s', error=%w", id, err)
	}
	return nil
}
