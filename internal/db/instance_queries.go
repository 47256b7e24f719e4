/*-------------------------------------------------------------------------
 *
 * instance_queries.go
 *    Database queries for procedure instances
 *
 * Provides query functions for instance state. Every mutation here is a
 * single-row guarded write: either a compare-and-swap on the optimistic
 * version counter (step claims) or a precondition on the status column
 * (lifecycle transitions). A stale guard means some other delivery of the
 * same work already won, and the caller treats it as a no-op.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/instance_queries.go
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

/* Instance queries */
const (
	createInstanceQuery = `
		INSERT INTO basecamp.procedure_instances
		(definition_id, worker_role_id, status, position, working_data, step_retries,
		 tier_floors, priority, parent_id, thread_handle)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8, $9, $10)
		RETURNING id, version, created_at, updated_at`

	getInstanceQuery = `SELECT * FROM basecamp.procedure_instances WHERE id = $1`

	claimAdvanceQuery = `
		UPDATE basecamp.procedure_instances
		SET status = 'active', position = $3, version = version + 1,
			started_at = COALESCE(started_at, NOW()), updated_at = NOW()
		WHERE id = $1 AND version = $2 AND status IN ('pending', 'active')`

	mergeWorkingDataQuery = `
		UPDATE basecamp.procedure_instances
		SET working_data = working_data || $2::jsonb, updated_at = NOW()
		WHERE id = $1`

	setStepRetriesQuery = `
		UPDATE basecamp.procedure_instances
		SET step_retries = $2::jsonb, updated_at = NOW()
		WHERE id = $1`

	setTierFloorsQuery = `
		UPDATE basecamp.procedure_instances
		SET tier_floors = $2::jsonb, updated_at = NOW()
		WHERE id = $1`

	transitionStatusQuery = `
		UPDATE basecamp.procedure_instances
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`

	terminateInstanceQuery = `
		UPDATE basecamp.procedure_instances
		SET status = $3, error_message = $4, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $2`

	setThreadHandleQuery = `
		UPDATE basecamp.procedure_instances
		SET thread_handle = $2, updated_at = NOW()
		WHERE id = $1`

	listInstancesByRoleStatusQuery = `
		SELECT * FROM basecamp.procedure_instances
		WHERE worker_role_id = $1 AND status = $2
		ORDER BY priority DESC, created_at ASC
		LIMIT $3`

	countInstancesByRoleStatusQuery = `
		SELECT COUNT(*) FROM basecamp.procedure_instances
		WHERE worker_role_id = $1 AND status = $2`

	listFailedSinceQuery = `
		SELECT * FROM basecamp.procedure_instances
		WHERE worker_role_id = $1 AND status = 'failed' AND updated_at >= $2
		ORDER BY created_at ASC`

	listPausedHumanBeforeQuery = `
		SELECT * FROM basecamp.procedure_instances
		WHERE worker_role_id = $1 AND status = 'paused_human' AND updated_at < $2
		ORDER BY created_at ASC`

	listInstancesQuery = `
		SELECT * FROM basecamp.procedure_instances
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
)

/* CreateInstance inserts a new instance */
func (q *Queries) CreateInstance(ctx context.Context, inst *ProcedureInstance) error {
	if inst.Status == "" {
		inst.Status = InstanceStatusPending
	}
	if inst.WorkingData == nil {
		inst.WorkingData = make(JSONBMap)
	}
	if inst.StepRetries == nil {
		inst.StepRetries = make(JSONBMap)
	}
	if inst.TierFloors == nil {
		inst.TierFloors = make(JSONBMap)
	}
	err := q.DB.QueryRowContext(ctx, createInstanceQuery,
		inst.DefinitionID, inst.WorkerRoleID, inst.Status, inst.Position,
		inst.WorkingData, inst.StepRetries, inst.TierFloors,
		inst.Priority, inst.ParentID, inst.ThreadHandle,
	).Scan(&inst.ID, &inst.Version, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create instance: definition_id='%s', error=%w", inst.DefinitionID, err)
	}
	return nil
}

/* GetInstance returns an instance by id */
func (q *Queries) GetInstance(ctx context.Context, id uuid.UUID) (*ProcedureInstance, error) {
	var inst ProcedureInstance
	if err := q.DB.GetContext(ctx, &inst, getInstanceQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get instance: id='%s', error=%w", id, err)
	}
	return &inst, nil
}

/*
 * ClaimAdvance attempts to take ownership of one step advance. Returns false
 * when the version is stale or the instance is not advanceable, which the
 * engine treats as a duplicate delivery and drops.
 */
func (q *Queries) ClaimAdvance(ctx context.Context, id uuid.UUID, expectedVersion, position int) (bool, error) {
	res, err := q.DB.ExecContext(ctx, claimAdvanceQuery, id, expectedVersion, position)
	if err != nil {
		return false, fmt.Errorf("failed to claim advance: id='%s', position=%d, error=%w", id, position, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim advance: id='%s', error=%w", id, err)
	}
	return n == 1, nil
}

/* MergeWorkingData appends/overwrites keys in working data; keys are never removed */
func (q *Queries) MergeWorkingData(ctx context.Context, id uuid.UUID, data map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if _, err := q.DB.ExecContext(ctx, mergeWorkingDataQuery, id, JSONBMap(data)); err != nil {
		return fmt.Errorf("failed to merge working data: id='%s', error=%w", id, err)
	}
	return nil
}

/* SetStepRetries replaces the engine-owned retry counter map */
func (q *Queries) SetStepRetries(ctx context.Context, id uuid.UUID, retries JSONBMap) error {
	if _, err := q.DB.ExecContext(ctx, setStepRetriesQuery, id, retries); err != nil {
		return fmt.Errorf("failed to set step retries: id='%s', error=%w", id, err)
	}
	return nil
}

/* SetTierFloors replaces the engine-owned tier floor map */
func (q *Queries) SetTierFloors(ctx context.Context, id uuid.UUID, floors JSONBMap) error {
	if _, err := q.DB.ExecContext(ctx, setTierFloorsQuery, id, floors); err != nil {
		return fmt.Errorf("failed to set tier floors: id='%s', error=%w", id, err)
	}
	return nil
}

/* TransitionStatus swaps status only when the expected status still holds */
func (q *Queries) TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	res, err := q.DB.ExecContext(ctx, transitionStatusQuery, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition instance: id='%s', from='%s', to='%s', error=%w", id, from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

/* TerminateInstance moves an instance into a terminal status with a guard */
func (q *Queries) TerminateInstance(ctx context.Context, id uuid.UUID, from, to string, errorMessage *string) (bool, error) {
	res, err := q.DB.ExecContext(ctx, terminateInstanceQuery, id, from, to, errorMessage)
	if err != nil {
		return false, fmt.Errorf("failed to terminate instance: id='%s', to='%s', error=%w", id, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

/* SetThreadHandle records the conversation thread handle for notifications */
func (q *Queries) SetThreadHandle(ctx context.Context, id uuid.UUID, handle string) error {
	if _, err := q.DB.ExecContext(ctx, setThreadHandleQuery, id, handle); err != nil {
		return fmt.Errorf("failed to set thread handle: id='%s', error=%w", id, err)
	}
	return nil
}

/* ListInstancesByRoleStatus lists a role's instances in scheduling order */
func (q *Queries) ListInstancesByRoleStatus(ctx context.Context, roleID uuid.UUID, status string, limit int) ([]ProcedureInstance, error) {
	var insts []ProcedureInstance
	if err := q.DB.SelectContext(ctx, &insts, listInstancesByRoleStatusQuery, roleID, status, limit); err != nil {
		return nil, fmt.Errorf("failed to list instances: role_id='%s', status='%s', error=%w", roleID, status, err)
	}
	return insts, nil
}

/* CountInstancesByRoleStatus counts a role's instances in one status */
func (q *Queries) CountInstancesByRoleStatus(ctx context.Context, roleID uuid.UUID, status string) (int, error) {
	var n int
	if err := q.DB.GetContext(ctx, &n, countInstancesByRoleStatusQuery, roleID, status); err != nil {
		return 0, fmt.Errorf("failed to count instances: role_id='%s', status='%s', error=%w", roleID, status, err)
	}
	return n, nil
}

/* ListFailedSince lists a role's recently failed instances */
func (q *Queries) ListFailedSince(ctx context.Context, roleID uuid.UUID, since time.Time) ([]ProcedureInstance, error) {
	var insts []ProcedureInstance
	if err := q.DB.SelectContext(ctx, &insts, listFailedSinceQuery, roleID, since); err != nil {
		return nil, fmt.Errorf("failed to list failed instances: role_id='%s', error=%w", roleID, err)
	}
	return insts, nil
}

/* ListPausedHumanBefore lists instances waiting on a human past the grace period */
func (q *Queries) ListPausedHumanBefore(ctx context.Context, roleID uuid.UUID, before time.Time) ([]ProcedureInstance, error) {
	var insts []ProcedureInstance
	if err := q.DB.SelectContext(ctx, &insts, listPausedHumanBeforeQuery, roleID, before); err != nil {
		return nil, fmt.Errorf("failed to list paused instances: role_id='%s', error=%w", roleID, err)
	}
	return insts, nil
}

/* ListInstances lists instances with an optional status filter */
func (q *Queries) ListInstances(ctx context.Context, status *string, limit, offset int) ([]ProcedureInstance, error) {
	var insts []ProcedureInstance
	if err := q.DB.SelectContext(ctx, &insts, listInstancesQuery, status, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	return insts, nil
}
