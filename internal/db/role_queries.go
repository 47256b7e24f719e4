/*-------------------------------------------------------------------------
 *
 * role_queries.go
 *    Database queries for worker roles, cycle leases, and heartbeats
 *
 * The lease columns implement the role-scoped mutual exclusion for the
 * agent loop: a cycle only runs while it holds the lease, and an expired
 * lease can be taken over by any worker.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/role_queries.go
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

/* Worker role queries */
const (
	createWorkerRoleQuery = `
		INSERT INTO basecamp.worker_roles (name, enabled)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()
		RETURNING id, created_at, updated_at`

	getWorkerRoleQuery = `SELECT * FROM basecamp.worker_roles WHERE id = $1`

	getWorkerRoleByNameQuery = `SELECT * FROM basecamp.worker_roles WHERE name = $1`

	listEnabledRolesQuery = `
		SELECT * FROM basecamp.worker_roles
		WHERE enabled = true
		ORDER BY name ASC`

	acquireLeaseQuery = `
		UPDATE basecamp.worker_roles
		SET lease_holder = $2, lease_until = NOW() + $3 * INTERVAL '1 second', updated_at = NOW()
		WHERE id = $1 AND (lease_until IS NULL OR lease_until < NOW())`

	releaseLeaseQuery = `
		UPDATE basecamp.worker_roles
		SET lease_holder = NULL, lease_until = NULL, updated_at = NOW()
		WHERE id = $1 AND lease_holder = $2`

	recordHeartbeatQuery = `
		UPDATE basecamp.worker_roles
		SET last_heartbeat_at = NOW(), heartbeat_note = $2, updated_at = NOW()
		WHERE id = $1`

	listStaleHeartbeatsQuery = `
		SELECT * FROM basecamp.worker_roles
		WHERE enabled = true AND (last_heartbeat_at IS NULL OR last_heartbeat_at < $1)
		ORDER BY name ASC`
)

/* UpsertWorkerRole creates or re-enables a worker role by name */
func (q *Queries) UpsertWorkerRole(ctx context.Context, r *WorkerRole) error {
	err := q.DB.QueryRowContext(ctx, createWorkerRoleQuery, r.Name, r.Enabled).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert worker role: name='%s', error=%w", r.Name, err)
	}
	return nil
}

/* GetWorkerRole returns a worker role by id */
func (q *Queries) GetWorkerRole(ctx context.Context, id uuid.UUID) (*WorkerRole, error) {
	var r WorkerRole
	if err := q.DB.GetContext(ctx, &r, getWorkerRoleQuery, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get worker role: id='%s', error=%w", id, err)
	}
	return &r, nil
}

/* GetWorkerRoleByName returns a worker role by name */
func (q *Queries) GetWorkerRoleByName(ctx context.Context, name string) (*WorkerRole, error) {
	var r WorkerRole
	if err := q.DB.GetContext(ctx, &r, getWorkerRoleByNameQuery, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get worker role: name='%s', error=%w", name, err)
	}
	return &r, nil
}

/* ListEnabledRoles lists all enabled worker roles */
func (q *Queries) ListEnabledRoles(ctx context.Context) ([]WorkerRole, error) {
	var roles []WorkerRole
	if err := q.DB.SelectContext(ctx, &roles, listEnabledRolesQuery); err != nil {
		return nil, fmt.Errorf("failed to list worker roles: %w", err)
	}
	return roles, nil
}

/* AcquireRoleLease takes the role's cycle lease when it is free or expired */
func (q *Queries) AcquireRoleLease(ctx context.Context, roleID uuid.UUID, holder string, ttl time.Duration) (bool, error) {
	res, err := q.DB.ExecContext(ctx, acquireLeaseQuery, roleID, holder, int(ttl.Seconds()))
	if err != nil {
		return false, fmt.Errorf("failed to acquire role lease: role_id='%s', error=%w", roleID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

/* ReleaseRoleLease frees the lease if still held by this holder */
func (q *Queries) ReleaseRoleLease(ctx context.Context, roleID uuid.UUID, holder string) error {
	if _, err := q.DB.ExecContext(ctx, releaseLeaseQuery, roleID, holder); err != nil {
		return fmt.Errorf("failed to release role lease: role_id='%s', error=%w", roleID, err)
	}
	return nil
}

/* RecordHeartbeat stores the cycle heartbeat summary for liveness checks */
func (q *Queries) RecordHeartbeat(ctx context.Context, roleID uuid.UUID, note string) error {
	if _, err := q.DB.ExecContext(ctx, recordHeartbeatQuery, roleID, note); err != nil {
		return fmt.Errorf("failed to record heartbeat: role_id='%s', error=%w", roleID, err)
	}
	return nil
}

/* ListStaleHeartbeats lists enabled roles without a heartbeat since the cutoff */
func (q *Queries) ListStaleHeartbeats(ctx context.Context, cutoff time.Time) ([]WorkerRole, error) {
	var roles []WorkerRole
	if err := q.DB.SelectContext(ctx, &roles, listStaleHeartbeatsQuery, cutoff); err != nil {
		return nil, fmt.Errorf("failed to list stale heartbeats: %w", err)
	}
	return roles, nil
}
