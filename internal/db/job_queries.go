/*-------------------------------------------------------------------------
 *
 * job_queries.go
 *    Database queries for the durable job queue
 *
 * Claiming uses FOR UPDATE SKIP LOCKED so concurrent workers never block
 * on each other and a job is handed to at most one worker at a time.
 * Delivery is still at-least-once: a worker crash after claim requeues
 * the job via the stale-running sweep.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/job_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

/* Job queue queries */
const (
	enqueueJobQuery = `
		INSERT INTO basecamp.jobs (type, status, priority, payload, run_at, max_retries)
		VALUES ($1, 'queued', $2, $3::jsonb, $4, $5)
		RETURNING id, created_at, updated_at`

	claimJobQuery = `
		UPDATE basecamp.jobs
		SET status = 'running', started_at = NOW(), updated_at = NOW()
		WHERE id = (
			SELECT id FROM basecamp.jobs
			WHERE status = 'queued' AND run_at <= NOW()
			ORDER BY priority DESC, run_at ASC, id ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	finishJobQuery = `
		UPDATE basecamp.jobs
		SET status = $2, error_message = $3, retry_count = $4, run_at = $5,
			completed_at = $6, updated_at = NOW()
		WHERE id = $1`

	requeueStaleJobsQuery = `
		UPDATE basecamp.jobs
		SET status = 'queued', updated_at = NOW()
		WHERE status = 'running' AND started_at < $1`

	listDeadJobsQuery = `
		SELECT * FROM basecamp.jobs
		WHERE status = 'dead'
		ORDER BY updated_at DESC
		LIMIT $1`
)

/* EnqueueJob inserts a queued job, optionally delayed until runAt */
func (q *Queries) EnqueueJob(ctx context.Context, j *Job) error {
	if j.RunAt.IsZero() {
		j.RunAt = time.Now()
	}
	if j.Payload == nil {
		j.Payload = make(JSONBMap)
	}
	err := q.DB.QueryRowContext(ctx, enqueueJobQuery,
		j.Type, j.Priority, j.Payload, j.RunAt, j.MaxRetries,
	).Scan(&j.ID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: type='%s', error=%w", j.Type, err)
	}
	j.Status = JobStatusQueued
	return nil
}

/* ClaimJob claims the next runnable job, nil when the queue is empty */
func (q *Queries) ClaimJob(ctx context.Context) (*Job, error) {
	var j Job
	if err := q.DB.GetContext(ctx, &j, claimJobQuery); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}
	return &j, nil
}

/* FinishJob writes a job's terminal or requeued state */
func (q *Queries) FinishJob(ctx context.Context, id int64, status string, errorMessage *string, retryCount int, runAt time.Time, completedAt *time.Time) error {
	if _, err := q.DB.ExecContext(ctx, finishJobQuery, id, status, errorMessage, retryCount, runAt, completedAt); err != nil {
		return fmt.Errorf("failed to finish job: id=%d, status='%s', error=%w", id, status, err)
	}
	return nil
}

/* RequeueStaleJobs puts back jobs whose worker died mid-run */
func (q *Queries) RequeueStaleJobs(ctx context.Context, startedBefore time.Time) (int64, error) {
	res, err := q.DB.ExecContext(ctx, requeueStaleJobsQuery, startedBefore)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale jobs: %w", err)
	}
	return res.RowsAffected()
}

/* ListDeadJobs lists dead-lettered jobs for manual inspection */
func (q *Queries) ListDeadJobs(ctx context.Context, limit int) ([]Job, error) {
	var jobs []Job
	if err := q.DB.SelectContext(ctx, &jobs, listDeadJobsQuery, limit); err != nil {
		return nil, fmt.Errorf("failed to list dead jobs: %w", err)
	}
	return jobs, nil
}
