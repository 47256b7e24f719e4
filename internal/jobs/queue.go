/*-------------------------------------------------------------------------
 *
 * queue.go
 *    Durable job queue over Postgres
 *
 * At-least-once delivery: claims use FOR UPDATE SKIP LOCKED, failures
 * are retried with exponential backoff up to the job's retry ceiling,
 * then dead-lettered for manual inspection.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/jobs/queue.go
 *
 *-------------------------------------------------------------------------
 */

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/hoopsho/basecamp/internal/db"
)

/* Queue wraps the job table operations */
type Queue struct {
	queries   *db.Queries
	retryBase time.Duration
}

/* NewQueue builds a queue over the shared query layer */
func NewQueue(queries *db.Queries) *Queue {
	return &Queue{
		queries:   queries,
		retryBase: 5 * time.Second,
	}
}

/* Enqueue adds one job, honoring its RunAt for delayed dispatch */
func (q *Queue) Enqueue(ctx context.Context, job *db.Job) error {
	if job.Status == "" {
		job.Status = db.JobStatusQueued
	}
	if job.RunAt.IsZero() {
		job.RunAt = time.Now()
	}
	if err := q.queries.EnqueueJob(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue job: type='%s', error=%w", job.Type, err)
	}
	return nil
}

/* Claim takes the next due job, or nil when the queue is empty */
func (q *Queue) Claim(ctx context.Context) (*db.Job, error) {
	job, err := q.queries.ClaimJob(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: error=%w", err)
	}
	return job, nil
}

/* Complete marks a claimed job done */
func (q *Queue) Complete(ctx context.Context, job *db.Job) error {
	now := time.Now()
	if err := q.queries.FinishJob(ctx, job.ID, db.JobStatusDone, nil, job.RetryCount, job.RunAt, &now); err != nil {
		return fmt.Errorf("failed to complete job: id=%d, error=%w", job.ID, err)
	}
	return nil
}

/*
 * Fail either requeues the job with backoff or dead-letters it once
 * the retry ceiling is reached.
 */
func (q *Queue) Fail(ctx context.Context, job *db.Job, jobErr error) error {
	msg := jobErr.Error()
	retryCount := job.RetryCount + 1

	if retryCount > job.MaxRetries {
		now := time.Now()
		if err := q.queries.FinishJob(ctx, job.ID, db.JobStatusDead, &msg, retryCount, job.RunAt, &now); err != nil {
			return fmt.Errorf("failed to dead-letter job: id=%d, error=%w", job.ID, err)
		}
		return nil
	}

	backoff := q.retryBase * time.Duration(1<<retryCount)
	runAt := time.Now().Add(backoff)
	if err := q.queries.FinishJob(ctx, job.ID, db.JobStatusQueued, &msg, retryCount, runAt, nil); err != nil {
		return fmt.Errorf("failed to requeue job: id=%d, error=%w", job.ID, err)
	}
	return nil
}

/* RequeueStale recovers jobs abandoned by crashed workers */
func (q *Queue) RequeueStale(ctx context.Context, staleAfter time.Duration) (int64, error) {
	n, err := q.queries.RequeueStaleJobs(ctx, time.Now().Add(-staleAfter))
	if err != nil {
		return 0, fmt.Errorf("failed to requeue stale jobs: error=%w", err)
	}
	return n, nil
}

/* DeadLetters lists dead jobs for manual inspection */
func (q *Queue) DeadLetters(ctx context.Context, limit int) ([]db.Job, error) {
	return q.queries.ListDeadJobs(ctx, limit)
}
