/*-------------------------------------------------------------------------
 *
 * scheduler.go
 *    Periodic job enqueuer for cycles, triggers, and maintenance
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/jobs/scheduler.go
 *
 *-------------------------------------------------------------------------
 */

package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
)

/*
 * Scheduler ticks on a fixed interval and enqueues one scheduler_cycle
 * job per enabled worker role. Overlap protection lives in the role
 * lease, not here; enqueuing a cycle for a role whose lease is held is
 * harmless. Stale running jobs are requeued on the same tick.
 */
type Scheduler struct {
	queue      *Queue
	queries    *db.Queries
	interval   time.Duration
	staleAfter time.Duration
	stop       chan struct{}
	done       chan struct{}
}

/* NewScheduler builds the periodic enqueuer */
func NewScheduler(queue *Queue, queries *db.Queries, interval, staleAfter time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &Scheduler{
		queue:      queue,
		queries:    queries,
		interval:   interval,
		staleAfter: staleAfter,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

/* Start launches the tick loop */
func (s *Scheduler) Start() {
	go s.run()
	log.Info().Dur("interval", s.interval).Msg("Job scheduler started")
}

/* Stop halts the tick loop */
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
	log.Info().Msg("Job scheduler stopped")
}

func (s *Scheduler) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.tick(context.Background())
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	roles, err := s.queries.ListEnabledRoles(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list enabled roles")
		return
	}
	for _, role := range roles {
		job := &db.Job{
			Type:    db.JobTypeSchedulerCycle,
			Status:  db.JobStatusQueued,
			Payload: db.JSONBMap{"role_id": role.ID.String()},
			RunAt:   time.Now(),
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			log.Error().Err(err).Str("role", role.Name).Msg("Failed to enqueue cycle")
		}
	}

	if n, err := s.queue.RequeueStale(ctx, s.staleAfter); err != nil {
		log.Error().Err(err).Msg("Failed to requeue stale jobs")
	} else if n > 0 {
		log.Warn().Int64("count", n).Msg("Requeued stale jobs")
	}
}
