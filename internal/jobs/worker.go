/*-------------------------------------------------------------------------
 *
 * worker.go
 *    Concurrent job worker pool
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/jobs/worker.go
 *
 *-------------------------------------------------------------------------
 */

package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/metrics"
)

/*
 * Worker polls the queue with a pool of goroutines. Every unit of work
 * loads its state fresh from the database, so workers hold no
 * per-instance memory and can be scaled or restarted freely.
 */
type Worker struct {
	queue        *Queue
	processor    *Processor
	concurrency  int
	pollInterval time.Duration
	stop         chan struct{}
	wg           sync.WaitGroup
}

/* NewWorker builds a worker pool */
func NewWorker(queue *Queue, processor *Processor, concurrency int) *Worker {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Worker{
		queue:        queue,
		processor:    processor,
		concurrency:  concurrency,
		pollInterval: time.Second,
		stop:         make(chan struct{}),
	}
}

/* Start launches the pool */
func (w *Worker) Start() {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
	log.Info().Int("concurrency", w.concurrency).Msg("Job workers started")
}

/* Stop signals the pool and waits for in-flight jobs */
func (w *Worker) Stop() {
	close(w.stop)
	w.wg.Wait()
	log.Info().Msg("Job workers stopped")
}

func (w *Worker) run(id int) {
	defer w.wg.Done()
	for {
		select {
		case <-w.stop:
			return
		default:
		}

		ctx := context.Background()
		job, err := w.queue.Claim(ctx)
		if err != nil {
			log.Error().Err(err).Int("worker", id).Msg("Failed to claim job")
			w.sleep()
			continue
		}
		if job == nil {
			w.sleep()
			continue
		}

		w.process(ctx, id, job)
	}
}

func (w *Worker) process(ctx context.Context, workerID int, job *db.Job) {
	logger := log.With().
		Int("worker", workerID).
		Int64("job_id", job.ID).
		Str("job_type", job.Type).
		Logger()

	if err := w.processor.Process(ctx, job); err != nil {
		logger.Warn().Err(err).Int("retry_count", job.RetryCount).Msg("Job failed")
		metrics.RecordJobProcessed(job.Type, "failed")
		if ferr := w.queue.Fail(ctx, job, err); ferr != nil {
			logger.Error().Err(ferr).Msg("Failed to record job failure")
		}
		return
	}

	metrics.RecordJobProcessed(job.Type, "done")
	if err := w.queue.Complete(ctx, job); err != nil {
		logger.Error().Err(err).Msg("Failed to record job completion")
	}
}

func (w *Worker) sleep() {
	select {
	case <-w.stop:
	case <-time.After(w.pollInterval):
	}
}
