/*-------------------------------------------------------------------------
 *
 * processor.go
 *    Job dispatch to the engine, scheduler, and trigger runner
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/jobs/processor.go
 *
 *-------------------------------------------------------------------------
 */

package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hoopsho/basecamp/internal/db"
)

/* Advancer is the execution engine surface jobs dispatch to */
type Advancer interface {
	Advance(ctx context.Context, instanceID uuid.UUID, stepPosition *int) error
	ResumeTimer(ctx context.Context, instanceID uuid.UUID) error
	HandleHumanReminder(ctx context.Context, instanceID uuid.UUID) error
	HandleHumanExpiry(ctx context.Context, instanceID uuid.UUID) error
}

/* CycleRunner runs one agent loop cycle */
type CycleRunner interface {
	RunCycle(ctx context.Context, roleID uuid.UUID) (string, error)
}

/* TriggerChecker evaluates one trigger check */
type TriggerChecker interface {
	RunCheck(ctx context.Context, check *db.TriggerCheck) (int, error)
}

/* TriggerLookup resolves trigger checks by id */
type TriggerLookup interface {
	GetTriggerCheck(ctx context.Context, id uuid.UUID) (*db.TriggerCheck, error)
}

/* Processor routes claimed jobs to their handlers */
type Processor struct {
	engine   Advancer
	cycles   CycleRunner
	triggers TriggerChecker
	lookup   TriggerLookup
}

/* NewProcessor builds a processor over the core components */
func NewProcessor(engine Advancer, cycles CycleRunner, triggers TriggerChecker, lookup TriggerLookup) *Processor {
	return &Processor{
		engine:   engine,
		cycles:   cycles,
		triggers: triggers,
		lookup:   lookup,
	}
}

/* Process executes one claimed job */
func (p *Processor) Process(ctx context.Context, job *db.Job) error {
	switch job.Type {
	case db.JobTypeAdvance:
		id, err := payloadUUID(job.Payload, "instance_id")
		if err != nil {
			return err
		}
		var position *int
		if pos, ok := payloadInt(job.Payload, "position"); ok {
			position = &pos
		}
		return p.engine.Advance(ctx, id, position)

	case db.JobTypeResumeTimer:
		id, err := payloadUUID(job.Payload, "instance_id")
		if err != nil {
			return err
		}
		return p.engine.ResumeTimer(ctx, id)

	case db.JobTypeHumanReminder:
		id, err := payloadUUID(job.Payload, "instance_id")
		if err != nil {
			return err
		}
		return p.engine.HandleHumanReminder(ctx, id)

	case db.JobTypeHumanExpiry:
		id, err := payloadUUID(job.Payload, "instance_id")
		if err != nil {
			return err
		}
		return p.engine.HandleHumanExpiry(ctx, id)

	case db.JobTypeSchedulerCycle:
		id, err := payloadUUID(job.Payload, "role_id")
		if err != nil {
			return err
		}
		_, err = p.cycles.RunCycle(ctx, id)
		return err

	case db.JobTypeTriggerCheck:
		id, err := payloadUUID(job.Payload, "trigger_id")
		if err != nil {
			return err
		}
		check, err := p.lookup.GetTriggerCheck(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load trigger check: id='%s', error=%w", id, err)
		}
		if check == nil || !check.Enabled {
			return nil
		}
		_, err = p.triggers.RunCheck(ctx, check)
		return err

	default:
		return fmt.Errorf("failed to process job: id=%d, type='%s', error=unknown job type", job.ID, job.Type)
	}
}

func payloadUUID(payload db.JSONBMap, key string) (uuid.UUID, error) {
	raw, ok := payload[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("failed to parse job payload: key='%s', error=missing", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse job payload: key='%s', error=%w", key, err)
	}
	return id, nil
}

func payloadInt(payload db.JSONBMap, key string) (int, bool) {
	switch v := payload[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}
