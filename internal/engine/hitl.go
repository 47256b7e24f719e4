/*-------------------------------------------------------------------------
 *
 * hitl.go
 *    Human-in-the-loop response window policing
 *
 * A paused_human instance gets two response windows. After the first
 * an unanswered request triggers a reminder in the original thread;
 * after the second the pause is treated as a step failure and the
 * step's on_failure directive takes over.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/engine/hitl.go
 *
 *-------------------------------------------------------------------------
 */

package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/metrics"
)

/* HandleHumanReminder nudges an unanswered approval request */
func (e *Engine) HandleHumanReminder(ctx context.Context, instanceID uuid.UUID) error {
	inst, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to load instance: id='%s', error=%w", instanceID, err)
	}
	if inst == nil || inst.Status != db.InstanceStatusPausedHuman {
		return nil
	}

	text := fmt.Sprintf("Reminder: instance %s is still waiting for human input at step %d", inst.ID, inst.Position)
	if _, err := e.chat.PostMessage(ctx, e.cfg.EscalationChannel, text, inst.ThreadHandle); err != nil {
		return fmt.Errorf("failed to post human input reminder: id='%s', error=%w", inst.ID, err)
	}
	e.audit(ctx, inst.ID, &inst.Position, db.EventNote, "Human input reminder sent", nil)
	return nil
}

/*
 * HandleHumanExpiry fires after the second unanswered window. The
 * instance is woken and the paused step is failed, so recovery follows
 * whatever on_failure policy the step declares.
 */
func (e *Engine) HandleHumanExpiry(ctx context.Context, instanceID uuid.UUID) error {
	inst, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to load instance: id='%s', error=%w", instanceID, err)
	}
	if inst == nil || inst.Status != db.InstanceStatusPausedHuman {
		return nil
	}

	step, err := e.store.GetStepAtPosition(ctx, inst.DefinitionID, inst.Position)
	if err != nil {
		return fmt.Errorf("failed to load step: definition='%s', position=%d, error=%w", inst.DefinitionID, inst.Position, err)
	}

	ok, err := e.store.TransitionStatus(ctx, instanceID, db.InstanceStatusPausedHuman, db.InstanceStatusActive)
	if err != nil {
		return fmt.Errorf("failed to wake expired instance: id='%s', error=%w", instanceID, err)
	}
	if !ok {
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusActive)

	errMsg := fmt.Sprintf("human response window expired at step %d", inst.Position)
	e.audit(ctx, inst.ID, &inst.Position, db.EventStepFailed, errMsg, nil)
	log.Warn().Str("instance_id", inst.ID.String()).Int("position", inst.Position).Msg("Human response window expired")

	if step == nil {
		return e.terminateFailed(ctx, inst, inst.Position, errMsg)
	}
	directives, derr := parseStepDirectives(step)
	if derr != nil {
		return e.failInstance(ctx, inst, inst.Position, derr.Error())
	}
	return e.applyDirective(ctx, inst, step, inst.Position, directives.onFailure, errMsg)
}
