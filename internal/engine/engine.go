/*-------------------------------------------------------------------------
 *
 * engine.go
 *    Task execution engine: the step interpreter
 *
 * Advances one procedure instance by exactly one step per invocation:
 * claim the instance under an optimistic version guard, dispatch the
 * step to its typed handler inside a timeout wrapper, then resolve the
 * outcome through the step's directives. Suspension (human input,
 * timers) is implemented by not enqueuing further work, so paused
 * instances cost nothing.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/engine/engine.go
 *
 *-------------------------------------------------------------------------
 */

package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/metrics"
)

/* Config tunes engine timing behavior */
type Config struct {
	BackoffUnit         time.Duration
	DefaultStepTimeout  time.Duration
	HumanResponseWindow time.Duration
	EscalationChannel   string
}

/* Engine is the step interpreter */
type Engine struct {
	store     Store
	queue     Enqueuer
	router    DecisionRouter
	chat      ChatService
	messenger Messenger
	records   DataService
	cfg       Config
}

/* NewEngine builds an engine over its collaborators */
func NewEngine(store Store, queue Enqueuer, router DecisionRouter, chat ChatService, messenger Messenger, records DataService, cfg Config) *Engine {
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = time.Second
	}
	if cfg.DefaultStepTimeout <= 0 {
		cfg.DefaultStepTimeout = 60 * time.Second
	}
	if cfg.HumanResponseWindow <= 0 {
		cfg.HumanResponseWindow = 24 * time.Hour
	}
	if cfg.EscalationChannel == "" {
		cfg.EscalationChannel = "ops"
	}
	return &Engine{
		store:     store,
		queue:     queue,
		router:    router,
		chat:      chat,
		messenger: messenger,
		records:   records,
		cfg:       cfg,
	}
}

/*
 * Advance moves one instance forward by exactly one step.
 *
 * The version claim is the idempotency guard: a duplicate delivery
 * loads a stale version, fails the claim, and no-ops. Running past the
 * last step position is the sole normal completion path.
 */
func (e *Engine) Advance(ctx context.Context, instanceID uuid.UUID, stepPosition *int) error {
	inst, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to load instance: id='%s', error=%w", instanceID, err)
	}
	if inst == nil {
		log.Warn().Str("instance_id", instanceID.String()).Msg("Advance for unknown instance")
		return nil
	}
	if inst.Status != db.InstanceStatusPending && inst.Status != db.InstanceStatusActive {
		log.Debug().
			Str("instance_id", instanceID.String()).
			Str("status", inst.Status).
			Msg("Instance not advanceable, skipping")
		return nil
	}

	position := inst.Position
	if stepPosition != nil {
		position = *stepPosition
	}

	claimed, err := e.store.ClaimAdvance(ctx, inst.ID, inst.Version, position)
	if err != nil {
		return fmt.Errorf("failed to claim advance: id='%s', error=%w", inst.ID, err)
	}
	if !claimed {
		log.Debug().Str("instance_id", inst.ID.String()).Msg("Advance claim lost, duplicate delivery absorbed")
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusActive)

	def, err := e.store.GetDefinitionByID(ctx, inst.DefinitionID)
	if err != nil {
		return fmt.Errorf("failed to load definition: id='%s', error=%w", inst.DefinitionID, err)
	}
	if def == nil {
		return e.failInstance(ctx, inst, position, fmt.Sprintf("definition not found: id='%s'", inst.DefinitionID))
	}

	step, err := e.store.GetStepAtPosition(ctx, def.ID, position)
	if err != nil {
		return fmt.Errorf("failed to load step: definition='%s', position=%d, error=%w", def.ID, position, err)
	}
	if step == nil {
		return e.complete(ctx, inst, position, true)
	}

	stepType, err := ParseStepType(step.StepType)
	if err != nil {
		return e.failInstance(ctx, inst, position, err.Error())
	}
	directives, err := parseStepDirectives(step)
	if err != nil {
		return e.failInstance(ctx, inst, position, err.Error())
	}
	if stepType.IsDecisionBearing() {
		if _, ok := step.Config["prompt"].(string); !ok {
			return e.failInstance(ctx, inst, position, fmt.Sprintf("decision step missing prompt: step='%s'", step.Name))
		}
	}

	e.audit(ctx, inst.ID, &position, db.EventStepStarted,
		fmt.Sprintf("Step %d (%s) started", position, step.Name), nil)

	timeout := e.cfg.DefaultStepTimeout
	if step.TimeoutSeconds > 0 {
		timeout = time.Duration(step.TimeoutSeconds) * time.Second
	}

	start := time.Now()
	var outcome Outcome
	switch stepType {
	case StepRequestHumanInput:
		return e.pauseForHuman(ctx, inst, step, position)
	case StepWait, StepScheduleFollowup:
		return e.pauseForTimer(ctx, inst, step, position)
	default:
		outcome = e.runWithTimeout(ctx, timeout, func(ctx context.Context) Outcome {
			return e.dispatch(ctx, inst, def, step, stepType)
		})
	}
	metrics.RecordStepExecution(stepType.String(), outcome.Status.String(), time.Since(start))

	return e.handleOutcome(ctx, inst, step, position, outcome, directives)
}

/* stepDirectives holds the three parsed directive columns */
type stepDirectives struct {
	onSuccess   Directive
	onFailure   Directive
	onUncertain Directive
}

func parseStepDirectives(step *db.StepDefinition) (stepDirectives, error) {
	var d stepDirectives
	var err error
	if d.onSuccess, err = ParseDirective(step.OnSuccess); err != nil {
		return d, fmt.Errorf("failed to parse on_success: step='%s', error=%w", step.Name, err)
	}
	if d.onFailure, err = ParseDirective(step.OnFailure); err != nil {
		return d, fmt.Errorf("failed to parse on_failure: step='%s', error=%w", step.Name, err)
	}
	if d.onUncertain, err = ParseDirective(step.OnUncertain); err != nil {
		return d, fmt.Errorf("failed to parse on_uncertain: step='%s', error=%w", step.Name, err)
	}
	return d, nil
}

/* runWithTimeout bounds one handler dispatch; overrun is a failure */
func (e *Engine) runWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) Outcome) Outcome {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan Outcome, 1)
	go func() {
		done <- fn(ctx)
	}()

	select {
	case outcome := <-done:
		return outcome
	case <-ctx.Done():
		return FailureOutcome("step timed out after %s", timeout)
	}
}

func (e *Engine) handleOutcome(ctx context.Context, inst *db.ProcedureInstance, step *db.StepDefinition, position int, outcome Outcome, directives stepDirectives) error {
	switch outcome.Status {
	case OutcomeSuccess:
		if len(outcome.Output) > 0 {
			if err := e.store.MergeWorkingData(ctx, inst.ID, outcome.Output); err != nil {
				return fmt.Errorf("failed to merge working data: id='%s', error=%w", inst.ID, err)
			}
		}
		e.audit(ctx, inst.ID, &position, db.EventStepCompleted,
			fmt.Sprintf("Step %d (%s) completed", position, step.Name), nil)
		return e.applyDirective(ctx, inst, step, position, directives.onSuccess, "")

	case OutcomeFailure:
		e.audit(ctx, inst.ID, &position, db.EventStepFailed,
			fmt.Sprintf("Step %d (%s) failed: %s", position, step.Name, outcome.ErrorMsg), nil)
		return e.applyDirective(ctx, inst, step, position, directives.onFailure, outcome.ErrorMsg)

	case OutcomeUncertain:
		/* the decision audit trail already carries the low-confidence result */
		return e.applyDirective(ctx, inst, step, position, directives.onUncertain,
			fmt.Sprintf("confidence below threshold at step %d", position))

	default:
		return e.failInstance(ctx, inst, position, fmt.Sprintf("unknown outcome status: %d", outcome.Status))
	}
}

/*
 * applyDirective resolves one parsed directive against the freshly
 * claimed instance. Retry and escalate_tier re-enqueue the same
 * position; everything else either moves the cursor or terminates.
 */
func (e *Engine) applyDirective(ctx context.Context, inst *db.ProcedureInstance, step *db.StepDefinition, position int, d Directive, errMsg string) error {
	switch d.Kind {
	case DirectiveAdvance:
		return e.enqueueAdvance(ctx, inst.ID, position+1, 0, inst.Priority)

	case DirectiveGoto:
		return e.enqueueAdvance(ctx, inst.ID, d.Target, 0, inst.Priority)

	case DirectiveComplete:
		/* the step already emitted its own completion event */
		return e.complete(ctx, inst, position, false)

	case DirectiveRetry:
		key := strconv.Itoa(position)
		retries := jsonbInt(inst.StepRetries, key, 0)
		if retries >= step.MaxRetries {
			return e.escalateToHuman(ctx, inst, position,
				fmt.Sprintf("step %d exhausted %d retries: %s", position, step.MaxRetries, errMsg))
		}
		attempt := retries + 1
		if err := e.store.SetStepRetries(ctx, inst.ID, inst.StepRetries.Merged(map[string]interface{}{key: attempt})); err != nil {
			return fmt.Errorf("failed to record step retries: id='%s', error=%w", inst.ID, err)
		}
		backoff := e.cfg.BackoffUnit * time.Duration(1<<attempt)
		return e.enqueueAdvance(ctx, inst.ID, position, backoff, inst.Priority)

	case DirectiveEscalate:
		return e.escalateToHuman(ctx, inst, position, errMsg)

	case DirectiveFail:
		return e.terminateFailed(ctx, inst, position, errMsg)

	case DirectiveEscalateTier:
		key := strconv.Itoa(position)
		floor := jsonbInt(inst.TierFloors, key, step.MinTier)
		if floor >= step.MaxTier {
			return e.escalateToHuman(ctx, inst, position,
				fmt.Sprintf("step %d uncertain at maximum tier %d", position, step.MaxTier))
		}
		if err := e.store.SetTierFloors(ctx, inst.ID, inst.TierFloors.Merged(map[string]interface{}{key: floor + 1})); err != nil {
			return fmt.Errorf("failed to record tier floor: id='%s', error=%w", inst.ID, err)
		}
		return e.enqueueAdvance(ctx, inst.ID, position, 0, inst.Priority)

	default:
		return e.failInstance(ctx, inst, position, fmt.Sprintf("unknown directive kind: %d", d.Kind))
	}
}

/* complete marks the sole normal termination path */
func (e *Engine) complete(ctx context.Context, inst *db.ProcedureInstance, position int, emitEvent bool) error {
	ok, err := e.store.TerminateInstance(ctx, inst.ID, db.InstanceStatusActive, db.InstanceStatusCompleted, nil)
	if err != nil {
		return fmt.Errorf("failed to complete instance: id='%s', error=%w", inst.ID, err)
	}
	if !ok {
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusCompleted)
	if emitEvent {
		e.audit(ctx, inst.ID, &position, db.EventStepCompleted, "Procedure completed", nil)
	}
	log.Info().Str("instance_id", inst.ID.String()).Msg("Instance completed")
	return nil
}

func (e *Engine) terminateFailed(ctx context.Context, inst *db.ProcedureInstance, position int, errMsg string) error {
	ok, err := e.store.TerminateInstance(ctx, inst.ID, db.InstanceStatusActive, db.InstanceStatusFailed, &errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark instance failed: id='%s', error=%w", inst.ID, err)
	}
	if !ok {
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusFailed)
	e.notifyOps(ctx, inst, fmt.Sprintf("Instance %s failed at step %d: %s", inst.ID, position, errMsg))
	log.Warn().Str("instance_id", inst.ID.String()).Int("position", position).Str("error", errMsg).Msg("Instance failed")
	return nil
}

func (e *Engine) escalateToHuman(ctx context.Context, inst *db.ProcedureInstance, position int, reason string) error {
	ok, err := e.store.TerminateInstance(ctx, inst.ID, db.InstanceStatusActive, db.InstanceStatusEscalated, &reason)
	if err != nil {
		return fmt.Errorf("failed to escalate instance: id='%s', error=%w", inst.ID, err)
	}
	if !ok {
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusEscalated)
	e.audit(ctx, inst.ID, &position, db.EventNote,
		fmt.Sprintf("Escalated to human: %s", reason), nil)
	e.notifyOps(ctx, inst, fmt.Sprintf("Instance %s needs human attention at step %d: %s", inst.ID, position, reason))
	log.Warn().Str("instance_id", inst.ID.String()).Str("reason", reason).Msg("Instance escalated to human")
	return nil
}

/* failInstance handles content/logic errors: fatal, never retried */
func (e *Engine) failInstance(ctx context.Context, inst *db.ProcedureInstance, position int, errMsg string) error {
	e.audit(ctx, inst.ID, &position, db.EventError, errMsg, nil)
	return e.terminateFailed(ctx, inst, position, errMsg)
}

/*
 * pauseForHuman posts an approval request and suspends the instance.
 * Resume is the only way out; reminder and expiry jobs police the
 * response window.
 */
func (e *Engine) pauseForHuman(ctx context.Context, inst *db.ProcedureInstance, step *db.StepDefinition, position int) error {
	text := configString(step.Config, "message", "Input required")
	text = renderText(text, inst.WorkingData.ToMap())
	channel := configString(step.Config, "channel", e.cfg.EscalationChannel)
	options := configStrings(step.Config, "options")
	if len(options) == 0 {
		options = []string{"approve", "reject"}
	}

	handle, err := e.chat.PostInteractive(ctx, channel, text, options, inst.ThreadHandle)
	if err != nil {
		e.audit(ctx, inst.ID, &position, db.EventStepFailed,
			fmt.Sprintf("Step %d (%s) failed: %v", position, step.Name, err), nil)
		directives, derr := parseStepDirectives(step)
		if derr != nil {
			return e.failInstance(ctx, inst, position, derr.Error())
		}
		return e.applyDirective(ctx, inst, step, position, directives.onFailure, err.Error())
	}
	if inst.ThreadHandle == nil && handle != "" {
		if err := e.store.SetThreadHandle(ctx, inst.ID, handle); err != nil {
			log.Error().Err(err).Str("instance_id", inst.ID.String()).Msg("Failed to store thread handle")
		}
	}

	ok, err := e.store.TransitionStatus(ctx, inst.ID, db.InstanceStatusActive, db.InstanceStatusPausedHuman)
	if err != nil {
		return fmt.Errorf("failed to pause instance for human: id='%s', error=%w", inst.ID, err)
	}
	if !ok {
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusPausedHuman)
	e.audit(ctx, inst.ID, &position, db.EventHumanRequested,
		fmt.Sprintf("Human input requested at step %d (%s)", position, step.Name),
		db.JSONBMap{"channel": channel, "options": options})

	payload := db.JSONBMap{"instance_id": inst.ID.String()}
	if err := e.queue.EnqueueJob(ctx, &db.Job{
		Type:       db.JobTypeHumanReminder,
		Status:     db.JobStatusQueued,
		Payload:    payload,
		RunAt:      time.Now().Add(e.cfg.HumanResponseWindow),
		MaxRetries: 1,
	}); err != nil {
		return fmt.Errorf("failed to enqueue human reminder: id='%s', error=%w", inst.ID, err)
	}
	if err := e.queue.EnqueueJob(ctx, &db.Job{
		Type:       db.JobTypeHumanExpiry,
		Status:     db.JobStatusQueued,
		Payload:    payload,
		RunAt:      time.Now().Add(2 * e.cfg.HumanResponseWindow),
		MaxRetries: 1,
	}); err != nil {
		return fmt.Errorf("failed to enqueue human expiry: id='%s', error=%w", inst.ID, err)
	}
	return nil
}

/* pauseForTimer suspends the instance and schedules the next step */
func (e *Engine) pauseForTimer(ctx context.Context, inst *db.ProcedureInstance, step *db.StepDefinition, position int) error {
	delay := jsonbInt(step.Config, "delay_seconds", 0)
	if delay <= 0 {
		return e.failInstance(ctx, inst, position,
			fmt.Sprintf("wait step missing delay_seconds: step='%s'", step.Name))
	}

	ok, err := e.store.TransitionStatus(ctx, inst.ID, db.InstanceStatusActive, db.InstanceStatusPausedTimer)
	if err != nil {
		return fmt.Errorf("failed to pause instance for timer: id='%s', error=%w", inst.ID, err)
	}
	if !ok {
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusPausedTimer)

	if err := e.queue.EnqueueJob(ctx, &db.Job{
		Type:       db.JobTypeResumeTimer,
		Status:     db.JobStatusQueued,
		Priority:   inst.Priority,
		Payload:    db.JSONBMap{"instance_id": inst.ID.String()},
		RunAt:      time.Now().Add(time.Duration(delay) * time.Second),
		MaxRetries: 3,
	}); err != nil {
		return fmt.Errorf("failed to schedule timer resume: id='%s', error=%w", inst.ID, err)
	}
	return nil
}

/*
 * Resume is the only exit from paused_human. Calling it on an instance
 * in any other status is a no-op, which makes stale approval webhooks
 * harmless.
 */
func (e *Engine) Resume(ctx context.Context, instanceID uuid.UUID, responseData map[string]interface{}) error {
	inst, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to load instance: id='%s', error=%w", instanceID, err)
	}
	if inst == nil || inst.Status != db.InstanceStatusPausedHuman {
		return nil
	}

	ok, err := e.store.TransitionStatus(ctx, instanceID, db.InstanceStatusPausedHuman, db.InstanceStatusActive)
	if err != nil {
		return fmt.Errorf("failed to resume instance: id='%s', error=%w", instanceID, err)
	}
	if !ok {
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusActive)

	if len(responseData) > 0 {
		if err := e.store.MergeWorkingData(ctx, instanceID, responseData); err != nil {
			return fmt.Errorf("failed to merge human response: id='%s', error=%w", instanceID, err)
		}
	}
	e.audit(ctx, instanceID, &inst.Position, db.EventHumanReceived,
		fmt.Sprintf("Human input received at step %d", inst.Position), db.FromMap(responseData))

	return e.enqueueAdvance(ctx, instanceID, inst.Position+1, 0, inst.Priority)
}

/* ResumeTimer wakes a timer-paused instance at the next step */
func (e *Engine) ResumeTimer(ctx context.Context, instanceID uuid.UUID) error {
	inst, err := e.store.GetInstance(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to load instance: id='%s', error=%w", instanceID, err)
	}
	if inst == nil || inst.Status != db.InstanceStatusPausedTimer {
		return nil
	}

	ok, err := e.store.TransitionStatus(ctx, instanceID, db.InstanceStatusPausedTimer, db.InstanceStatusActive)
	if err != nil {
		return fmt.Errorf("failed to wake instance: id='%s', error=%w", instanceID, err)
	}
	if !ok {
		return nil
	}
	metrics.RecordInstanceTransition(db.InstanceStatusActive)
	return e.enqueueAdvance(ctx, instanceID, inst.Position+1, 0, inst.Priority)
}

func (e *Engine) enqueueAdvance(ctx context.Context, instanceID uuid.UUID, position int, delay time.Duration, priority int) error {
	job := &db.Job{
		Type:     db.JobTypeAdvance,
		Status:   db.JobStatusQueued,
		Priority: priority,
		Payload: db.JSONBMap{
			"instance_id": instanceID.String(),
			"position":    position,
		},
		RunAt:      time.Now().Add(delay),
		MaxRetries: 3,
	}
	if err := e.queue.EnqueueJob(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue advance: id='%s', position=%d, error=%w", instanceID, position, err)
	}
	return nil
}

func (e *Engine) notifyOps(ctx context.Context, inst *db.ProcedureInstance, text string) {
	if e.chat == nil {
		return
	}
	if _, err := e.chat.PostMessage(ctx, e.cfg.EscalationChannel, text, inst.ThreadHandle); err != nil {
		log.Error().Err(err).Str("instance_id", inst.ID.String()).Msg("Failed to post escalation notification")
	}
}

func (e *Engine) audit(ctx context.Context, instanceID uuid.UUID, position *int, eventType, summary string, detail db.JSONBMap) {
	if detail == nil {
		detail = db.JSONBMap{}
	}
	event := &db.AuditEvent{
		InstanceID:   instanceID,
		StepPosition: position,
		EventType:    eventType,
		Summary:      summary,
		Detail:       detail,
	}
	if err := e.store.InsertAuditEvent(ctx, event); err != nil {
		log.Error().Err(err).Str("instance_id", instanceID.String()).Str("event_type", eventType).Msg("Failed to insert audit event")
	}
}

/* jsonbInt reads an integer from a JSONB document, tolerating float64 decode */
func jsonbInt(m db.JSONBMap, key string, fallback int) int {
	if m == nil {
		return fallback
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return fallback
	}
}

func configString(cfg db.JSONBMap, key, fallback string) string {
	if cfg == nil {
		return fallback
	}
	if s, ok := cfg[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func configStrings(cfg db.JSONBMap, key string) []string {
	if cfg == nil {
		return nil
	}
	raw, ok := cfg[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
