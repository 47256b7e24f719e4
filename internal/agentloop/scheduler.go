/*-------------------------------------------------------------------------
 *
 * scheduler.go
 *    Agent loop scheduler: survey, assess, prioritize, execute, report
 *
 * Each cycle performs at most ONE side effect. Bounding the per-cycle
 * work keeps cycle duration predictable, prevents overlapping runs,
 * and makes every action attributable to a single auditable decision.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/agentloop/scheduler.go
 *
 *-------------------------------------------------------------------------
 */

package agentloop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/metrics"
)

/* Cycle actions, in precedence order */
const (
	ActionEscalateFailed  = "escalate_failed"
	ActionAdvanceInstance = "advance_instance"
	ActionTriggerCheck    = "trigger_check"
	ActionIdle            = "idle"
	ActionSkippedLease    = "skipped_lease"
	ActionDisabled        = "disabled"
)

/* Store is the persistence surface one cycle needs */
type Store interface {
	GetWorkerRole(ctx context.Context, id uuid.UUID) (*db.WorkerRole, error)
	AcquireRoleLease(ctx context.Context, roleID uuid.UUID, holder string, ttl time.Duration) (bool, error)
	ReleaseRoleLease(ctx context.Context, roleID uuid.UUID, holder string) error
	RecordHeartbeat(ctx context.Context, roleID uuid.UUID, note string) error
	CountInstancesByRoleStatus(ctx context.Context, roleID uuid.UUID, status string) (int, error)
	ListInstancesByRoleStatus(ctx context.Context, roleID uuid.UUID, status string, limit int) ([]db.ProcedureInstance, error)
	ListFailedSince(ctx context.Context, roleID uuid.UUID, since time.Time) ([]db.ProcedureInstance, error)
	ListPausedHumanBefore(ctx context.Context, roleID uuid.UUID, before time.Time) ([]db.ProcedureInstance, error)
	ListDueTriggerChecks(ctx context.Context, roleID uuid.UUID, now time.Time) ([]db.TriggerCheck, error)
	EnqueueJob(ctx context.Context, job *db.Job) error
}

/* TriggerRunner checks one trigger; returns how many instances it spawned */
type TriggerRunner interface {
	RunCheck(ctx context.Context, check *db.TriggerCheck) (int, error)
}

/* Memory is the external note store consulted during survey */
type Memory interface {
	TopNotes(ctx context.Context, roleID uuid.UUID, limit int, minImportance float64) ([]db.MemoryNote, error)
	Record(ctx context.Context, roleID uuid.UUID, note string, importance float64) error
}

/* Notifier posts human-attention escalation messages */
type Notifier interface {
	PostMessage(ctx context.Context, channel, text string, threadHandle *string) (string, error)
}

/* Config tunes cycle timing */
type Config struct {
	LeaseDuration     time.Duration
	AttentionWindow   time.Duration
	HumanGraceWindow  time.Duration
	EscalationChannel string
	Holder            string
}

/* Scheduler drives the per-role agent loop */
type Scheduler struct {
	store    Store
	triggers TriggerRunner
	memory   Memory
	notifier Notifier
	cfg      Config
}

/* NewScheduler builds a scheduler over its collaborators */
func NewScheduler(store Store, triggers TriggerRunner, memory Memory, notifier Notifier, cfg Config) *Scheduler {
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = 2 * time.Minute
	}
	if cfg.AttentionWindow <= 0 {
		cfg.AttentionWindow = 15 * time.Minute
	}
	if cfg.HumanGraceWindow <= 0 {
		cfg.HumanGraceWindow = 4 * time.Hour
	}
	if cfg.EscalationChannel == "" {
		cfg.EscalationChannel = "ops"
	}
	if cfg.Holder == "" {
		cfg.Holder = uuid.New().String()
	}
	return &Scheduler{
		store:    store,
		triggers: triggers,
		memory:   memory,
		notifier: notifier,
		cfg:      cfg,
	}
}

/* situation is the assess-phase summary of one role's world */
type situation struct {
	pending      []db.ProcedureInstance
	activeCount  int
	pausedCount  int
	failedRecent []db.ProcedureInstance
	pausedLong   []db.ProcedureInstance
	dueTriggers  []db.TriggerCheck
}

func (s *situation) summary() string {
	return fmt.Sprintf("pending=%d active=%d paused=%d failed_recent=%d paused_long=%d due_triggers=%d",
		len(s.pending), s.activeCount, s.pausedCount, len(s.failedRecent), len(s.pausedLong), len(s.dueTriggers))
}

/*
 * RunCycle executes one cycle for one worker role and returns the
 * action taken. The role lease guarantees a cycle never overlaps its
 * own predecessor; different roles run fully independently.
 */
func (s *Scheduler) RunCycle(ctx context.Context, roleID uuid.UUID) (string, error) {
	role, err := s.store.GetWorkerRole(ctx, roleID)
	if err != nil {
		return "", fmt.Errorf("failed to load worker role: id='%s', error=%w", roleID, err)
	}
	if role == nil || !role.Enabled {
		return ActionDisabled, nil
	}

	acquired, err := s.store.AcquireRoleLease(ctx, roleID, s.cfg.Holder, s.cfg.LeaseDuration)
	if err != nil {
		return "", fmt.Errorf("failed to acquire role lease: role='%s', error=%w", role.Name, err)
	}
	if !acquired {
		log.Debug().Str("role", role.Name).Msg("Cycle skipped, lease held elsewhere")
		return ActionSkippedLease, nil
	}
	defer func() {
		if err := s.store.ReleaseRoleLease(ctx, roleID, s.cfg.Holder); err != nil {
			log.Error().Err(err).Str("role", role.Name).Msg("Failed to release role lease")
		}
	}()

	sit, err := s.survey(ctx, roleID)
	if err != nil {
		return "", err
	}

	action, detail, err := s.executeOne(ctx, role, sit)
	if err != nil {
		return action, err
	}

	s.report(ctx, role, sit, action, detail)
	return action, nil
}

/* survey gathers the role's world state; read-only */
func (s *Scheduler) survey(ctx context.Context, roleID uuid.UUID) (*situation, error) {
	sit := &situation{}
	now := time.Now()

	var err error
	if sit.pending, err = s.store.ListInstancesByRoleStatus(ctx, roleID, db.InstanceStatusPending, 10); err != nil {
		return nil, fmt.Errorf("failed to survey pending instances: role='%s', error=%w", roleID, err)
	}
	if sit.activeCount, err = s.store.CountInstancesByRoleStatus(ctx, roleID, db.InstanceStatusActive); err != nil {
		return nil, fmt.Errorf("failed to survey active instances: role='%s', error=%w", roleID, err)
	}
	if sit.pausedCount, err = s.store.CountInstancesByRoleStatus(ctx, roleID, db.InstanceStatusPausedHuman); err != nil {
		return nil, fmt.Errorf("failed to survey paused instances: role='%s', error=%w", roleID, err)
	}
	if sit.failedRecent, err = s.store.ListFailedSince(ctx, roleID, now.Add(-s.cfg.AttentionWindow)); err != nil {
		return nil, fmt.Errorf("failed to survey failed instances: role='%s', error=%w", roleID, err)
	}
	if sit.pausedLong, err = s.store.ListPausedHumanBefore(ctx, roleID, now.Add(-s.cfg.HumanGraceWindow)); err != nil {
		return nil, fmt.Errorf("failed to survey long-paused instances: role='%s', error=%w", roleID, err)
	}
	if sit.dueTriggers, err = s.store.ListDueTriggerChecks(ctx, roleID, now); err != nil {
		return nil, fmt.Errorf("failed to survey trigger checks: role='%s', error=%w", roleID, err)
	}

	/* memory is advisory context; a miss never fails the cycle */
	if s.memory != nil {
		if notes, err := s.memory.TopNotes(ctx, roleID, 5, 0.5); err != nil {
			log.Warn().Err(err).Str("role", roleID.String()).Msg("Failed to load memory notes")
		} else if len(notes) > 0 {
			log.Debug().Str("role", roleID.String()).Int("notes", len(notes)).Msg("Loaded memory notes for cycle")
		}
	}

	return sit, nil
}

/*
 * executeOne picks exactly one action by fixed precedence and performs
 * it: failed instances needing escalation, then a high-priority
 * pending instance, then a due trigger check, then any remaining
 * pending instance. First match wins; list order breaks ties by
 * priority then earliest creation.
 */
func (s *Scheduler) executeOne(ctx context.Context, role *db.WorkerRole, sit *situation) (string, string, error) {
	if len(sit.failedRecent) > 0 || len(sit.pausedLong) > 0 {
		text := fmt.Sprintf("Role %s: %d recently failed and %d long-paused instances need attention",
			role.Name, len(sit.failedRecent), len(sit.pausedLong))
		if _, err := s.notifier.PostMessage(ctx, s.cfg.EscalationChannel, text, nil); err != nil {
			return ActionEscalateFailed, "", fmt.Errorf("failed to post escalation: role='%s', error=%w", role.Name, err)
		}
		return ActionEscalateFailed, text, nil
	}

	if len(sit.pending) > 0 && sit.pending[0].Priority > 0 {
		inst := sit.pending[0]
		if err := s.enqueueAdvance(ctx, &inst); err != nil {
			return ActionAdvanceInstance, "", err
		}
		return ActionAdvanceInstance, fmt.Sprintf("advanced high-priority instance %s", inst.ID), nil
	}

	if len(sit.dueTriggers) > 0 {
		check := sit.dueTriggers[0]
		created, err := s.triggers.RunCheck(ctx, &check)
		if err != nil {
			return ActionTriggerCheck, "", fmt.Errorf("failed trigger check: name='%s', error=%w", check.Name, err)
		}
		return ActionTriggerCheck, fmt.Sprintf("trigger %s created %d instances", check.Name, created), nil
	}

	if len(sit.pending) > 0 {
		inst := sit.pending[0]
		if err := s.enqueueAdvance(ctx, &inst); err != nil {
			return ActionAdvanceInstance, "", err
		}
		return ActionAdvanceInstance, fmt.Sprintf("advanced instance %s", inst.ID), nil
	}

	return ActionIdle, "", nil
}

func (s *Scheduler) enqueueAdvance(ctx context.Context, inst *db.ProcedureInstance) error {
	job := &db.Job{
		Type:     db.JobTypeAdvance,
		Status:   db.JobStatusQueued,
		Priority: inst.Priority,
		Payload: db.JSONBMap{
			"instance_id": inst.ID.String(),
			"position":    inst.Position,
		},
		RunAt:      time.Now(),
		MaxRetries: 3,
	}
	if err := s.store.EnqueueJob(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue advance: instance='%s', error=%w", inst.ID, err)
	}
	return nil
}

/* report emits the heartbeat and, for real actions, a memory note */
func (s *Scheduler) report(ctx context.Context, role *db.WorkerRole, sit *situation, action, detail string) {
	metrics.RecordCycleAction(role.Name, action)

	summary := fmt.Sprintf("action=%s %s", action, sit.summary())
	if err := s.store.RecordHeartbeat(ctx, role.ID, summary); err != nil {
		log.Error().Err(err).Str("role", role.Name).Msg("Failed to record heartbeat")
	}

	if action != ActionIdle && detail != "" && s.memory != nil {
		if err := s.memory.Record(ctx, role.ID, detail, 0.6); err != nil {
			log.Warn().Err(err).Str("role", role.Name).Msg("Failed to record memory note")
		}
	}

	log.Info().
		Str("role", role.Name).
		Str("action", action).
		Str("situation", sit.summary()).
		Msg("Cycle complete")
}
