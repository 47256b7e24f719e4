/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for Basecamp
 *
 * Defines data structures for procedure definitions, step definitions,
 * procedure instances, audit events, trigger checks, worker roles,
 * memory notes, and queued jobs.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

/* Procedure definition lifecycle statuses */
const (
	DefinitionStatusDraft    = "draft"
	DefinitionStatusActive   = "active"
	DefinitionStatusDisabled = "disabled"
)

/* Procedure instance lifecycle statuses */
const (
	InstanceStatusPending     = "pending"
	InstanceStatusActive      = "active"
	InstanceStatusPausedHuman = "paused_human"
	InstanceStatusPausedTimer = "paused_timer"
	InstanceStatusCompleted   = "completed"
	InstanceStatusFailed      = "failed"
	InstanceStatusEscalated   = "escalated"
)

/* Audit event types */
const (
	EventStepStarted       = "step_started"
	EventStepCompleted     = "step_completed"
	EventStepFailed        = "step_failed"
	EventDecisionCall      = "decision_call"
	EventDecisionEscalated = "decision_escalated"
	EventHumanRequested    = "human_input_requested"
	EventHumanReceived     = "human_input_received"
	EventExternalCall      = "external_call_made"
	EventError             = "error"
	EventNote              = "note"
)

/* Job queue statuses */
const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
	JobStatusDead    = "dead"
)

/* Job types */
const (
	JobTypeAdvance        = "advance"
	JobTypeResumeTimer    = "resume_timer"
	JobTypeSchedulerCycle = "scheduler_cycle"
	JobTypeTriggerCheck   = "trigger_check"
	JobTypeHumanReminder  = "human_reminder"
	JobTypeHumanExpiry    = "human_expiry"
)

type ProcedureDefinition struct {
	ID           uuid.UUID      `db:"id"`
	Slug         string         `db:"slug"`
	Name         string         `db:"name"`
	Version      int            `db:"version"`
	Status       string         `db:"status"`
	MaxTier      int            `db:"max_tier"`
	Capabilities pq.StringArray `db:"capabilities"`
	WorkerRoleID *uuid.UUID     `db:"worker_role_id"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type StepDefinition struct {
	ID             uuid.UUID `db:"id"`
	DefinitionID   uuid.UUID `db:"definition_id"`
	Position       int       `db:"position"`
	Name           string    `db:"name"`
	StepType       string    `db:"step_type"`
	Config         JSONBMap  `db:"config"`
	MinTier        int       `db:"min_tier"`
	MaxTier        int       `db:"max_tier"`
	OnSuccess      string    `db:"on_success"`
	OnFailure      string    `db:"on_failure"`
	OnUncertain    string    `db:"on_uncertain"`
	MaxRetries     int       `db:"max_retries"`
	TimeoutSeconds int       `db:"timeout_seconds"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

/*
 * ProcedureInstance is one running execution of a ProcedureDefinition.
 *
 * WorkingData is append/overwrite-only: merges may add or replace keys but
 * never remove them. StepRetries and TierFloors are engine-owned bookkeeping
 * keyed by step position, kept out of WorkingData so step-authored keys can
 * never collide with them. Version is the optimistic concurrency counter: an
 * advance only proceeds when the version it read is still current, which
 * turns duplicate delivery into a no-op.
 */
type ProcedureInstance struct {
	ID           uuid.UUID  `db:"id"`
	DefinitionID uuid.UUID  `db:"definition_id"`
	WorkerRoleID *uuid.UUID `db:"worker_role_id"`
	Status       string     `db:"status"`
	Position     int        `db:"position"`
	WorkingData  JSONBMap   `db:"working_data"`
	StepRetries  JSONBMap   `db:"step_retries"`
	TierFloors   JSONBMap   `db:"tier_floors"`
	Priority     int        `db:"priority"`
	ParentID     *uuid.UUID `db:"parent_id"`
	ThreadHandle *string    `db:"thread_handle"`
	ErrorMessage *string    `db:"error_message"`
	Version      int        `db:"version"`
	CreatedAt    time.Time  `db:"created_at"`
	StartedAt    *time.Time `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

/* AuditEvent is the append-only record of everything an instance did */
type AuditEvent struct {
	ID              int64         `db:"id"`
	InstanceID      uuid.UUID     `db:"instance_id"`
	StepPosition    *int          `db:"step_position"`
	EventType       string        `db:"event_type"`
	Tier            *int          `db:"tier"`
	Confidence      *float64      `db:"confidence"`
	TokensIn        *int          `db:"tokens_in"`
	TokensOut       *int          `db:"tokens_out"`
	LatencyMs       *int          `db:"latency_ms"`
	EscalationChain pq.Int64Array `db:"escalation_chain"`
	Summary         string        `db:"summary"`
	Detail          JSONBMap      `db:"detail"`
	CreatedAt       time.Time     `db:"created_at"`
}

type TriggerCheck struct {
	ID              uuid.UUID  `db:"id"`
	WorkerRoleID    uuid.UUID  `db:"worker_role_id"`
	Name            string     `db:"name"`
	TriggerType     string     `db:"trigger_type"`
	DefinitionSlug  string     `db:"definition_slug"`
	Config          JSONBMap   `db:"config"`
	IntervalSeconds int        `db:"interval_seconds"`
	Enabled         bool       `db:"enabled"`
	LastCheckedAt   *time.Time `db:"last_checked_at"`
	LastFiredAt     *time.Time `db:"last_fired_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

type WorkerRole struct {
	ID              uuid.UUID  `db:"id"`
	Name            string     `db:"name"`
	Enabled         bool       `db:"enabled"`
	LeaseHolder     *string    `db:"lease_holder"`
	LeaseUntil      *time.Time `db:"lease_until"`
	LastHeartbeatAt *time.Time `db:"last_heartbeat_at"`
	HeartbeatNote   *string    `db:"heartbeat_note"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

type MemoryNote struct {
	ID           int64     `db:"id"`
	WorkerRoleID uuid.UUID `db:"worker_role_id"`
	Note         string    `db:"note"`
	Importance   float64   `db:"importance"`
	CreatedAt    time.Time `db:"created_at"`
}

type Job struct {
	ID           int64      `db:"id"`
	Type         string     `db:"type"`
	Status       string     `db:"status"`
	Priority     int        `db:"priority"`
	Payload      JSONBMap   `db:"payload"`
	RunAt        time.Time  `db:"run_at"`
	RetryCount   int        `db:"retry_count"`
	MaxRetries   int        `db:"max_retries"`
	ErrorMessage *string    `db:"error_message"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	StartedAt    *time.Time `db:"started_at"`
	CompletedAt  *time.Time `db:"completed_at"`
}
