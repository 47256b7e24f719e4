/*-------------------------------------------------------------------------
 *
 * types.go
 *    API request and response types
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/api/types.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hoopsho/basecamp/internal/db"
)

/* Definitions */

type CreateStepRequest struct {
	Position       int                    `json:"position"`
	Name           string                 `json:"name"`
	StepType       string                 `json:"step_type"`
	Config         map[string]interface{} `json:"config"`
	MinTier        int                    `json:"min_tier"`
	MaxTier        int                    `json:"max_tier"`
	OnSuccess      string                 `json:"on_success"`
	OnFailure      string                 `json:"on_failure"`
	OnUncertain    string                 `json:"on_uncertain"`
	MaxRetries     int                    `json:"max_retries"`
	TimeoutSeconds int                    `json:"timeout_seconds"`
}

type CreateDefinitionRequest struct {
	Slug         string              `json:"slug"`
	Name         string              `json:"name"`
	MaxTier      int                 `json:"max_tier"`
	Capabilities []string            `json:"capabilities"`
	WorkerRoleID *uuid.UUID          `json:"worker_role_id"`
	Steps        []CreateStepRequest `json:"steps"`
}

type UpdateDefinitionStatusRequest struct {
	Status string `json:"status"`
}

type StepResponse struct {
	ID             uuid.UUID              `json:"id"`
	Position       int                    `json:"position"`
	Name           string                 `json:"name"`
	StepType       string                 `json:"step_type"`
	Config         map[string]interface{} `json:"config"`
	MinTier        int                    `json:"min_tier"`
	MaxTier        int                    `json:"max_tier"`
	OnSuccess      string                 `json:"on_success"`
	OnFailure      string                 `json:"on_failure"`
	OnUncertain    string                 `json:"on_uncertain"`
	MaxRetries     int                    `json:"max_retries"`
	TimeoutSeconds int                    `json:"timeout_seconds"`
}

type DefinitionResponse struct {
	ID           uuid.UUID      `json:"id"`
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	Version      int            `json:"version"`
	Status       string         `json:"status"`
	MaxTier      int            `json:"max_tier"`
	Capabilities []string       `json:"capabilities"`
	WorkerRoleID *uuid.UUID     `json:"worker_role_id,omitempty"`
	Steps        []StepResponse `json:"steps,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

/* Instances */

type CreateInstanceRequest struct {
	DefinitionSlug string                 `json:"definition_slug"`
	SeedData       map[string]interface{} `json:"seed_data"`
	Priority       int                    `json:"priority"`
}

type ResumeInstanceRequest struct {
	ResponseData map[string]interface{} `json:"response_data"`
}

type ApprovalRequest struct {
	Approved bool                   `json:"approved"`
	Comment  string                 `json:"comment,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

type InstanceResponse struct {
	ID           uuid.UUID              `json:"id"`
	DefinitionID uuid.UUID              `json:"definition_id"`
	WorkerRoleID *uuid.UUID             `json:"worker_role_id,omitempty"`
	Status       string                 `json:"status"`
	Position     int                    `json:"position"`
	WorkingData  map[string]interface{} `json:"working_data"`
	Priority     int                    `json:"priority"`
	ParentID     *uuid.UUID             `json:"parent_id,omitempty"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	Version      int                    `json:"version"`
	CreatedAt    time.Time              `json:"created_at"`
	StartedAt    *time.Time             `json:"started_at,omitempty"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

/* Audit */

type AuditEventResponse struct {
	ID              int64                  `json:"id"`
	InstanceID      uuid.UUID              `json:"instance_id"`
	StepPosition    *int                   `json:"step_position,omitempty"`
	EventType       string                 `json:"event_type"`
	Tier            *int                   `json:"tier,omitempty"`
	Confidence      *float64               `json:"confidence,omitempty"`
	TokensIn        *int                   `json:"tokens_in,omitempty"`
	TokensOut       *int                   `json:"tokens_out,omitempty"`
	LatencyMs       *int                   `json:"latency_ms,omitempty"`
	EscalationChain []int64                `json:"escalation_chain,omitempty"`
	Summary         string                 `json:"summary"`
	Detail          map[string]interface{} `json:"detail,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type TierCostResponse struct {
	Tier      int     `json:"tier"`
	TokensIn  int     `json:"tokens_in"`
	TokensOut int     `json:"tokens_out"`
	Cost      float64 `json:"cost"`
}

type InstanceCostResponse struct {
	InstanceID uuid.UUID          `json:"instance_id"`
	Tiers      []TierCostResponse `json:"tiers"`
	TotalCost  float64            `json:"total_cost"`
}

/* Roles and triggers */

type RegisterRoleRequest struct {
	Enabled *bool `json:"enabled"`
}

type RoleResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateTriggerRequest struct {
	WorkerRole      string                 `json:"worker_role"`
	Name            string                 `json:"name"`
	TriggerType     string                 `json:"trigger_type"`
	DefinitionSlug  string                 `json:"definition_slug"`
	Config          map[string]interface{} `json:"config"`
	IntervalSeconds int                    `json:"interval_seconds"`
	Enabled         *bool                  `json:"enabled"`
}

type TriggerResponse struct {
	ID              uuid.UUID              `json:"id"`
	WorkerRoleID    uuid.UUID              `json:"worker_role_id"`
	Name            string                 `json:"name"`
	TriggerType     string                 `json:"trigger_type"`
	DefinitionSlug  string                 `json:"definition_slug"`
	Config          map[string]interface{} `json:"config"`
	IntervalSeconds int                    `json:"interval_seconds"`
	Enabled         bool                   `json:"enabled"`
	LastCheckedAt   *time.Time             `json:"last_checked_at,omitempty"`
	LastFiredAt     *time.Time             `json:"last_fired_at,omitempty"`
}

/* Operations */

type DeadJobResponse struct {
	ID           int64                  `json:"id"`
	Type         string                 `json:"type"`
	Payload      map[string]interface{} `json:"payload"`
	RetryCount   int                    `json:"retry_count"`
	ErrorMessage *string                `json:"error_message,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

type RoleHeartbeatResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Enabled         bool       `json:"enabled"`
	LastHeartbeatAt *time.Time `json:"last_heartbeat_at,omitempty"`
	HeartbeatNote   *string    `json:"heartbeat_note,omitempty"`
}

/* Conversions */

func toStepResponse(s *db.StepDefinition) StepResponse {
	return StepResponse{
		ID:             s.ID,
		Position:       s.Position,
		Name:           s.Name,
		StepType:       s.StepType,
		Config:         s.Config,
		MinTier:        s.MinTier,
		MaxTier:        s.MaxTier,
		OnSuccess:      s.OnSuccess,
		OnFailure:      s.OnFailure,
		OnUncertain:    s.OnUncertain,
		MaxRetries:     s.MaxRetries,
		TimeoutSeconds: s.TimeoutSeconds,
	}
}

func toDefinitionResponse(d *db.ProcedureDefinition, steps []db.StepDefinition) DefinitionResponse {
	resp := DefinitionResponse{
		ID:           d.ID,
		Slug:         d.Slug,
		Name:         d.Name,
		Version:      d.Version,
		Status:       d.Status,
		MaxTier:      d.MaxTier,
		Capabilities: d.Capabilities,
		WorkerRoleID: d.WorkerRoleID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for i := range steps {
		resp.Steps = append(resp.Steps, toStepResponse(&steps[i]))
	}
	return resp
}

func toInstanceResponse(inst *db.ProcedureInstance) InstanceResponse {
	return InstanceResponse{
		ID:           inst.ID,
		DefinitionID: inst.DefinitionID,
		WorkerRoleID: inst.WorkerRoleID,
		Status:       inst.Status,
		Position:     inst.Position,
		WorkingData:  inst.WorkingData,
		Priority:     inst.Priority,
		ParentID:     inst.ParentID,
		ErrorMessage: inst.ErrorMessage,
		Version:      inst.Version,
		CreatedAt:    inst.CreatedAt,
		StartedAt:    inst.StartedAt,
		CompletedAt:  inst.CompletedAt,
	}
}

func toRoleResponse(role *db.WorkerRole) RoleResponse {
	return RoleResponse{
		ID:        role.ID,
		Name:      role.Name,
		Enabled:   role.Enabled,
		CreatedAt: role.CreatedAt,
	}
}

func toTriggerResponse(t *db.TriggerCheck) TriggerResponse {
	return TriggerResponse{
		ID:              t.ID,
		WorkerRoleID:    t.WorkerRoleID,
		Name:            t.Name,
		TriggerType:     t.TriggerType,
		DefinitionSlug:  t.DefinitionSlug,
		Config:          t.Config,
		IntervalSeconds: t.IntervalSeconds,
		Enabled:         t.Enabled,
		LastCheckedAt:   t.LastCheckedAt,
		LastFiredAt:     t.LastFiredAt,
	}
}

func toAuditEventResponse(e *db.AuditEvent) AuditEventResponse {
	return AuditEventResponse{
		ID:              e.ID,
		InstanceID:      e.InstanceID,
		StepPosition:    e.StepPosition,
		EventType:       e.EventType,
		Tier:            e.Tier,
		Confidence:      e.Confidence,
		TokensIn:        e.TokensIn,
		TokensOut:       e.TokensOut,
		LatencyMs:       e.LatencyMs,
		EscalationChain: e.EscalationChain,
		Summary:         e.Summary,
		Detail:          e.Detail,
		CreatedAt:       e.CreatedAt,
	}
}
