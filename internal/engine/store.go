/*-------------------------------------------------------------------------
 *
 * store.go
 *    Collaborator interfaces consumed by the execution engine
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/engine/store.go
 *
 *-------------------------------------------------------------------------
 */

package engine

import (
	"context"

	"github.com/google/uuid"

	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/decisions"
)

/*
 * Store is the persistence surface the engine needs. *db.Queries
 * satisfies it; tests use an in-memory implementation.
 */
type Store interface {
	GetInstance(ctx context.Context, id uuid.UUID) (*db.ProcedureInstance, error)
	CreateInstance(ctx context.Context, inst *db.ProcedureInstance) error
	ClaimAdvance(ctx context.Context, id uuid.UUID, expectedVersion, position int) (bool, error)
	MergeWorkingData(ctx context.Context, id uuid.UUID, data map[string]interface{}) error
	SetStepRetries(ctx context.Context, id uuid.UUID, retries db.JSONBMap) error
	SetTierFloors(ctx context.Context, id uuid.UUID, floors db.JSONBMap) error
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	TerminateInstance(ctx context.Context, id uuid.UUID, from, to string, errorMessage *string) (bool, error)
	SetThreadHandle(ctx context.Context, id uuid.UUID, handle string) error

	GetDefinitionByID(ctx context.Context, id uuid.UUID) (*db.ProcedureDefinition, error)
	GetActiveDefinitionBySlug(ctx context.Context, slug string) (*db.ProcedureDefinition, error)
	GetStepAtPosition(ctx context.Context, definitionID uuid.UUID, position int) (*db.StepDefinition, error)

	InsertAuditEvent(ctx context.Context, event *db.AuditEvent) error
}

/* Enqueuer schedules future units of work */
type Enqueuer interface {
	EnqueueJob(ctx context.Context, job *db.Job) error
}

/* DecisionRouter resolves decision-bearing steps */
type DecisionRouter interface {
	Decide(ctx context.Context, req decisions.DecideRequest) (*decisions.Decision, error)
}

/* ChatService posts channel messages and approval requests */
type ChatService interface {
	PostMessage(ctx context.Context, channel, text string, threadHandle *string) (string, error)
	PostInteractive(ctx context.Context, channel, text string, options []string, threadHandle *string) (string, error)
}

/* Messenger sends templated transactional messages */
type Messenger interface {
	SendTemplated(ctx context.Context, recipient, templateID string, variables map[string]interface{}) (string, error)
}

/* DataService is the external record store consulted by query steps */
type DataService interface {
	Query(ctx context.Context, filters map[string]interface{}) ([]map[string]interface{}, error)
	Find(ctx context.Context, id string) (map[string]interface{}, error)
	Update(ctx context.Context, id string, attrs map[string]interface{}) (map[string]interface{}, error)
}
