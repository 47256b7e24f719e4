/*-------------------------------------------------------------------------
 *
 * queries.go
 *    Database queries for procedure definitions
 *
 * Provides query functions for procedure definitions and their ordered
 * step definitions. Definitions are immutable at execution time; the only
 * writers are administrative upserts from the CLI.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Queries struct {
	DB *sqlx.DB
}

func NewQueries(db *sqlx.DB) *Queries {
	return &Queries{DB: db}
}

/* Definition queries */
const (
	createDefinitionQuery = `
		INSERT INTO basecamp.procedure_definitions
		(slug, name, version, status, max_tier, capabilities, worker_role_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	getDefinitionByIDQuery = `SELECT * FROM basecamp.procedure_definitions WHERE id = $1`

	getDefinitionBySlugQuery = `
		SELECT * FROM basecamp.procedure_definitions
		WHERE slug = $1
		ORDER BY version DESC
		LIMIT 1`

	getActiveDefinitionBySlugQuery = `
		SELECT * FROM basecamp.procedure_definitions
		WHERE slug = $1 AND status = 'active'
		ORDER BY version DESC
		LIMIT 1`

	listDefinitionsQuery = `
		SELECT DISTINCT ON (slug) * FROM basecamp.procedure_definitions
		ORDER BY slug, version DESC`

	updateDefinitionStatusQuery = `
		UPDATE basecamp.procedure_definitions
		SET status = $2, updated_at = NOW()
		WHERE id = $1`

	createStepQuery = `
		INSERT INTO basecamp.step_definitions
		(definition_id, position, name, step_type, config, min_tier, max_tier,
		 on_success, on_failure, on_uncertain, max_retries, timeout_seconds)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	listStepsQuery = `
		SELECT * FROM basecamp.step_definitions
		WHERE definition_id = $1
		ORDER BY position ASC`

	getStepAtPositionQuery = `
		SELECT * FROM basecamp.step_definitions
		WHERE definition_id = $1 AND position = $2`
)

/* CreateDefinition inserts a new definition version */
func (q *Queries) CreateDefinition(ctx context.Context, d *ProcedureDefinition) error {
	err := q.DB.QueryRowContext(ctx, createDefinitionQuery,
		d.Slug, d.Name, d.Version, d.Status, d.MaxTier, d.Capabilities, d.WorkerRoleID,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create definition: slug='%s', error=%w", d.Slug, err)
	}
	return nil
}

/* GetDefinitionByID returns a definition by id */
func (q *Queries) GetDefinitionByID(ctx context.Context, id uuid.UUID) (*ProcedureDefinition, error) {
	var d ProcedureDefinition
	if err := q.DB.GetContext(ctx, &d, getDefinitionByIDQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get definition: id='%s', error=%w", id, err)
	}
	return &d, nil
}

/* GetDefinitionBySlug returns the newest definition version for a slug */
func (q *Queries) GetDefinitionBySlug(ctx context.Context, slug string) (*ProcedureDefinition, error) {
	var d ProcedureDefinition
	if err := q.DB.GetContext(ctx, &d, getDefinitionBySlugQuery, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get definition: slug='%s', error=%w", slug, err)
	}
	return &d, nil
}

/* GetActiveDefinitionBySlug returns the newest active definition for a slug */
func (q *Queries) GetActiveDefinitionBySlug(ctx context.Context, slug string) (*ProcedureDefinition, error) {
	var d ProcedureDefinition
	if err := q.DB.GetContext(ctx, &d, getActiveDefinitionBySlugQuery, slug); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active definition: slug='%s', error=%w", slug, err)
	}
	return &d, nil
}

/* ListDefinitions lists the newest version of every definition */
func (q *Queries) ListDefinitions(ctx context.Context) ([]ProcedureDefinition, error) {
	var defs []ProcedureDefinition
	if err := q.DB.SelectContext(ctx, &defs, listDefinitionsQuery); err != nil {
		return nil, fmt.Errorf("failed to list definitions: %w", err)
	}
	return defs, nil
}

/* UpdateDefinitionStatus updates a definition lifecycle status */
func (q *Queries) UpdateDefinitionStatus(ctx context.Context, id uuid.UUID, status string) error {
	if _, err := q.DB.ExecContext(ctx, updateDefinitionStatusQuery, id, status); err != nil {
		return fmt.Errorf("failed to update definition status: id='%s', error=%w", id, err)
	}
	return nil
}

/* CreateStep inserts a step definition */
func (q *Queries) CreateStep(ctx context.Context, s *StepDefinition) error {
	if s.MaxTier < s.MinTier {
		return fmt.Errorf("invalid step definition: position=%d, max_tier=%d < min_tier=%d", s.Position, s.MaxTier, s.MinTier)
	}
	err := q.DB.QueryRowContext(ctx, createStepQuery,
		s.DefinitionID, s.Position, s.Name, s.StepType, s.Config, s.MinTier, s.MaxTier,
		s.OnSuccess, s.OnFailure, s.OnUncertain, s.MaxRetries, s.TimeoutSeconds,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create step: definition_id='%s', position=%d, error=%w", s.DefinitionID, s.Position, err)
	}
	return nil
}

/* ListSteps returns a definition's steps in position order */
func (q *Queries) ListSteps(ctx context.Context, definitionID uuid.UUID) ([]StepDefinition, error) {
	var steps []StepDefinition
	if err := q.DB.SelectContext(ctx, &steps, listStepsQuery, definitionID); err != nil {
		return nil, fmt.Errorf("failed to list steps: definition_id='%s', error=%w", definitionID, err)
	}
	return steps, nil
}

/* GetStepAtPosition returns the step at a position, nil when past the end */
func (q *Queries) GetStepAtPosition(ctx context.Context, definitionID uuid.UUID, position int) (*StepDefinition, error) {
	var s StepDefinition
	if err := q.DB.GetContext(ctx, &s, getStepAtPositionQuery, definitionID, position); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get step: definition_id='%s', position=%d, error=%w", definitionID, position, err)
	}
	return &s, nil
}
