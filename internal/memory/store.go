/*-------------------------------------------------------------------------
 *
 * store.go
 *    Role memory store
 *
 * Advisory notes a role's scheduler records about its own activity,
 * surfaced back during later cycles ranked by importance. Notes never
 * gate an action; they only inform it.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/memory/store.go
 *
 *-------------------------------------------------------------------------
 */

package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hoopsho/basecamp/internal/db"
)

/* Queries is the persistence surface the store needs */
type Queries interface {
	RecordMemoryNote(ctx context.Context, n *db.MemoryNote) error
	TopMemoryNotes(ctx context.Context, roleID uuid.UUID, minImportance float64, limit int) ([]db.MemoryNote, error)
}

/* Store persists and recalls role memory notes */
type Store struct {
	queries Queries
}

/* NewStore creates a new memory store */
func NewStore(queries Queries) *Store {
	return &Store{queries: queries}
}

/* Record stores one note for a role */
func (s *Store) Record(ctx context.Context, roleID uuid.UUID, note string, importance float64) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return fmt.Errorf("memory note cannot be empty: role_id='%s'", roleID)
	}
	if importance < 0 {
		importance = 0
	}
	if importance > 1 {
		importance = 1
	}

	n := &db.MemoryNote{
		WorkerRoleID: roleID,
		Note:         note,
		Importance:   importance,
	}
	if err := s.queries.RecordMemoryNote(ctx, n); err != nil {
		return fmt.Errorf("failed to record memory note: role_id='%s', error=%w", roleID, err)
	}
	return nil
}

/* TopNotes returns a role's notes ranked by importance then recency */
func (s *Store) TopNotes(ctx context.Context, roleID uuid.UUID, limit int, minImportance float64) ([]db.MemoryNote, error) {
	if limit <= 0 {
		limit = 10
	}
	notes, err := s.queries.TopMemoryNotes(ctx, roleID, minImportance, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory notes: role_id='%s', error=%w", roleID, err)
	}
	return notes, nil
}
