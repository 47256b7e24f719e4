/*-------------------------------------------------------------------------
 *
 * memory_queries.go
 *    Database queries for worker role memory notes
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/db/memory_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

/* Memory note queries */
const (
	insertMemoryNoteQuery = `
		INSERT INTO basecamp.memory_notes (worker_role_id, note, importance)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	topMemoryNotesQuery = `
		SELECT * FROM basecamp.memory_notes
		WHERE worker_role_id = $1 AND importance >= $2
		ORDER BY importance DESC, created_at DESC
		LIMIT $3`
)

/* RecordMemoryNote stores one memory note for a role */
func (q *Queries) RecordMemoryNote(ctx context.Context, n *MemoryNote) error {
	err := q.DB.QueryRowContext(ctx, insertMemoryNoteQuery, n.WorkerRoleID, n.Note, n.Importance).
		Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record memory note: role_id='%s', error=%w", n.WorkerRoleID, err)
	}
	return nil
}

/* TopMemoryNotes returns a role's notes ranked by importance then recency */
func (q *Queries) TopMemoryNotes(ctx context.Context, roleID uuid.UUID, minImportance float64, limit int) ([]MemoryNote, error) {
	var notes []MemoryNote
	if err := q.DB.SelectContext(ctx, &notes, topMemoryNotesQuery, roleID, minImportance, limit); err != nil {
		return nil, fmt.Errorf("failed to list memory notes: role_id='%s', error=%w", roleID, err)
	}
	return notes, nil
}
