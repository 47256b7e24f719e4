/*-------------------------------------------------------------------------
 *
 * store_test.go
 *    Tests for the role memory store
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/memory/store_test.go
 *
 *-------------------------------------------------------------------------
 */

package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsho/basecamp/internal/db"
)

type fakeQueries struct {
	notes     []db.MemoryNote
	lastMin   float64
	lastLimit int
}

func (f *fakeQueries) RecordMemoryNote(ctx context.Context, n *db.MemoryNote) error {
	f.notes = append(f.notes, *n)
	return nil
}

func (f *fakeQueries) TopMemoryNotes(ctx context.Context, roleID uuid.UUID, minImportance float64, limit int) ([]db.MemoryNote, error) {
	f.lastMin = minImportance
	f.lastLimit = limit
	return f.notes, nil
}

func TestRecordClampsImportance(t *testing.T) {
	q := &fakeQueries{}
	store := NewStore(q)
	roleID := uuid.New()

	require.NoError(t, store.Record(context.Background(), roleID, "advanced instance", 1.5))
	require.NoError(t, store.Record(context.Background(), roleID, "idle cycle", -0.2))

	require.Len(t, q.notes, 2)
	assert.Equal(t, 1.0, q.notes[0].Importance)
	assert.Equal(t, 0.0, q.notes[1].Importance)
}

func TestRecordRejectsEmptyNote(t *testing.T) {
	store := NewStore(&fakeQueries{})
	err := store.Record(context.Background(), uuid.New(), "   ", 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")
}

func TestTopNotesDefaultsLimit(t *testing.T) {
	q := &fakeQueries{}
	store := NewStore(q)

	_, err := store.TopNotes(context.Background(), uuid.New(), 0, 0.3)
	require.NoError(t, err)
	assert.Equal(t, 10, q.lastLimit)
	assert.Equal(t, 0.3, q.lastMin)
}
