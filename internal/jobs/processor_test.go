/*-------------------------------------------------------------------------
 *
 * processor_test.go
 *    Tests for job dispatch
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/jobs/processor_test.go
 *
 *-------------------------------------------------------------------------
 */

package jobs

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsho/basecamp/internal/db"
)

type fakeAdvancer struct {
	advanced  []uuid.UUID
	positions []*int
	resumed   []uuid.UUID
	reminders []uuid.UUID
	expiries  []uuid.UUID
}

func (f *fakeAdvancer) Advance(ctx context.Context, id uuid.UUID, pos *int) error {
	f.advanced = append(f.advanced, id)
	f.positions = append(f.positions, pos)
	return nil
}

func (f *fakeAdvancer) ResumeTimer(ctx context.Context, id uuid.UUID) error {
	f.resumed = append(f.resumed, id)
	return nil
}

func (f *fakeAdvancer) HandleHumanReminder(ctx context.Context, id uuid.UUID) error {
	f.reminders = append(f.reminders, id)
	return nil
}

func (f *fakeAdvancer) HandleHumanExpiry(ctx context.Context, id uuid.UUID) error {
	f.expiries = append(f.expiries, id)
	return nil
}

type fakeCycles struct {
	roles []uuid.UUID
}

func (f *fakeCycles) RunCycle(ctx context.Context, roleID uuid.UUID) (string, error) {
	f.roles = append(f.roles, roleID)
	return "idle", nil
}

type fakeChecker struct {
	checks []uuid.UUID
}

func (f *fakeChecker) RunCheck(ctx context.Context, check *db.TriggerCheck) (int, error) {
	f.checks = append(f.checks, check.ID)
	return 0, nil
}

type fakeLookup struct {
	check *db.TriggerCheck
}

func (f *fakeLookup) GetTriggerCheck(ctx context.Context, id uuid.UUID) (*db.TriggerCheck, error) {
	return f.check, nil
}

func newTestProcessor() (*Processor, *fakeAdvancer, *fakeCycles, *fakeChecker, *fakeLookup) {
	advancer := &fakeAdvancer{}
	cycles := &fakeCycles{}
	checker := &fakeChecker{}
	lookup := &fakeLookup{}
	return NewProcessor(advancer, cycles, checker, lookup), advancer, cycles, checker, lookup
}

func job(jobType string, payload db.JSONBMap) *db.Job {
	return &db.Job{ID: 1, Type: jobType, Payload: payload}
}

func TestProcessAdvance(t *testing.T) {
	p, advancer, _, _, _ := newTestProcessor()
	id := uuid.New()

	err := p.Process(context.Background(), job(db.JobTypeAdvance, db.JSONBMap{
		"instance_id": id.String(),
		"position":    float64(3),
	}))
	require.NoError(t, err)

	require.Len(t, advancer.advanced, 1)
	assert.Equal(t, id, advancer.advanced[0])
	require.NotNil(t, advancer.positions[0])
	assert.Equal(t, 3, *advancer.positions[0])
}

func TestProcessAdvanceWithoutPosition(t *testing.T) {
	p, advancer, _, _, _ := newTestProcessor()

	err := p.Process(context.Background(), job(db.JobTypeAdvance, db.JSONBMap{
		"instance_id": uuid.New().String(),
	}))
	require.NoError(t, err)
	require.Len(t, advancer.positions, 1)
	assert.Nil(t, advancer.positions[0])
}

func TestProcessTimerAndHumanJobs(t *testing.T) {
	p, advancer, _, _, _ := newTestProcessor()
	id := uuid.New()
	payload := db.JSONBMap{"instance_id": id.String()}

	require.NoError(t, p.Process(context.Background(), job(db.JobTypeResumeTimer, payload)))
	require.NoError(t, p.Process(context.Background(), job(db.JobTypeHumanReminder, payload)))
	require.NoError(t, p.Process(context.Background(), job(db.JobTypeHumanExpiry, payload)))

	assert.Equal(t, []uuid.UUID{id}, advancer.resumed)
	assert.Equal(t, []uuid.UUID{id}, advancer.reminders)
	assert.Equal(t, []uuid.UUID{id}, advancer.expiries)
}

func TestProcessSchedulerCycle(t *testing.T) {
	p, _, cycles, _, _ := newTestProcessor()
	roleID := uuid.New()

	err := p.Process(context.Background(), job(db.JobTypeSchedulerCycle, db.JSONBMap{
		"role_id": roleID.String(),
	}))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{roleID}, cycles.roles)
}

func TestProcessTriggerCheck(t *testing.T) {
	p, _, _, checker, lookup := newTestProcessor()
	check := &db.TriggerCheck{ID: uuid.New(), Enabled: true}
	lookup.check = check

	err := p.Process(context.Background(), job(db.JobTypeTriggerCheck, db.JSONBMap{
		"trigger_id": check.ID.String(),
	}))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{check.ID}, checker.checks)
}

func TestProcessDisabledTriggerSkipped(t *testing.T) {
	p, _, _, checker, lookup := newTestProcessor()
	lookup.check = &db.TriggerCheck{ID: uuid.New(), Enabled: false}

	err := p.Process(context.Background(), job(db.JobTypeTriggerCheck, db.JSONBMap{
		"trigger_id": lookup.check.ID.String(),
	}))
	require.NoError(t, err)
	assert.Empty(t, checker.checks)
}

func TestProcessUnknownType(t *testing.T) {
	p, _, _, _, _ := newTestProcessor()
	err := p.Process(context.Background(), job("mystery", db.JSONBMap{}))
	assert.Error(t, err)
}

func TestProcessBadPayload(t *testing.T) {
	p, _, _, _, _ := newTestProcessor()
	err := p.Process(context.Background(), job(db.JobTypeAdvance, db.JSONBMap{"instance_id": "not-a-uuid"}))
	assert.Error(t, err)

	err = p.Process(context.Background(), job(db.JobTypeAdvance, db.JSONBMap{}))
	assert.Error(t, err)
}
