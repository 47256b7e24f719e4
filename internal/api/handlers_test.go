/*-------------------------------------------------------------------------
 *
 * handlers_test.go
 *    Tests for the API handlers
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/api/handlers_test.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoopsho/basecamp/internal/config"
	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/decisions"
)

type fakeStore struct {
	definitions map[uuid.UUID]*db.ProcedureDefinition
	steps       map[uuid.UUID][]db.StepDefinition
	instances   map[uuid.UUID]*db.ProcedureInstance
	events      map[uuid.UUID][]db.AuditEvent
	usage       map[uuid.UUID][]db.TierUsage
	jobs        []db.Job
	deadJobs    []db.Job
	roles       []db.WorkerRole
	triggers    []db.TriggerCheck
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		definitions: map[uuid.UUID]*db.ProcedureDefinition{},
		steps:       map[uuid.UUID][]db.StepDefinition{},
		instances:   map[uuid.UUID]*db.ProcedureInstance{},
		events:      map[uuid.UUID][]db.AuditEvent{},
		usage:       map[uuid.UUID][]db.TierUsage{},
	}
}

func (f *fakeStore) CreateDefinition(ctx context.Context, d *db.ProcedureDefinition) error {
	f.definitions[d.ID] = d
	return nil
}

/* Missing rows come back (nil, nil), same as the sqlx-backed queries. */
func (f *fakeStore) GetDefinitionByID(ctx context.Context, id uuid.UUID) (*db.ProcedureDefinition, error) {
	return f.definitions[id], nil
}

func (f *fakeStore) GetDefinitionBySlug(ctx context.Context, slug string) (*db.ProcedureDefinition, error) {
	for _, d := range f.definitions {
		if d.Slug == slug {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetActiveDefinitionBySlug(ctx context.Context, slug string) (*db.ProcedureDefinition, error) {
	for _, d := range f.definitions {
		if d.Slug == slug && d.Status == db.DefinitionStatusActive {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListDefinitions(ctx context.Context) ([]db.ProcedureDefinition, error) {
	out := []db.ProcedureDefinition{}
	for _, d := range f.definitions {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeStore) UpdateDefinitionStatus(ctx context.Context, id uuid.UUID, status string) error {
	f.definitions[id].Status = status
	return nil
}

func (f *fakeStore) CreateStep(ctx context.Context, s *db.StepDefinition) error {
	f.steps[s.DefinitionID] = append(f.steps[s.DefinitionID], *s)
	return nil
}

func (f *fakeStore) ListSteps(ctx context.Context, definitionID uuid.UUID) ([]db.StepDefinition, error) {
	return f.steps[definitionID], nil
}

func (f *fakeStore) CreateInstance(ctx context.Context, inst *db.ProcedureInstance) error {
	inst.Version = 1
	f.instances[inst.ID] = inst
	return nil
}

func (f *fakeStore) GetInstance(ctx context.Context, id uuid.UUID) (*db.ProcedureInstance, error) {
	return f.instances[id], nil
}

func (f *fakeStore) ListInstances(ctx context.Context, status *string, limit, offset int) ([]db.ProcedureInstance, error) {
	out := []db.ProcedureInstance{}
	for _, inst := range f.instances {
		if status != nil && inst.Status != *status {
			continue
		}
		out = append(out, *inst)
	}
	return out, nil
}

func (f *fakeStore) ListAuditEvents(ctx context.Context, instanceID uuid.UUID) ([]db.AuditEvent, error) {
	return f.events[instanceID], nil
}

func (f *fakeStore) ListAuditEventsByType(ctx context.Context, instanceID uuid.UUID, eventType string) ([]db.AuditEvent, error) {
	out := []db.AuditEvent{}
	for _, event := range f.events[instanceID] {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out, nil
}

func (f *fakeStore) InstanceTokenUsage(ctx context.Context, instanceID uuid.UUID) ([]db.TierUsage, error) {
	return f.usage[instanceID], nil
}

func (f *fakeStore) EnqueueJob(ctx context.Context, job *db.Job) error {
	f.jobs = append(f.jobs, *job)
	return nil
}

func (f *fakeStore) ListDeadJobs(ctx context.Context, limit int) ([]db.Job, error) {
	return f.deadJobs, nil
}

func (f *fakeStore) UpsertWorkerRole(ctx context.Context, role *db.WorkerRole) error {
	for i := range f.roles {
		if f.roles[i].Name == role.Name {
			f.roles[i].Enabled = role.Enabled
			role.ID = f.roles[i].ID
			return nil
		}
	}
	role.ID = uuid.New()
	f.roles = append(f.roles, *role)
	return nil
}

func (f *fakeStore) GetWorkerRoleByName(ctx context.Context, name string) (*db.WorkerRole, error) {
	for i := range f.roles {
		if f.roles[i].Name == name {
			return &f.roles[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListEnabledRoles(ctx context.Context) ([]db.WorkerRole, error) {
	return f.roles, nil
}

func (f *fakeStore) CreateTriggerCheck(ctx context.Context, t *db.TriggerCheck) error {
	t.ID = uuid.New()
	f.triggers = append(f.triggers, *t)
	return nil
}

func (f *fakeStore) ListTriggerChecks(ctx context.Context, roleID uuid.UUID) ([]db.TriggerCheck, error) {
	out := []db.TriggerCheck{}
	for _, t := range f.triggers {
		if t.WorkerRoleID == roleID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListStaleHeartbeats(ctx context.Context, cutoff time.Time) ([]db.WorkerRole, error) {
	stale := []db.WorkerRole{}
	for _, role := range f.roles {
		if role.LastHeartbeatAt == nil || role.LastHeartbeatAt.Before(cutoff) {
			stale = append(stale, role)
		}
	}
	return stale, nil
}

type fakeResumer struct {
	resumed map[uuid.UUID]map[string]interface{}
	err     error
}

func (f *fakeResumer) Resume(ctx context.Context, instanceID uuid.UUID, responseData map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	if f.resumed == nil {
		f.resumed = map[uuid.UUID]map[string]interface{}{}
	}
	f.resumed[instanceID] = responseData
	return nil
}

func testRouter(store *fakeStore, resumer *fakeResumer) *mux.Router {
	ladder, _ := decisions.NewLadder([]config.TierConfig{
		{Name: "small", Model: "small-1", CostPerTokenIn: 0.000001, CostPerTokenOut: 0.000002},
		{Name: "large", Model: "large-1", CostPerTokenIn: 0.00001, CostPerTokenOut: 0.00003},
	})
	h := NewHandlers(store, resumer, ladder, 15*time.Minute)

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/definitions", h.CreateDefinition).Methods("POST")
	r.HandleFunc("/api/v1/definitions", h.ListDefinitions).Methods("GET")
	r.HandleFunc("/api/v1/definitions/{id}", h.GetDefinition).Methods("GET")
	r.HandleFunc("/api/v1/definitions/{id}/status", h.UpdateDefinitionStatus).Methods("PUT")
	r.HandleFunc("/api/v1/instances", h.CreateInstance).Methods("POST")
	r.HandleFunc("/api/v1/instances", h.ListInstances).Methods("GET")
	r.HandleFunc("/api/v1/instances/{id}", h.GetInstance).Methods("GET")
	r.HandleFunc("/api/v1/instances/{id}/resume", h.ResumeInstance).Methods("POST")
	r.HandleFunc("/api/v1/instances/{id}/approval", h.ApproveInstance).Methods("POST")
	r.HandleFunc("/api/v1/instances/{id}/audit", h.GetAuditTrail).Methods("GET")
	r.HandleFunc("/api/v1/instances/{id}/cost", h.GetInstanceCost).Methods("GET")
	r.HandleFunc("/api/v1/roles/{name}", h.RegisterRole).Methods("PUT")
	r.HandleFunc("/api/v1/roles/{name}", h.GetRole).Methods("GET")
	r.HandleFunc("/api/v1/triggers", h.CreateTrigger).Methods("POST")
	r.HandleFunc("/api/v1/triggers", h.ListTriggers).Methods("GET")
	r.HandleFunc("/api/v1/ops/dead-letters", h.ListDeadLetters).Methods("GET")
	r.HandleFunc("/api/v1/ops/heartbeats", h.ListRoleHeartbeats).Methods("GET")
	return r
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCreateDefinitionWithSteps(t *testing.T) {
	store := newFakeStore()
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "POST", "/api/v1/definitions", CreateDefinitionRequest{
		Slug:    "invoice-chase",
		Name:    "Invoice Chasing",
		MaxTier: 2,
		Steps: []CreateStepRequest{
			{Position: 1, Name: "find overdue", StepType: "conditional_query", OnSuccess: "advance", OnFailure: "fail"},
			{Position: 2, Name: "draft reminder", StepType: "draft_content", OnSuccess: "advance", OnFailure: "escalate"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp DefinitionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invoice-chase", resp.Slug)
	assert.Equal(t, db.DefinitionStatusDraft, resp.Status)
	assert.Len(t, resp.Steps, 2)
	assert.Len(t, store.steps[resp.ID], 2)
}

func TestCreateDefinitionRejectsUnknownStepType(t *testing.T) {
	router := testRouter(newFakeStore(), &fakeResumer{})

	rec := doJSON(t, router, "POST", "/api/v1/definitions", CreateDefinitionRequest{
		Slug: "bad",
		Name: "Bad",
		Steps: []CreateStepRequest{
			{Position: 1, Name: "x", StepType: "teleport"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDefinitionRejectsDuplicatePositions(t *testing.T) {
	router := testRouter(newFakeStore(), &fakeResumer{})

	rec := doJSON(t, router, "POST", "/api/v1/definitions", CreateDefinitionRequest{
		Slug: "dup",
		Name: "Dup",
		Steps: []CreateStepRequest{
			{Position: 1, Name: "a", StepType: "notify"},
			{Position: 1, Name: "b", StepType: "notify"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateInstanceEnqueuesAdvance(t *testing.T) {
	store := newFakeStore()
	def := &db.ProcedureDefinition{ID: uuid.New(), Slug: "invoice-chase", Status: db.DefinitionStatusActive}
	store.definitions[def.ID] = def
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "POST", "/api/v1/instances", CreateInstanceRequest{
		DefinitionSlug: "invoice-chase",
		SeedData:       map[string]interface{}{"customer": "acme"},
		Priority:       2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp InstanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, db.InstanceStatusPending, resp.Status)
	assert.Equal(t, 1, resp.Position)
	assert.Equal(t, 2, resp.Priority)

	require.Len(t, store.jobs, 1)
	assert.Equal(t, db.JobTypeAdvance, store.jobs[0].Type)
	assert.Equal(t, resp.ID.String(), store.jobs[0].Payload["instance_id"])
}

func TestCreateInstanceRequiresActiveDefinition(t *testing.T) {
	store := newFakeStore()
	def := &db.ProcedureDefinition{ID: uuid.New(), Slug: "drafted", Status: db.DefinitionStatusDraft}
	store.definitions[def.ID] = def
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "POST", "/api/v1/instances", CreateInstanceRequest{DefinitionSlug: "drafted"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApprovalResumesWithVerdict(t *testing.T) {
	store := newFakeStore()
	resumer := &fakeResumer{}
	router := testRouter(store, resumer)
	instanceID := uuid.New()

	rec := doJSON(t, router, "POST", "/api/v1/instances/"+instanceID.String()+"/approval", ApprovalRequest{
		Approved: true,
		Comment:  "looks good",
		Data:     map[string]interface{}{"discount": 10},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	data := resumer.resumed[instanceID]
	require.NotNil(t, data)
	assert.Equal(t, true, data["approved"])
	assert.Equal(t, "looks good", data["approval_comment"])
	assert.Equal(t, float64(10), data["discount"])
}

func TestResumeWebhook(t *testing.T) {
	resumer := &fakeResumer{}
	router := testRouter(newFakeStore(), resumer)
	instanceID := uuid.New()

	rec := doJSON(t, router, "POST", "/api/v1/instances/"+instanceID.String()+"/resume", ResumeInstanceRequest{
		ResponseData: map[string]interface{}{"human_response": "approve"},
	})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "approve", resumer.resumed[instanceID]["human_response"])
}

func TestGetAuditTrail(t *testing.T) {
	store := newFakeStore()
	instanceID := uuid.New()
	position := 1
	store.events[instanceID] = []db.AuditEvent{
		{ID: 1, InstanceID: instanceID, StepPosition: &position, EventType: db.EventStepStarted, Summary: "step started"},
		{ID: 2, InstanceID: instanceID, StepPosition: &position, EventType: db.EventStepCompleted, Summary: "step completed"},
	}
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "GET", "/api/v1/instances/"+instanceID.String()+"/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []AuditEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, db.EventStepStarted, resp[0].EventType)
}

func TestInstanceCostSumsTiers(t *testing.T) {
	store := newFakeStore()
	instanceID := uuid.New()
	store.usage[instanceID] = []db.TierUsage{
		{Tier: 0, TokensIn: 1000, TokensOut: 500},
		{Tier: 1, TokensIn: 2000, TokensOut: 1000},
	}
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "GET", "/api/v1/instances/"+instanceID.String()+"/cost", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp InstanceCostResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tiers, 2)
	/* tier 0: 1000*1e-6 + 500*2e-6 = 0.002; tier 1: 2000*1e-5 + 1000*3e-5 = 0.05 */
	assert.InDelta(t, 0.002, resp.Tiers[0].Cost, 1e-9)
	assert.InDelta(t, 0.05, resp.Tiers[1].Cost, 1e-9)
	assert.InDelta(t, 0.052, resp.TotalCost, 1e-9)
}

func TestListDeadLetters(t *testing.T) {
	store := newFakeStore()
	msg := "boom"
	store.deadJobs = []db.Job{{ID: 7, Type: db.JobTypeAdvance, RetryCount: 3, ErrorMessage: &msg}}
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "GET", "/api/v1/ops/dead-letters", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []DeadJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, int64(7), resp[0].ID)
	assert.Equal(t, "boom", *resp[0].ErrorMessage)
}

func TestStaleHeartbeatsFilter(t *testing.T) {
	store := newFakeStore()
	old := time.Now().Add(-time.Hour)
	fresh := time.Now()
	store.roles = []db.WorkerRole{
		{ID: uuid.New(), Name: "billing-bot", Enabled: true, LastHeartbeatAt: &old},
		{ID: uuid.New(), Name: "support-bot", Enabled: true, LastHeartbeatAt: &fresh},
	}
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "GET", "/api/v1/ops/heartbeats?stale=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []RoleHeartbeatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "billing-bot", resp[0].Name)
}

func TestRegisterRoleUpserts(t *testing.T) {
	store := newFakeStore()
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "PUT", "/api/v1/roles/billing-bot", RegisterRoleRequest{})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp RoleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "billing-bot", resp.Name)
	assert.True(t, resp.Enabled)

	/* re-register disabled, same role row */
	disabled := false
	rec = doJSON(t, router, "PUT", "/api/v1/roles/billing-bot", RegisterRoleRequest{Enabled: &disabled})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated RoleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, resp.ID, updated.ID)
	assert.False(t, updated.Enabled)
	require.Len(t, store.roles, 1)
}

func TestGetRoleByName(t *testing.T) {
	store := newFakeStore()
	store.roles = []db.WorkerRole{{ID: uuid.New(), Name: "support-bot", Enabled: true}}
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "GET", "/api/v1/roles/support-bot", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/api/v1/roles/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAndListTriggers(t *testing.T) {
	store := newFakeStore()
	roleID := uuid.New()
	store.roles = []db.WorkerRole{{ID: roleID, Name: "billing-bot", Enabled: true}}
	def := &db.ProcedureDefinition{ID: uuid.New(), Slug: "invoice-chase", Status: db.DefinitionStatusActive}
	store.definitions[def.ID] = def
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "POST", "/api/v1/triggers", CreateTriggerRequest{
		WorkerRole:     "billing-bot",
		Name:           "overdue-invoices",
		TriggerType:    "data_change",
		DefinitionSlug: "invoice-chase",
		Config:         map[string]interface{}{"filters": map[string]interface{}{"status": "overdue"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, roleID, created.WorkerRoleID)
	assert.Equal(t, 300, created.IntervalSeconds)
	assert.True(t, created.Enabled)

	rec = doJSON(t, router, "GET", "/api/v1/triggers?role=billing-bot", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed []TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "overdue-invoices", listed[0].Name)
}

func TestCreateTriggerRejectsUnknownType(t *testing.T) {
	store := newFakeStore()
	store.roles = []db.WorkerRole{{ID: uuid.New(), Name: "billing-bot", Enabled: true}}
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "POST", "/api/v1/triggers", CreateTriggerRequest{
		WorkerRole:     "billing-bot",
		Name:           "bad",
		TriggerType:    "telepathy",
		DefinitionSlug: "invoice-chase",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTriggerUnknownRoleIsNotFound(t *testing.T) {
	router := testRouter(newFakeStore(), &fakeResumer{})

	rec := doJSON(t, router, "POST", "/api/v1/triggers", CreateTriggerRequest{
		WorkerRole:     "nobody",
		Name:           "t",
		TriggerType:    "interval",
		DefinitionSlug: "invoice-chase",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDefinitionBySlugPath(t *testing.T) {
	store := newFakeStore()
	def := &db.ProcedureDefinition{ID: uuid.New(), Slug: "invoice-chase", Status: db.DefinitionStatusDraft}
	store.definitions[def.ID] = def
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "GET", "/api/v1/definitions/invoice-chase", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DefinitionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, def.ID, resp.ID)
}

func TestAuditTrailTypeFilter(t *testing.T) {
	store := newFakeStore()
	instanceID := uuid.New()
	store.events[instanceID] = []db.AuditEvent{
		{ID: 1, InstanceID: instanceID, EventType: db.EventStepStarted, Summary: "started"},
		{ID: 2, InstanceID: instanceID, EventType: db.EventDecisionCall, Summary: "decided"},
		{ID: 3, InstanceID: instanceID, EventType: db.EventStepCompleted, Summary: "completed"},
	}
	router := testRouter(store, &fakeResumer{})

	rec := doJSON(t, router, "GET", "/api/v1/instances/"+instanceID.String()+"/audit?type="+db.EventDecisionCall, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []AuditEventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, db.EventDecisionCall, resp[0].EventType)
}

func TestGetInstanceUnknownIDIsNotFound(t *testing.T) {
	router := testRouter(newFakeStore(), &fakeResumer{})
	rec := doJSON(t, router, "GET", "/api/v1/instances/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDefinitionUnknownIDIsNotFound(t *testing.T) {
	router := testRouter(newFakeStore(), &fakeResumer{})
	rec := doJSON(t, router, "GET", "/api/v1/definitions/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStatusUnknownDefinitionIsNotFound(t *testing.T) {
	router := testRouter(newFakeStore(), &fakeResumer{})
	rec := doJSON(t, router, "PUT", "/api/v1/definitions/"+uuid.New().String()+"/status",
		UpdateDefinitionStatusRequest{Status: db.DefinitionStatusActive})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateInstanceUnknownSlugIsNotFound(t *testing.T) {
	router := testRouter(newFakeStore(), &fakeResumer{})
	rec := doJSON(t, router, "POST", "/api/v1/instances", CreateInstanceRequest{DefinitionSlug: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidUUIDIsBadRequest(t *testing.T) {
	router := testRouter(newFakeStore(), &fakeResumer{})
	rec := doJSON(t, router, "GET", "/api/v1/instances/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
