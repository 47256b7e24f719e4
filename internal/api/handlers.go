/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    API handlers for Basecamp
 *
 * Provides HTTP handlers for procedure definitions, instances, audit
 * trails, approvals, and operational endpoints.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/api/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/decisions"
	"github.com/hoopsho/basecamp/internal/engine"
	"github.com/hoopsho/basecamp/internal/triggers"
)

/* Store is the persistence surface the handlers need */
type Store interface {
	CreateDefinition(ctx context.Context, d *db.ProcedureDefinition) error
	GetDefinitionByID(ctx context.Context, id uuid.UUID) (*db.ProcedureDefinition, error)
	GetDefinitionBySlug(ctx context.Context, slug string) (*db.ProcedureDefinition, error)
	GetActiveDefinitionBySlug(ctx context.Context, slug string) (*db.ProcedureDefinition, error)
	ListDefinitions(ctx context.Context) ([]db.ProcedureDefinition, error)
	UpdateDefinitionStatus(ctx context.Context, id uuid.UUID, status string) error
	CreateStep(ctx context.Context, s *db.StepDefinition) error
	ListSteps(ctx context.Context, definitionID uuid.UUID) ([]db.StepDefinition, error)

	CreateInstance(ctx context.Context, inst *db.ProcedureInstance) error
	GetInstance(ctx context.Context, id uuid.UUID) (*db.ProcedureInstance, error)
	ListInstances(ctx context.Context, status *string, limit, offset int) ([]db.ProcedureInstance, error)

	ListAuditEvents(ctx context.Context, instanceID uuid.UUID) ([]db.AuditEvent, error)
	ListAuditEventsByType(ctx context.Context, instanceID uuid.UUID, eventType string) ([]db.AuditEvent, error)
	InstanceTokenUsage(ctx context.Context, instanceID uuid.UUID) ([]db.TierUsage, error)

	EnqueueJob(ctx context.Context, job *db.Job) error
	ListDeadJobs(ctx context.Context, limit int) ([]db.Job, error)

	UpsertWorkerRole(ctx context.Context, role *db.WorkerRole) error
	GetWorkerRoleByName(ctx context.Context, name string) (*db.WorkerRole, error)
	ListEnabledRoles(ctx context.Context) ([]db.WorkerRole, error)
	ListStaleHeartbeats(ctx context.Context, cutoff time.Time) ([]db.WorkerRole, error)

	CreateTriggerCheck(ctx context.Context, t *db.TriggerCheck) error
	ListTriggerChecks(ctx context.Context, roleID uuid.UUID) ([]db.TriggerCheck, error)
}

/* Resumer unpauses instances waiting on human input */
type Resumer interface {
	Resume(ctx context.Context, instanceID uuid.UUID, responseData map[string]interface{}) error
}

type Handlers struct {
	store          Store
	resumer        Resumer
	ladder         *decisions.Ladder
	staleHeartbeat time.Duration
}

func NewHandlers(store Store, resumer Resumer, ladder *decisions.Ladder, staleHeartbeat time.Duration) *Handlers {
	if staleHeartbeat == 0 {
		staleHeartbeat = 15 * time.Minute
	}
	return &Handlers{
		store:          store,
		resumer:        resumer,
		ladder:         ladder,
		staleHeartbeat: staleHeartbeat,
	}
}

/* Definitions */

func (h *Handlers) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateDefinitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "definition creation failed: request body parsing error", err), requestID))
		return
	}
	if err := validateCreateDefinition(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "definition validation failed", err), requestID))
		return
	}

	def := &db.ProcedureDefinition{
		ID:           uuid.New(),
		Slug:         req.Slug,
		Name:         req.Name,
		Version:      1,
		Status:       db.DefinitionStatusDraft,
		MaxTier:      req.MaxTier,
		Capabilities: req.Capabilities,
		WorkerRoleID: req.WorkerRoleID,
	}
	if err := h.store.CreateDefinition(r.Context(), def); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "definition creation failed", err), requestID))
		return
	}

	steps := make([]db.StepDefinition, 0, len(req.Steps))
	for _, stepReq := range req.Steps {
		step := db.StepDefinition{
			ID:             uuid.New(),
			DefinitionID:   def.ID,
			Position:       stepReq.Position,
			Name:           stepReq.Name,
			StepType:       stepReq.StepType,
			Config:         db.JSONBMap(stepReq.Config),
			MinTier:        stepReq.MinTier,
			MaxTier:        stepReq.MaxTier,
			OnSuccess:      stepReq.OnSuccess,
			OnFailure:      stepReq.OnFailure,
			OnUncertain:    stepReq.OnUncertain,
			MaxRetries:     stepReq.MaxRetries,
			TimeoutSeconds: stepReq.TimeoutSeconds,
		}
		if err := h.store.CreateStep(r.Context(), &step); err != nil {
			respondError(w, WrapError(NewError(http.StatusInternalServerError,
				fmt.Sprintf("step creation failed: position=%d", stepReq.Position), err), requestID))
			return
		}
		steps = append(steps, step)
	}

	respondJSON(w, http.StatusCreated, toDefinitionResponse(def, steps))
}

/* GetDefinition loads a definition by ID, or by slug when the path is not a UUID */
func (h *Handlers) GetDefinition(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var def *db.ProcedureDefinition
	var err error
	key := mux.Vars(r)["id"]
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		def, err = h.store.GetDefinitionByID(r.Context(), id)
	} else {
		def, err = h.store.GetDefinitionBySlug(r.Context(), key)
	}
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load definition", err), requestID))
		return
	}
	if def == nil {
		respondError(w, WrapError(ErrNotFound, requestID))
		return
	}
	steps, err := h.store.ListSteps(r.Context(), def.ID)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list steps", err), requestID))
		return
	}

	respondJSON(w, http.StatusOK, toDefinitionResponse(def, steps))
}

func (h *Handlers) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	defs, err := h.store.ListDefinitions(r.Context())
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list definitions", err), requestID))
		return
	}

	responses := make([]DefinitionResponse, len(defs))
	for i := range defs {
		responses[i] = toDefinitionResponse(&defs[i], nil)
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *Handlers) UpdateDefinitionStatus(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid definition ID format", err), requestID))
		return
	}

	var req UpdateDefinitionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "request body parsing error", err), requestID))
		return
	}
	switch req.Status {
	case db.DefinitionStatusDraft, db.DefinitionStatusActive, db.DefinitionStatusDisabled:
	default:
		respondError(w, WrapError(NewError(http.StatusBadRequest,
			fmt.Sprintf("invalid definition status: %s", req.Status), nil), requestID))
		return
	}

	def, err := h.store.GetDefinitionByID(r.Context(), id)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load definition", err), requestID))
		return
	}
	if def == nil {
		respondError(w, WrapError(ErrNotFound, requestID))
		return
	}
	if err := h.store.UpdateDefinitionStatus(r.Context(), id, req.Status); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "definition status update failed", err), requestID))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

/* Instances */

func (h *Handlers) CreateInstance(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "instance creation failed: request body parsing error", err), requestID))
		return
	}
	if req.DefinitionSlug == "" {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "definition_slug is required", nil), requestID))
		return
	}

	def, err := h.store.GetActiveDefinitionBySlug(r.Context(), req.DefinitionSlug)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load definition", err), requestID))
		return
	}
	if def == nil {
		respondError(w, WrapError(NewError(http.StatusNotFound,
			fmt.Sprintf("no active definition: slug='%s'", req.DefinitionSlug), nil), requestID))
		return
	}

	inst := &db.ProcedureInstance{
		ID:           uuid.New(),
		DefinitionID: def.ID,
		WorkerRoleID: def.WorkerRoleID,
		Status:       db.InstanceStatusPending,
		Position:     1,
		WorkingData:  db.JSONBMap(req.SeedData),
		Priority:     req.Priority,
	}
	if err := h.store.CreateInstance(r.Context(), inst); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "instance creation failed", err), requestID))
		return
	}

	job := &db.Job{
		Type:       db.JobTypeAdvance,
		Status:     db.JobStatusQueued,
		Payload:    db.JSONBMap{"instance_id": inst.ID.String()},
		RunAt:      time.Now(),
		MaxRetries: 3,
	}
	if err := h.store.EnqueueJob(r.Context(), job); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "instance enqueue failed", err), requestID))
		return
	}

	respondJSON(w, http.StatusCreated, toInstanceResponse(inst))
}

func (h *Handlers) GetInstance(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid instance ID format", err), requestID))
		return
	}

	inst, err := h.store.GetInstance(r.Context(), id)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load instance", err), requestID))
		return
	}
	if inst == nil {
		respondError(w, WrapError(ErrNotFound, requestID))
		return
	}
	respondJSON(w, http.StatusOK, toInstanceResponse(inst))
}

func (h *Handlers) ListInstances(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var status *string
	if s := r.URL.Query().Get("status"); s != "" {
		status = &s
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	instances, err := h.store.ListInstances(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list instances", err), requestID))
		return
	}

	responses := make([]InstanceResponse, len(instances))
	for i := range instances {
		responses[i] = toInstanceResponse(&instances[i])
	}
	respondJSON(w, http.StatusOK, responses)
}

/*
 * ResumeInstance is the webhook target for human responses. Resuming an
 * instance that is not paused on a human is a no-op, so duplicate
 * webhook deliveries are harmless.
 */
func (h *Handlers) ResumeInstance(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid instance ID format", err), requestID))
		return
	}

	var req ResumeInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "request body parsing error", err), requestID))
		return
	}

	if err := h.resumer.Resume(r.Context(), id, req.ResponseData); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "instance resume failed", err), requestID))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

/* ApproveInstance records an approval verdict and resumes the instance */
func (h *Handlers) ApproveInstance(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid instance ID format", err), requestID))
		return
	}

	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "request body parsing error", err), requestID))
		return
	}

	data := map[string]interface{}{
		"approved": req.Approved,
	}
	if req.Comment != "" {
		data["approval_comment"] = req.Comment
	}
	for key, value := range req.Data {
		data[key] = value
	}

	if err := h.resumer.Resume(r.Context(), id, data); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "instance approval failed", err), requestID))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

/* Audit */

func (h *Handlers) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid instance ID format", err), requestID))
		return
	}

	var events []db.AuditEvent
	if eventType := r.URL.Query().Get("type"); eventType != "" {
		events, err = h.store.ListAuditEventsByType(r.Context(), id, eventType)
	} else {
		events, err = h.store.ListAuditEvents(r.Context(), id)
	}
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list audit events", err), requestID))
		return
	}

	responses := make([]AuditEventResponse, len(events))
	for i := range events {
		responses[i] = toAuditEventResponse(&events[i])
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *Handlers) GetInstanceCost(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "invalid instance ID format", err), requestID))
		return
	}

	usage, err := h.store.InstanceTokenUsage(r.Context(), id)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to compute instance cost", err), requestID))
		return
	}

	resp := InstanceCostResponse{InstanceID: id, Tiers: []TierCostResponse{}}
	for _, u := range usage {
		cost := 0.0
		if h.ladder != nil {
			if tier, err := h.ladder.Tier(u.Tier); err == nil {
				cost = tier.Cost(u.TokensIn, u.TokensOut)
			}
		}
		resp.Tiers = append(resp.Tiers, TierCostResponse{
			Tier:      u.Tier,
			TokensIn:  u.TokensIn,
			TokensOut: u.TokensOut,
			Cost:      cost,
		})
		resp.TotalCost += cost
	}
	respondJSON(w, http.StatusOK, resp)
}

/* Operations */

func (h *Handlers) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	jobs, err := h.store.ListDeadJobs(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list dead letters", err), requestID))
		return
	}

	responses := make([]DeadJobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = DeadJobResponse{
			ID:           job.ID,
			Type:         job.Type,
			Payload:      job.Payload,
			RetryCount:   job.RetryCount,
			ErrorMessage: job.ErrorMessage,
			CreatedAt:    job.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *Handlers) ListRoleHeartbeats(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var roles []db.WorkerRole
	var err error
	if r.URL.Query().Get("stale") == "true" {
		roles, err = h.store.ListStaleHeartbeats(r.Context(), time.Now().Add(-h.staleHeartbeat))
	} else {
		roles, err = h.store.ListEnabledRoles(r.Context())
	}
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list role heartbeats", err), requestID))
		return
	}

	responses := make([]RoleHeartbeatResponse, len(roles))
	for i, role := range roles {
		responses[i] = RoleHeartbeatResponse{
			ID:              role.ID,
			Name:            role.Name,
			Enabled:         role.Enabled,
			LastHeartbeatAt: role.LastHeartbeatAt,
			HeartbeatNote:   role.HeartbeatNote,
		}
	}
	respondJSON(w, http.StatusOK, responses)
}

/* Roles */

/*
 * RegisterRole upserts a worker role by name. Re-registering an
 * existing role only updates its enabled flag; the scheduler picks the
 * change up on its next cycle.
 */
func (h *Handlers) RegisterRole(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	name := mux.Vars(r)["name"]

	var req RegisterRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "request body parsing error", err), requestID))
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	role := &db.WorkerRole{Name: name, Enabled: enabled}
	if err := h.store.UpsertWorkerRole(r.Context(), role); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "role registration failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusOK, toRoleResponse(role))
}

func (h *Handlers) GetRole(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	role, err := h.store.GetWorkerRoleByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load role", err), requestID))
		return
	}
	if role == nil {
		respondError(w, WrapError(ErrNotFound, requestID))
		return
	}
	respondJSON(w, http.StatusOK, toRoleResponse(role))
}

/* Triggers */

func (h *Handlers) CreateTrigger(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req CreateTriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "trigger creation failed: request body parsing error", err), requestID))
		return
	}
	if err := validateCreateTrigger(&req); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "trigger validation failed", err), requestID))
		return
	}

	role, err := h.store.GetWorkerRoleByName(r.Context(), req.WorkerRole)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load role", err), requestID))
		return
	}
	if role == nil {
		respondError(w, WrapError(NewError(http.StatusNotFound,
			fmt.Sprintf("unknown worker role: name='%s'", req.WorkerRole), nil), requestID))
		return
	}

	def, err := h.store.GetDefinitionBySlug(r.Context(), req.DefinitionSlug)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load definition", err), requestID))
		return
	}
	if def == nil {
		respondError(w, WrapError(NewError(http.StatusNotFound,
			fmt.Sprintf("unknown definition: slug='%s'", req.DefinitionSlug), nil), requestID))
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	interval := req.IntervalSeconds
	if interval <= 0 {
		interval = 300
	}
	trigger := &db.TriggerCheck{
		WorkerRoleID:    role.ID,
		Name:            req.Name,
		TriggerType:     req.TriggerType,
		DefinitionSlug:  req.DefinitionSlug,
		Config:          db.JSONBMap(req.Config),
		IntervalSeconds: interval,
		Enabled:         enabled,
	}
	if err := h.store.CreateTriggerCheck(r.Context(), trigger); err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "trigger creation failed", err), requestID))
		return
	}
	respondJSON(w, http.StatusCreated, toTriggerResponse(trigger))
}

func (h *Handlers) ListTriggers(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	roleName := r.URL.Query().Get("role")
	if roleName == "" {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "role query parameter is required", nil), requestID))
		return
	}
	role, err := h.store.GetWorkerRoleByName(r.Context(), roleName)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to load role", err), requestID))
		return
	}
	if role == nil {
		respondError(w, WrapError(ErrNotFound, requestID))
		return
	}

	checks, err := h.store.ListTriggerChecks(r.Context(), role.ID)
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusInternalServerError, "failed to list triggers", err), requestID))
		return
	}
	responses := make([]TriggerResponse, len(checks))
	for i := range checks {
		responses[i] = toTriggerResponse(&checks[i])
	}
	respondJSON(w, http.StatusOK, responses)
}

/* Helpers */

func validateCreateTrigger(req *CreateTriggerRequest) error {
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	if req.WorkerRole == "" {
		return fmt.Errorf("worker_role is required")
	}
	if req.DefinitionSlug == "" {
		return fmt.Errorf("definition_slug is required")
	}
	switch req.TriggerType {
	case triggers.TriggerInterval, triggers.TriggerInboundMessage, triggers.TriggerDataChange:
	default:
		return fmt.Errorf("unknown trigger type: type='%s'", req.TriggerType)
	}
	return nil
}

func validateCreateDefinition(req *CreateDefinitionRequest) error {
	if req.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	if req.Name == "" {
		return fmt.Errorf("name is required")
	}
	seen := map[int]bool{}
	for _, step := range req.Steps {
		if step.Position < 1 {
			return fmt.Errorf("step position must be >= 1: position=%d", step.Position)
		}
		if seen[step.Position] {
			return fmt.Errorf("duplicate step position: position=%d", step.Position)
		}
		seen[step.Position] = true
		if _, err := engine.ParseStepType(step.StepType); err != nil {
			return fmt.Errorf("step %d: %w", step.Position, err)
		}
	}
	return nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
