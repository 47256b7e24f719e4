/*-------------------------------------------------------------------------
 *
 * runner.go
 *    Trigger/watcher runner: external conditions become instances
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/triggers/runner.go
 *
 *-------------------------------------------------------------------------
 */

package triggers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
)

/* Trigger types, matching the trigger_checks schema constraint */
const (
	TriggerInterval       = "interval"
	TriggerInboundMessage = "inbound_message"
	TriggerDataChange     = "data_change"
)

/* Store is the persistence surface a trigger check needs */
type Store interface {
	GetActiveDefinitionBySlug(ctx context.Context, slug string) (*db.ProcedureDefinition, error)
	CreateInstance(ctx context.Context, inst *db.ProcedureInstance) error
	MarkTriggerChecked(ctx context.Context, id uuid.UUID) error
	MarkTriggerFired(ctx context.Context, id uuid.UUID) error
	InsertAuditEvent(ctx context.Context, event *db.AuditEvent) error
}

/* DataService is the external record store watched by data triggers */
type DataService interface {
	Query(ctx context.Context, filters map[string]interface{}) ([]map[string]interface{}, error)
}

/* Runner turns due trigger checks into new procedure instances */
type Runner struct {
	store   Store
	records DataService
}

/* NewRunner builds a trigger runner */
func NewRunner(store Store, records DataService) *Runner {
	return &Runner{store: store, records: records}
}

/*
 * RunCheck evaluates one due trigger and returns how many instances it
 * created. An interval trigger fires one instance per due interval; an
 * inbound message trigger fires one instance per pending message; a
 * data change trigger fires one instance per matching record. The
 * check is always marked checked, fired only when something was
 * created.
 */
func (r *Runner) RunCheck(ctx context.Context, check *db.TriggerCheck) (int, error) {
	if err := r.store.MarkTriggerChecked(ctx, check.ID); err != nil {
		return 0, fmt.Errorf("failed to mark trigger checked: name='%s', error=%w", check.Name, err)
	}

	def, err := r.store.GetActiveDefinitionBySlug(ctx, check.DefinitionSlug)
	if err != nil {
		return 0, fmt.Errorf("failed to load trigger definition: slug='%s', error=%w", check.DefinitionSlug, err)
	}
	if def == nil {
		return 0, fmt.Errorf("failed to load trigger definition: slug='%s', error=no active definition", check.DefinitionSlug)
	}

	var seeds []map[string]interface{}
	switch check.TriggerType {
	case TriggerInterval:
		seeds = []map[string]interface{}{
			{"triggered_at": time.Now().UTC().Format(time.RFC3339)},
		}

	case TriggerInboundMessage:
		messages, err := r.queryRecords(ctx, check)
		if err != nil {
			return 0, err
		}
		for _, message := range messages {
			seeds = append(seeds, map[string]interface{}{
				"inbound_message": message,
				"triggered_at":    time.Now().UTC().Format(time.RFC3339),
			})
		}

	case TriggerDataChange:
		records, err := r.queryRecords(ctx, check)
		if err != nil {
			return 0, err
		}
		for _, record := range records {
			seeds = append(seeds, map[string]interface{}{
				"trigger_record": record,
				"triggered_at":   time.Now().UTC().Format(time.RFC3339),
			})
		}

	default:
		return 0, fmt.Errorf("failed trigger check: name='%s', type='%s', error=unknown trigger type", check.Name, check.TriggerType)
	}

	priority := jsonbInt(check.Config, "priority", 0)
	created := 0
	for _, seed := range seeds {
		inst := &db.ProcedureInstance{
			ID:           uuid.New(),
			DefinitionID: def.ID,
			WorkerRoleID: &check.WorkerRoleID,
			Status:       db.InstanceStatusPending,
			Position:     1,
			WorkingData:  db.FromMap(seed),
			StepRetries:  db.JSONBMap{},
			TierFloors:   db.JSONBMap{},
			Priority:     priority,
		}
		if err := r.store.CreateInstance(ctx, inst); err != nil {
			return created, fmt.Errorf("failed to create triggered instance: trigger='%s', error=%w", check.Name, err)
		}
		pos := 1
		event := &db.AuditEvent{
			InstanceID:   inst.ID,
			StepPosition: &pos,
			EventType:    db.EventNote,
			Summary:      fmt.Sprintf("Instance created by trigger '%s'", check.Name),
			Detail:       db.JSONBMap{"trigger_id": check.ID.String(), "trigger_type": check.TriggerType},
		}
		if err := r.store.InsertAuditEvent(ctx, event); err != nil {
			log.Error().Err(err).Str("instance_id", inst.ID.String()).Msg("Failed to record trigger audit event")
		}
		created++
	}

	if created > 0 {
		if err := r.store.MarkTriggerFired(ctx, check.ID); err != nil {
			log.Error().Err(err).Str("trigger", check.Name).Msg("Failed to mark trigger fired")
		}
	}

	log.Info().
		Str("trigger", check.Name).
		Str("type", check.TriggerType).
		Int("created", created).
		Msg("Trigger check complete")
	return created, nil
}

/* queryRecords asks the record service for whatever the check watches */
func (r *Runner) queryRecords(ctx context.Context, check *db.TriggerCheck) ([]map[string]interface{}, error) {
	filters, _ := check.Config["filters"].(map[string]interface{})
	records, err := r.records.Query(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed trigger data query: name='%s', error=%w", check.Name, err)
	}
	return records, nil
}

func jsonbInt(m db.JSONBMap, key string, fallback int) int {
	if m == nil {
		return fallback
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
