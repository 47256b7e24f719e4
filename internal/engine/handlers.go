/*-------------------------------------------------------------------------
 *
 * handlers.go
 *    Type-specific step handlers
 *
 * Handlers receive the claimed instance and the step configuration and
 * return a structured outcome. They never panic for expected failures:
 * transport problems, empty results, and low confidence all come back
 * as outcomes the engine routes through directives.
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/engine/handlers.go
 *
 *-------------------------------------------------------------------------
 */

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hoopsho/basecamp/internal/db"
	"github.com/hoopsho/basecamp/internal/decisions"
)

/* renderText interpolates {{key}} placeholders against working data */
func renderText(template string, data map[string]interface{}) string {
	return decisions.RenderTemplate(template, data)
}

/* dispatch routes one step to its handler; the switch is exhaustive */
func (e *Engine) dispatch(ctx context.Context, inst *db.ProcedureInstance, def *db.ProcedureDefinition, step *db.StepDefinition, stepType StepType) Outcome {
	switch stepType {
	case StepConditionalQuery:
		return e.handleConditionalQuery(ctx, inst, step)
	case StepExternalCall:
		return e.handleExternalCall(ctx, inst, step)
	case StepClassify, StepDraftContent, StepDecide, StepAnalyze:
		return e.handleDecisionStep(ctx, inst, def, step, stepType)
	case StepNotify:
		return e.handleNotify(ctx, inst, step)
	case StepSubprocess:
		return e.handleSubprocess(ctx, inst, step)
	case StepRequestHumanInput, StepScheduleFollowup, StepWait:
		/* suspension types are handled before dispatch */
		return FailureOutcome("step type '%s' is not dispatchable", stepType)
	default:
		return FailureOutcome("no handler for step type '%s'", stepType)
	}
}

/*
 * handleConditionalQuery runs a filtered lookup against the external
 * data service and records what it found. String filter values are
 * template-interpolated so earlier steps can feed later queries.
 */
func (e *Engine) handleConditionalQuery(ctx context.Context, inst *db.ProcedureInstance, step *db.StepDefinition) Outcome {
	filters := renderFilters(step.Config, inst.WorkingData.ToMap())

	records, err := e.records.Query(ctx, filters)
	if err != nil {
		return FailureOutcome("query failed: %v", err)
	}

	outputKey := configString(step.Config, "output_key", "records")
	return SuccessOutcome(map[string]interface{}{
		outputKey:            records,
		outputKey + "_count": len(records),
	})
}

/* handleExternalCall performs one find/update against the data service */
func (e *Engine) handleExternalCall(ctx context.Context, inst *db.ProcedureInstance, step *db.StepDefinition) Outcome {
	operation := configString(step.Config, "operation", "find")
	outputKey := configString(step.Config, "output_key", "record")
	working := inst.WorkingData.ToMap()

	recordID := renderText(configString(step.Config, "record_id", ""), working)

	var (
		result interface{}
		err    error
	)
	start := time.Now()
	switch operation {
	case "find":
		if recordID == "" {
			return FailureOutcome("external call missing record_id: step='%s'", step.Name)
		}
		result, err = e.records.Find(ctx, recordID)
	case "update":
		if recordID == "" {
			return FailureOutcome("external call missing record_id: step='%s'", step.Name)
		}
		attrs, ok := step.Config["attrs"].(map[string]interface{})
		if !ok {
			return FailureOutcome("external call missing attrs: step='%s'", step.Name)
		}
		rendered := make(map[string]interface{}, len(attrs))
		for k, v := range attrs {
			if s, isStr := v.(string); isStr {
				rendered[k] = renderText(s, working)
			} else {
				rendered[k] = v
			}
		}
		result, err = e.records.Update(ctx, recordID, rendered)
	case "query":
		result, err = e.records.Query(ctx, renderFilters(step.Config, working))
	default:
		return FailureOutcome("unknown external call operation: operation='%s'", operation)
	}

	latency := int(time.Since(start).Milliseconds())
	detail := db.JSONBMap{"operation": operation}
	if recordID != "" {
		detail["record_id"] = recordID
	}
	event := &db.AuditEvent{
		InstanceID:   inst.ID,
		StepPosition: &step.Position,
		EventType:    db.EventExternalCall,
		LatencyMs:    &latency,
		Summary:      fmt.Sprintf("External %s call at step %d", operation, step.Position),
		Detail:       detail,
	}
	if auditErr := e.store.InsertAuditEvent(ctx, event); auditErr != nil {
		log.Error().Err(auditErr).Str("instance_id", inst.ID.String()).Msg("Failed to record external call audit event")
	}

	if err != nil {
		return FailureOutcome("external %s call failed: %v", operation, err)
	}
	return SuccessOutcome(map[string]interface{}{outputKey: result})
}

/*
 * handleDecisionStep routes classify/draft/decide/analyze through the
 * tier ladder. The per-step tier floor raised by escalate_tier lifts
 * the starting tier on re-execution; the definition's maximum tier
 * caps the top regardless of what the step declares.
 */
func (e *Engine) handleDecisionStep(ctx context.Context, inst *db.ProcedureInstance, def *db.ProcedureDefinition, step *db.StepDefinition, stepType StepType) Outcome {
	promptTemplate, _ := step.Config["prompt"].(string)
	working := inst.WorkingData.ToMap()
	prompt := renderText(promptTemplate, working)
	systemContext := renderText(configString(step.Config, "system_context", ""), working)

	maxTier := min(step.MaxTier, def.MaxTier)
	floor := jsonbInt(inst.TierFloors, fmt.Sprintf("%d", step.Position), step.MinTier)
	minTier := min(max(step.MinTier, floor), maxTier)

	decision, err := e.router.Decide(ctx, decisions.DecideRequest{
		InstanceID:    inst.ID,
		StepPosition:  step.Position,
		SystemContext: systemContext,
		Prompt:        prompt,
		MinTier:       minTier,
		MaxTier:       maxTier,
	})
	if err != nil {
		return FailureOutcome("decision failed: %v", err)
	}

	outputKey := configString(step.Config, "output_key", defaultOutputKey(stepType))
	output := map[string]interface{}{
		outputKey + "_confidence": decision.Confidence,
	}
	if len(decision.Output) > 0 {
		output[outputKey] = decision.Output
	} else {
		output[outputKey] = decision.Action
	}
	if decision.Reason != "" {
		output[outputKey+"_reason"] = decision.Reason
	}

	if decision.NeedsHuman {
		return UncertainOutcome(decision, output)
	}
	return SuccessOutcome(output)
}

func defaultOutputKey(stepType StepType) string {
	switch stepType {
	case StepClassify:
		return "classification"
	case StepDraftContent:
		return "draft"
	case StepAnalyze:
		return "analysis"
	default:
		return "decision"
	}
}

/* handleNotify posts a chat message or sends a templated email */
func (e *Engine) handleNotify(ctx context.Context, inst *db.ProcedureInstance, step *db.StepDefinition) Outcome {
	working := inst.WorkingData.ToMap()
	via := configString(step.Config, "via", "chat")

	switch via {
	case "chat":
		channel := configString(step.Config, "channel", e.cfg.EscalationChannel)
		text := renderText(configString(step.Config, "message", ""), working)
		if text == "" {
			return FailureOutcome("notify step missing message: step='%s'", step.Name)
		}
		handle, err := e.chat.PostMessage(ctx, channel, text, inst.ThreadHandle)
		if err != nil {
			return FailureOutcome("chat notification failed: %v", err)
		}
		if inst.ThreadHandle == nil && handle != "" {
			if err := e.store.SetThreadHandle(ctx, inst.ID, handle); err != nil {
				log.Error().Err(err).Str("instance_id", inst.ID.String()).Msg("Failed to store thread handle")
			}
		}
		return SuccessOutcome(map[string]interface{}{"last_notification": handle})

	case "email":
		recipient := renderText(configString(step.Config, "recipient", ""), working)
		templateID := configString(step.Config, "template_id", "")
		if recipient == "" || templateID == "" {
			return FailureOutcome("email notify step missing recipient or template_id: step='%s'", step.Name)
		}
		variables := map[string]interface{}{}
		if raw, ok := step.Config["variables"].(map[string]interface{}); ok {
			for k, v := range raw {
				if s, isStr := v.(string); isStr {
					variables[k] = renderText(s, working)
				} else {
					variables[k] = v
				}
			}
		}
		messageID, err := e.messenger.SendTemplated(ctx, recipient, templateID, variables)
		if err != nil {
			return FailureOutcome("templated message failed: %v", err)
		}
		return SuccessOutcome(map[string]interface{}{"last_notification": messageID})

	default:
		return FailureOutcome("unknown notification transport: via='%s'", via)
	}
}

/*
 * handleSubprocess spawns a child instance against a named definition
 * and enqueues it independently. The parent does not wait; composition
 * is strictly fire-and-forget.
 */
func (e *Engine) handleSubprocess(ctx context.Context, inst *db.ProcedureInstance, step *db.StepDefinition) Outcome {
	slug := configString(step.Config, "definition_slug", "")
	if slug == "" {
		return FailureOutcome("subprocess step missing definition_slug: step='%s'", step.Name)
	}

	childDef, err := e.store.GetActiveDefinitionBySlug(ctx, slug)
	if err != nil {
		return FailureOutcome("subprocess definition lookup failed: slug='%s', error=%v", slug, err)
	}
	if childDef == nil {
		return FailureOutcome("subprocess definition not found: slug='%s'", slug)
	}

	seed := db.JSONBMap{}
	if raw, ok := step.Config["seed"].(map[string]interface{}); ok {
		working := inst.WorkingData.ToMap()
		for k, v := range raw {
			if s, isStr := v.(string); isStr {
				seed[k] = renderText(s, working)
			} else {
				seed[k] = v
			}
		}
	}

	child := &db.ProcedureInstance{
		ID:           uuid.New(),
		DefinitionID: childDef.ID,
		WorkerRoleID: inst.WorkerRoleID,
		Status:       db.InstanceStatusPending,
		Position:     1,
		WorkingData:  seed,
		StepRetries:  db.JSONBMap{},
		TierFloors:   db.JSONBMap{},
		Priority:     inst.Priority,
		ParentID:     &inst.ID,
	}
	if err := e.store.CreateInstance(ctx, child); err != nil {
		return FailureOutcome("failed to create subprocess instance: slug='%s', error=%v", slug, err)
	}
	if err := e.enqueueAdvance(ctx, child.ID, 1, 0, child.Priority); err != nil {
		return FailureOutcome("failed to enqueue subprocess instance: id='%s', error=%v", child.ID, err)
	}

	log.Info().
		Str("instance_id", inst.ID.String()).
		Str("child_id", child.ID.String()).
		Str("definition", slug).
		Msg("Subprocess instance created")

	return SuccessOutcome(map[string]interface{}{
		"subprocess_" + slug: child.ID.String(),
	})
}

/* renderFilters interpolates string filter values against working data */
func renderFilters(cfg db.JSONBMap, working map[string]interface{}) map[string]interface{} {
	filters := map[string]interface{}{}
	raw, ok := cfg["filters"].(map[string]interface{})
	if !ok {
		return filters
	}
	for k, v := range raw {
		if s, isStr := v.(string); isStr {
			filters[k] = renderText(s, working)
		} else {
			filters[k] = v
		}
	}
	return filters
}
