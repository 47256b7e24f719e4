/*-------------------------------------------------------------------------
 *
 * step.go
 *    Step type enumeration
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/engine/step.go
 *
 *-------------------------------------------------------------------------
 */

package engine

import "fmt"

/*
 * StepType is the closed set of step kinds the engine can execute.
 * Dispatch over this enum is exhaustive; an unknown type tag in a step
 * definition is a configuration error that fails the instance, never a
 * silent skip.
 */
type StepType int

const (
	StepConditionalQuery StepType = iota
	StepExternalCall
	StepClassify
	StepDraftContent
	StepDecide
	StepAnalyze
	StepNotify
	StepRequestHumanInput
	StepScheduleFollowup
	StepWait
	StepSubprocess
)

var stepTypeNames = map[StepType]string{
	StepConditionalQuery:  "conditional_query",
	StepExternalCall:      "external_call",
	StepClassify:          "classify",
	StepDraftContent:      "draft_content",
	StepDecide:            "decide",
	StepAnalyze:           "analyze",
	StepNotify:            "notify",
	StepRequestHumanInput: "request_human_input",
	StepScheduleFollowup:  "schedule_followup",
	StepWait:              "wait",
	StepSubprocess:        "subprocess",
}

var stepTypesByName = func() map[string]StepType {
	m := make(map[string]StepType, len(stepTypeNames))
	for t, name := range stepTypeNames {
		m[name] = t
	}
	return m
}()

func (t StepType) String() string {
	if name, ok := stepTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

/* ParseStepType resolves a step definition's type tag */
func ParseStepType(name string) (StepType, error) {
	t, ok := stepTypesByName[name]
	if !ok {
		return 0, fmt.Errorf("failed to parse step type: type='%s'", name)
	}
	return t, nil
}

/* IsDecisionBearing reports whether the step type routes through the decision ladder */
func (t StepType) IsDecisionBearing() bool {
	switch t {
	case StepClassify, StepDraftContent, StepDecide, StepAnalyze:
		return true
	default:
		return false
	}
}
