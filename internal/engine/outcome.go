/*-------------------------------------------------------------------------
 *
 * outcome.go
 *    Step outcome directives and handler results
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    internal/engine/outcome.go
 *
 *-------------------------------------------------------------------------
 */

package engine

import (
	"fmt"
	"strconv"

	"github.com/hoopsho/basecamp/internal/decisions"
)

/* DirectiveKind discriminates the outcome directive union */
type DirectiveKind int

const (
	DirectiveAdvance DirectiveKind = iota
	DirectiveComplete
	DirectiveRetry
	DirectiveEscalate
	DirectiveFail
	DirectiveEscalateTier
	DirectiveGoto
)

/*
 * Directive is the parsed form of an on_success / on_failure /
 * on_uncertain column. A numeric string is an explicit target position
 * (DirectiveGoto with Target set); everything else must be one of the
 * sentinel words. Parsing happens once when the step is loaded, so a
 * numeric-looking sentinel can never be misread at dispatch time.
 */
type Directive struct {
	Kind   DirectiveKind
	Target int
}

func (d Directive) String() string {
	switch d.Kind {
	case DirectiveAdvance:
		return "advance"
	case DirectiveComplete:
		return "complete"
	case DirectiveRetry:
		return "retry"
	case DirectiveEscalate:
		return "escalate"
	case DirectiveFail:
		return "fail"
	case DirectiveEscalateTier:
		return "escalate_tier"
	case DirectiveGoto:
		return strconv.Itoa(d.Target)
	default:
		return fmt.Sprintf("unknown(%d)", int(d.Kind))
	}
}

/* ParseDirective parses one directive column value */
func ParseDirective(raw string) (Directive, error) {
	switch raw {
	case "advance":
		return Directive{Kind: DirectiveAdvance}, nil
	case "complete":
		return Directive{Kind: DirectiveComplete}, nil
	case "retry":
		return Directive{Kind: DirectiveRetry}, nil
	case "escalate":
		return Directive{Kind: DirectiveEscalate}, nil
	case "fail":
		return Directive{Kind: DirectiveFail}, nil
	case "escalate_tier":
		return Directive{Kind: DirectiveEscalateTier}, nil
	}

	if target, err := strconv.Atoi(raw); err == nil {
		if target < 1 {
			return Directive{}, fmt.Errorf("failed to parse directive: target=%d, error=position must be >= 1", target)
		}
		return Directive{Kind: DirectiveGoto, Target: target}, nil
	}

	return Directive{}, fmt.Errorf("failed to parse directive: value='%s'", raw)
}

/* OutcomeStatus is the tri-state result of one handler dispatch */
type OutcomeStatus int

const (
	OutcomeSuccess OutcomeStatus = iota
	OutcomeFailure
	OutcomeUncertain
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeUncertain:
		return "uncertain"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

/*
 * Outcome is what a handler hands back to the engine. Handlers never
 * raise for expected conditions; transient failures, bad content, and
 * low confidence all come back as structured outcomes the engine
 * resolves through the step's directives.
 */
type Outcome struct {
	Status   OutcomeStatus
	Output   map[string]interface{}
	ErrorMsg string
	Decision *decisions.Decision
}

/* SuccessOutcome builds a success with output to merge */
func SuccessOutcome(output map[string]interface{}) Outcome {
	return Outcome{Status: OutcomeSuccess, Output: output}
}

/* FailureOutcome builds a failure with a description */
func FailureOutcome(format string, args ...interface{}) Outcome {
	return Outcome{Status: OutcomeFailure, ErrorMsg: fmt.Sprintf(format, args...)}
}

/* UncertainOutcome builds a low-confidence result */
func UncertainOutcome(d *decisions.Decision, output map[string]interface{}) Outcome {
	return Outcome{Status: OutcomeUncertain, Output: output, Decision: d}
}
