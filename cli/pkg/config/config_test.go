/*-------------------------------------------------------------------------
 *
 * config_test.go
 *    Tests for procedure file validation
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    cli/pkg/config/config_test.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validProcedure = `
slug: invoice-chase
name: Invoice Chasing
max_tier: 2
capabilities:
  - crm.read
  - email.send
steps:
  - position: 1
    name: find overdue invoices
    step_type: conditional_query
    config:
      filters:
        status: overdue
      output_key: invoices
    on_success: advance
    on_failure: fail
  - position: 2
    name: draft reminder
    step_type: draft_content
    config:
      prompt: "Draft a payment reminder for {{invoices}}"
    min_tier: 0
    max_tier: 2
    on_success: advance
    on_failure: retry
    on_uncertain: escalate
    max_retries: 2
  - position: 3
    name: send reminder
    step_type: notify
    config:
      via: chat
      channel: billing
      message: "Sent reminder: {{draft}}"
    on_success: complete
    on_failure: escalate
`

func writeProcedure(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "procedure.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidProcedure(t *testing.T) {
	proc, err := LoadProcedure(writeProcedure(t, validProcedure))
	require.NoError(t, err)
	assert.Equal(t, "invoice-chase", proc.Slug)
	assert.Len(t, proc.Steps, 3)
	assert.Equal(t, "draft_content", proc.Steps[1].StepType)
	assert.Equal(t, []string{"crm.read", "email.send"}, proc.Capabilities)
}

func TestValidateRejectsUnknownStepType(t *testing.T) {
	proc := &Procedure{
		Slug: "x", Name: "X",
		Steps: []ProcedureStep{{Position: 1, Name: "a", StepType: "teleport"}},
	}
	err := Validate(proc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
}

func TestValidateRejectsBadDirective(t *testing.T) {
	proc := &Procedure{
		Slug: "x", Name: "X",
		Steps: []ProcedureStep{{Position: 1, Name: "a", StepType: "notify", OnFailure: "explode"}},
	}
	err := Validate(proc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_failure")
}

func TestValidateRequiresContiguousPositions(t *testing.T) {
	proc := &Procedure{
		Slug: "x", Name: "X",
		Steps: []ProcedureStep{
			{Position: 1, Name: "a", StepType: "notify"},
			{Position: 3, Name: "b", StepType: "notify"},
		},
	}
	err := Validate(proc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contiguous")
}

func TestValidateRejectsDuplicatePositions(t *testing.T) {
	proc := &Procedure{
		Slug: "x", Name: "X",
		Steps: []ProcedureStep{
			{Position: 1, Name: "a", StepType: "notify"},
			{Position: 1, Name: "b", StepType: "notify"},
		},
	}
	require.Error(t, Validate(proc))
}

func TestGotoDirectiveIsAccepted(t *testing.T) {
	proc := &Procedure{
		Slug: "x", Name: "X",
		Steps: []ProcedureStep{
			{Position: 1, Name: "a", StepType: "decide", OnFailure: "3"},
			{Position: 2, Name: "b", StepType: "notify"},
			{Position: 3, Name: "c", StepType: "notify"},
		},
	}
	require.NoError(t, Validate(proc))
}
