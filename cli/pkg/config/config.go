/*-------------------------------------------------------------------------
 *
 * config.go
 *    Procedure file loading and validation for basecamp-cli
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    cli/pkg/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hoopsho/basecamp/internal/engine"
)

/* ProcedureStep is one step in a procedure file */
type ProcedureStep struct {
	Position       int                    `yaml:"position" json:"position"`
	Name           string                 `yaml:"name" json:"name"`
	StepType       string                 `yaml:"step_type" json:"step_type"`
	Config         map[string]interface{} `yaml:"config" json:"config"`
	MinTier        int                    `yaml:"min_tier" json:"min_tier"`
	MaxTier        int                    `yaml:"max_tier" json:"max_tier"`
	OnSuccess      string                 `yaml:"on_success" json:"on_success"`
	OnFailure      string                 `yaml:"on_failure" json:"on_failure"`
	OnUncertain    string                 `yaml:"on_uncertain" json:"on_uncertain"`
	MaxRetries     int                    `yaml:"max_retries" json:"max_retries"`
	TimeoutSeconds int                    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

/* Procedure is the file form of a procedure definition */
type Procedure struct {
	Slug         string          `yaml:"slug" json:"slug"`
	Name         string          `yaml:"name" json:"name"`
	MaxTier      int             `yaml:"max_tier" json:"max_tier"`
	Capabilities []string        `yaml:"capabilities" json:"capabilities"`
	Steps        []ProcedureStep `yaml:"steps" json:"steps"`
}

/* LoadProcedure reads and validates a procedure YAML file */
func LoadProcedure(path string) (*Procedure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read procedure file: path='%s', error=%w", path, err)
	}

	var proc Procedure
	if err := yaml.Unmarshal(data, &proc); err != nil {
		return nil, fmt.Errorf("failed to parse procedure file: path='%s', error=%w", path, err)
	}

	if err := Validate(&proc); err != nil {
		return nil, err
	}
	return &proc, nil
}

/* Validate checks a procedure for structural problems */
func Validate(proc *Procedure) error {
	if proc.Slug == "" {
		return fmt.Errorf("procedure slug is required")
	}
	if proc.Name == "" {
		return fmt.Errorf("procedure name is required")
	}
	if len(proc.Steps) == 0 {
		return fmt.Errorf("procedure has no steps: slug='%s'", proc.Slug)
	}

	seen := map[int]bool{}
	for _, step := range proc.Steps {
		if step.Position < 1 {
			return fmt.Errorf("step position must be >= 1: step='%s', position=%d", step.Name, step.Position)
		}
		if seen[step.Position] {
			return fmt.Errorf("duplicate step position: position=%d", step.Position)
		}
		seen[step.Position] = true

		if _, err := engine.ParseStepType(step.StepType); err != nil {
			return fmt.Errorf("step '%s': %w", step.Name, err)
		}
		for _, directive := range []struct {
			field string
			value string
		}{
			{"on_success", step.OnSuccess},
			{"on_failure", step.OnFailure},
			{"on_uncertain", step.OnUncertain},
		} {
			if directive.value == "" {
				continue
			}
			if _, err := engine.ParseDirective(directive.value); err != nil {
				return fmt.Errorf("step '%s' %s: %w", step.Name, directive.field, err)
			}
		}
		if step.MinTier > step.MaxTier && step.MaxTier != 0 {
			return fmt.Errorf("step '%s': min_tier %d exceeds max_tier %d", step.Name, step.MinTier, step.MaxTier)
		}
	}

	/* Positions must form a contiguous run starting at 1 */
	positions := make([]int, 0, len(seen))
	for p := range seen {
		positions = append(positions, p)
	}
	sort.Ints(positions)
	for i, p := range positions {
		if p != i+1 {
			return fmt.Errorf("step positions must be contiguous from 1: missing position %d", i+1)
		}
	}

	return nil
}
