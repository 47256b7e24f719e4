/*-------------------------------------------------------------------------
 *
 * procedure.go
 *    Procedure definition commands for basecamp-cli
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    cli/cmd/procedure.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoopsho/basecamp/cli/pkg/client"
	"github.com/hoopsho/basecamp/cli/pkg/config"
)

var activateAfterLoad bool

var procedureCmd = &cobra.Command{
	Use:   "procedure",
	Short: "Manage procedure definitions",
	Long:  "Load, validate, list, and activate procedure definitions",
}

var procedureValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a procedure file without uploading it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidateProcedure,
}

var procedureLoadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Upload a procedure file as a draft definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoadProcedure,
}

var procedureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List procedure definitions",
	RunE:  runListProcedures,
}

func init() {
	procedureLoadCmd.Flags().BoolVar(&activateAfterLoad, "activate", false, "Activate the definition after loading")

	procedureCmd.AddCommand(procedureValidateCmd)
	procedureCmd.AddCommand(procedureLoadCmd)
	procedureCmd.AddCommand(procedureListCmd)
}

func runValidateProcedure(cmd *cobra.Command, args []string) error {
	proc, err := config.LoadProcedure(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Procedure is valid: slug=%s, steps=%d\n", proc.Slug, len(proc.Steps))
	return nil
}

func runLoadProcedure(cmd *cobra.Command, args []string) error {
	proc, err := config.LoadProcedure(args[0])
	if err != nil {
		return err
	}

	steps := make([]map[string]interface{}, len(proc.Steps))
	for i, step := range proc.Steps {
		steps[i] = map[string]interface{}{
			"position":        step.Position,
			"name":            step.Name,
			"step_type":       step.StepType,
			"config":          step.Config,
			"min_tier":        step.MinTier,
			"max_tier":        step.MaxTier,
			"on_success":      step.OnSuccess,
			"on_failure":      step.OnFailure,
			"on_uncertain":    step.OnUncertain,
			"max_retries":     step.MaxRetries,
			"timeout_seconds": step.TimeoutSeconds,
		}
	}

	apiClient := client.NewClient(apiURL)
	created, err := apiClient.CreateDefinition(map[string]interface{}{
		"slug":         proc.Slug,
		"name":         proc.Name,
		"max_tier":     proc.MaxTier,
		"capabilities": proc.Capabilities,
		"steps":        steps,
	})
	if err != nil {
		return fmt.Errorf("failed to create definition: %w", err)
	}

	id, _ := created["id"].(string)
	fmt.Printf("Definition created: id=%s, slug=%s\n", id, proc.Slug)

	if activateAfterLoad {
		if err := apiClient.ActivateDefinition(id); err != nil {
			return fmt.Errorf("failed to activate definition: %w", err)
		}
		fmt.Printf("Definition activated: id=%s\n", id)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(created)
	}
	return nil
}

func runListProcedures(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)
	defs, err := apiClient.ListDefinitions()
	if err != nil {
		return fmt.Errorf("failed to list definitions: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(defs)
	}

	fmt.Printf("%-38s %-24s %-8s %s\n", "ID", "SLUG", "VERSION", "STATUS")
	for _, def := range defs {
		fmt.Printf("%-38v %-24v %-8v %v\n", def["id"], def["slug"], def["version"], def["status"])
	}
	return nil
}
