/*-------------------------------------------------------------------------
 *
 * instance.go
 *    Instance management commands for basecamp-cli
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    cli/cmd/instance.go
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
)

var (
	seedJSON       string
	startPriority  int
	statusFilter   string
	resumeDataJSON string
)

var instanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Manage procedure instances",
	Long:  "Start, list, inspect, and resume procedure instances",
}

var instanceStartCmd = &cobra.Command{
	Use:   "start [slug]",
	Short: "Start an instance of an active definition",
	Args:  cobra.ExactArgs(1),
	RunE:  runStartInstance,
}

var instanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List instances",
	RunE:  runListInstances,
}

var instanceShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show instance details",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowInstance,
}

var instanceAuditCmd = &cobra.Command{
	Use:   "audit [id]",
	Short: "Show an instance's audit trail",
	Args:  cobra.ExactArgs(1),
	RunE:  runInstanceAudit,
}

var instanceResumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Deliver a human response to a paused instance",
	Args:  cobra.ExactArgs(1),
	RunE:  runResumeInstance,
}

func init() {
	instanceStartCmd.Flags().StringVar(&seedJSON, "seed", "{}", "Seed data as JSON")
	instanceStartCmd.Flags().IntVar(&startPriority, "priority", 0, "Instance priority")
	instanceListCmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status")
	instanceResumeCmd.Flags().StringVar(&resumeDataJSON, "data", "{}", "Response data as JSON")

	instanceCmd.AddCommand(instanceStartCmd)
	instanceCmd.AddCommand(instanceListCmd)
	instanceCmd.AddCommand(instanceShowCmd)
	instanceCmd.AddCommand(instanceAuditCmd)
	instanceCmd.AddCommand(instanceResumeCmd)
}

func runStartInstance(cmd *cobra.Command, args []string) error {
	seed := map[string]interface{}{}
	if err := json.Unmarshal([]byte(seedJSON), &seed); err != nil {
		return fmt.Errorf("invalid seed JSON: %w", err)
	}

	apiClient := client.NewClient(apiURL)
	inst, err := apiClient.CreateInstance(args[0], seed, startPriority)
	if err != nil {
		return fmt.Errorf("failed to start instance: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(inst)
	}
	fmt.Printf("Instance started: id=%v, status=%v\n", inst["id"], inst["status"])
	return nil
}

func runListInstances(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)
	instances, err := apiClient.ListInstances(statusFilter)
	if err != nil {
		return fmt.Errorf("failed to list instances: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(instances)
	}

	fmt.Printf("%-38s %-14s %-10s %s\n", "ID", "STATUS", "POSITION", "CREATED")
	for _, inst := range instances {
		fmt.Printf("%-38v %-14v %-10v %v\n", inst["id"], inst["status"], inst["position"], inst["created_at"])
	}
	return nil
}

func runShowInstance(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)
	inst, err := apiClient.GetInstance(args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch instance: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(inst)
}

func runInstanceAudit(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)
	trail, err := apiClient.GetAuditTrail(args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch audit trail: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(trail)
	}

	for _, event := range trail {
		fmt.Printf("[%v] step=%v %v: %v\n", event["created_at"], event["step_position"], event["event_type"], event["summary"])
	}
	return nil
}

func runResumeInstance(cmd *cobra.Command, args []string) error {
	data := map[string]interface{}{}
	if err := json.Unmarshal([]byte(resumeDataJSON), &data); err != nil {
		return fmt.Errorf("invalid response data JSON: %w", err)
	}

	apiClient := client.NewClient(apiURL)
	if err := apiClient.ResumeInstance(args[0], data); err != nil {
		return fmt.Errorf("failed to resume instance: %w", err)
	}

	fmt.Printf("Instance resumed: id=%s\n", args[0])
	return nil
}
