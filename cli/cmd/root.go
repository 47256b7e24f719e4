/*-------------------------------------------------------------------------
 *
 * root.go
 *    Root command and global flags for basecamp-cli
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    cli/cmd/root.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL       string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "basecamp-cli",
	Short: "Basecamp CLI - procedure and instance management",
	Long: `Basecamp CLI manages SOP procedure definitions and running instances.

Examples:
  # Validate a procedure file without uploading it
  basecamp-cli procedure validate invoice-chase.yaml

  # Load a procedure file and activate it
  basecamp-cli procedure load invoice-chase.yaml --activate

  # List definitions
  basecamp-cli procedure list

  # Start an instance
  basecamp-cli instance start invoice-chase --seed '{"customer":"acme"}'

  # Watch an instance's audit trail
  basecamp-cli instance audit <instance-id>
`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", getEnvOrDefault("BASECAMP_URL", "http://localhost:8080"), "Basecamp API URL")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	rootCmd.AddCommand(procedureCmd)
	rootCmd.AddCommand(instanceCmd)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
