/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for basecamp-cli
 *
 * Copyright (c) 2024-2026, Hoopsho, Inc. <eng@hoopsho.com>
 *
 * IDENTIFICATION
 *    cli/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"github.com/hoopsho/basecamp/cli/cmd"
)

func main() {
	cmd.Execute()
}
