// =============================================================================
// PRE Analyzer - Main Entry Point
// =============================================================================
//
// This is the main entry point for the PRE Analyzer CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   pre-analyzer compare   - Reconcile two quotation workbooks
//   pre-analyzer parse     - Parse one workbook into a JSON snapshot
//   pre-analyzer version   - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/ogghst/pre-analyzer/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
