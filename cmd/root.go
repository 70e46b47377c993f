// =============================================================================
// PRE Analyzer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// (compare, parse, version) are attached to this root.
//
// COBRA CLI STRUCTURE:
//   rootCmd (pre-analyzer)
//   ├── compareCmd (pre-analyzer compare)
//   ├── parseCmd (pre-analyzer parse)
//   └── versionCmd (pre-analyzer version)
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables verbose logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use: "pre-analyzer",

	Short: "PRE Analyzer - Compare industrial quotation workbooks",

	Long: `PRE Analyzer parses hierarchical quotation workbooks (PRE offer files
and Analisi Profittabilita files), reconciles two of them item by item,
and aggregates the impact of every change onto the affected WBE
(Work Breakdown Element) budgets.

Key Features:
  - Parses both PRE and Analisi Profittabilita workbook layouts
  - Item-level comparison with configurable numeric tolerance
  - Per-WBE impact aggregation (listino, cost and margin deltas)
  - JSON, CSV and plain-text report output

Example Usage:
  pre-analyzer compare --first old.xlsx --second new.xlsx
  pre-analyzer parse --file offer.xlsx --output offer.json
  pre-analyzer compare --first a.xlsx --second b.xlsx --dry-run`,

	// Run is the function that will be executed when the root command is called
	// without any subcommands. In this case, we just print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags shared by all subcommands.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
