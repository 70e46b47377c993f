// =============================================================================
// PRE Analyzer - Compare Command
// =============================================================================
//
// This file defines the 'compare' command, which is the main command of the
// analyzer. It reconciles two quotation workbooks and writes impact reports.
//
// COMMAND USAGE:
//   pre-analyzer compare --first old.xlsx --second new.xlsx [flags]
//
// FLAGS:
//   --first    : Path to the first (baseline) workbook
//   --second   : Path to the second (revised) workbook
//               (omit both to compare the two newest workbooks in input_dir)
//   --format   : Report formats to write: json, csv, text (repeatable)
//   --dry-run  : Run the comparison without writing report files
//   --archive  : Move the input workbooks to the archive directory on success
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Parse both workbooks (format auto-detected per file)
//   3. Validate both quotations (findings are logged, never fatal)
//   4. Normalize currencies and reconcile item by item
//   5. Aggregate per-WBE impacts and write the reports
//   6. Print the executive summary to stdout
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ogghst/pre-analyzer/internal/comparator"
	"github.com/ogghst/pre-analyzer/internal/config"
	"github.com/ogghst/pre-analyzer/internal/report"
	"github.com/ogghst/pre-analyzer/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// firstPath is the path to the baseline workbook.
var firstPath string

// secondPath is the path to the revised workbook.
var secondPath string

// formats lists the report formats to write.
var formats []string

// dryRun runs the comparison without writing report files.
var dryRun bool

// archive moves the processed workbooks to the archive directory.
var archive bool

// =============================================================================
// COMPARE COMMAND DEFINITION
// =============================================================================

// compareCmd represents the 'compare' command.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Reconcile two quotation workbooks and report the WBE impact",
	Long: `The compare command parses two quotation workbooks, reconciles them item
by item using the item code as the join key, and aggregates every difference
onto the affected WBE (Work Breakdown Element) budgets.

The two workbooks may use different layouts: each file's format (PRE offer or
Analisi Profittabilita) is detected independently before parsing. Either input
may also be a .json snapshot previously written by the parse command.

When --first and --second are both omitted, the two most recently modified
workbooks in the configured input directory are compared, older one first.

On successful processing:
  - A JSON report, three CSV reports and a text summary are written to the
    output directory (restrict with --format)
  - The executive summary is printed to stdout
  - With --archive, both input workbooks are moved to the archive directory

On error the inputs are left untouched and a non-zero exit code is returned.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runCompare()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the compare command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(
		&firstPath,
		"first",
		"",
		"Path to the first (baseline) workbook",
	)

	compareCmd.Flags().StringVar(
		&secondPath,
		"second",
		"",
		"Path to the second (revised) workbook",
	)

	compareCmd.Flags().StringSliceVar(
		&formats,
		"format",
		nil,
		"Report formats to write: json, csv, text (default all)",
	)

	compareCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the comparison without writing report files",
	)

	compareCmd.Flags().BoolVar(
		&archive,
		"archive",
		false,
		"Move the input workbooks to the archive directory on success",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runCompare loads the configuration and drives the comparison pipeline.
func runCompare() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================
	// A missing configuration file is not an error: the analyzer runs with
	// its built-in defaults so the CLI works out of the box.

	if err := validateFormats(formats); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: RESOLVE THE WORKBOOK PAIR
	// =========================================================================

	first, second := firstPath, secondPath
	switch {
	case first == "" && second == "":
		first, second, err = utils.LatestWorkbookPair(cfg.InputDir)
		if err != nil {
			return err
		}
		fmt.Printf("Comparing latest workbooks from %s:\n  first:  %s\n  second: %s\n\n",
			cfg.InputDir, first, second)
	case first == "" || second == "":
		return fmt.Errorf("--first and --second must be given together")
	}

	// =========================================================================
	// STEP 3: RUN THE COMPARISON PIPELINE
	// =========================================================================

	comp := comparator.New(first, second, cfg)
	comp.DryRun = dryRun
	comp.Formats = formats

	result := comp.Run()
	if result.Error != nil {
		return result.Error
	}

	// =========================================================================
	// STEP 4: PRINT THE EXECUTIVE SUMMARY
	// =========================================================================

	if err := report.WriteSummary(os.Stdout, result.Reconciliation); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	fmt.Println()
	for _, path := range result.OutputFiles {
		fmt.Printf("Report written: %s\n", path)
	}

	// =========================================================================
	// STEP 5: ARCHIVE THE INPUTS
	// =========================================================================

	if archive && !dryRun {
		for _, path := range []string{first, second} {
			archived, err := utils.ArchiveFile(path, cfg.ArchiveDir)
			if err != nil {
				return fmt.Errorf("failed to archive %s: %w", path, err)
			}
			fmt.Printf("Archived: %s\n", archived)
		}
	}

	fmt.Printf("\nCompared %d codes (%d + %d items) in %s\n",
		result.Stats.CodesCompared,
		result.Stats.ItemsFirst,
		result.Stats.ItemsSecond,
		time.Since(startTime).Round(time.Millisecond))

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// reportFormats are the formats accepted by --format.
var reportFormats = map[string]bool{
	"json": true,
	"csv":  true,
	"text": true,
}

// validateFormats rejects unknown --format values so a typo cannot
// silently produce a run with no reports.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !reportFormats[f] {
			return fmt.Errorf("unknown report format %q (supported: csv, json, text)", f)
		}
	}
	return nil
}

// loadConfig loads the configured file, falling back to the built-in
// defaults when the file does not exist. An unreadable or malformed file
// is still an error.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		cfg := config.Default()
		if err := cfg.EnsureDirs(); err != nil {
			return nil, err
		}
		if verbose {
			cfg.LogLevel = "debug"
		}
		return cfg, nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", cfgFile, err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
