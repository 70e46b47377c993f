// =============================================================================
// PRE Analyzer - Parse Command
// =============================================================================
//
// This file defines the 'parse' command, which parses a single quotation
// workbook into the unified JSON model without running a comparison. The
// snapshot is useful for inspecting what the parser extracted and for
// archiving a quotation's state at a point in time.
//
// COMMAND USAGE:
//   pre-analyzer parse --file offer.xlsx [--output offer.json]
//
// FLAGS:
//   --file    : Path to the workbook to parse
//   --output  : Path of the JSON snapshot (default: workbook name with .json)
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ogghst/pre-analyzer/internal/validation"
	"github.com/ogghst/pre-analyzer/internal/xlsxparser"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// parseFile is the path to the workbook to parse.
var parseFile string

// parseOutput is the path of the JSON snapshot to write.
var parseOutput string

// =============================================================================
// PARSE COMMAND DEFINITION
// =============================================================================

// parseCmd represents the 'parse' command.
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse one workbook into a JSON quotation snapshot",
	Long: `The parse command detects the workbook layout (PRE offer or Analisi
Profittabilita), parses it into the unified quotation model and writes the
model as a JSON snapshot. Validation findings are printed but never fail
the command.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the parse command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(
		&parseFile,
		"file",
		"",
		"Path to the workbook to parse",
	)

	parseCmd.Flags().StringVar(
		&parseOutput,
		"output",
		"",
		"Path of the JSON snapshot (default: workbook name with .json)",
	)

	parseCmd.MarkFlagRequired("file")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runParse parses the workbook, prints validation findings and writes the
// JSON snapshot.
func runParse() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	q, err := xlsxparser.Parse(parseFile)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", parseFile, err)
	}

	fmt.Printf("Parsed %s (format: %s)\n", parseFile, q.ParserType)
	fmt.Printf("  Project:        %s (%s)\n", q.Project.ID, q.Project.Customer)
	fmt.Printf("  Product groups: %d\n", len(q.ProductGroups))
	fmt.Printf("  Items:          %d\n", q.ItemCount())
	fmt.Printf("  Total listino:  %.2f\n", q.Totals.TotalListino)
	fmt.Printf("  Total cost:     %.2f\n", q.Totals.TotalCost)

	validator := validation.New(cfg.Comparison.Tolerance)
	vr := validator.Validate(q)
	for _, finding := range vr.Findings {
		fmt.Printf("  %s\n", finding.String())
	}
	if len(vr.Findings) == 0 {
		fmt.Println("  No validation findings")
	}

	output := parseOutput
	if output == "" {
		ext := filepath.Ext(parseFile)
		output = strings.TrimSuffix(parseFile, ext) + ".json"
	}

	if err := q.Save(output); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	fmt.Printf("Snapshot written: %s\n", output)
	return nil
}
