// =============================================================================
// PRE Analyzer - CSV Report Writer
// =============================================================================
//
// This module writes a reconciliation result as a set of CSV files, one
// per result section:
//   <base>_items.csv    - one row per compared item code
//   <base>_wbe.csv      - one row per WBE impact
//   <base>_summary.csv  - the project-level summary as key/value rows
//
// The split keeps each file loadable as a plain table in a spreadsheet,
// which is how the reports are consumed by the proposal teams.
//
// =============================================================================

package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ogghst/pre-analyzer/internal/reconcile"
)

// WriteCSV writes the three CSV files of a reconciliation result and
// returns the paths written.
//
// PARAMETERS:
//   - dir: The output directory, created if missing.
//   - base: The base file name without extension.
//   - result: The reconciliation result to export.
//
// RETURNS:
//   - The list of files written.
//   - An error if any file cannot be written.
func WriteCSV(dir, base string, result *reconcile.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	sections := []struct {
		suffix string
		rows   [][]string
	}{
		{"_items.csv", itemRows(result.ItemComparisons)},
		{"_wbe.csv", wbeRows(result.WBEImpacts)},
		{"_summary.csv", summaryRows(result.Summary)},
	}

	paths := make([]string, 0, len(sections))
	for _, section := range sections {
		path := filepath.Join(dir, base+section.suffix)
		if err := writeCSVFile(path, section.rows); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSVFile(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func itemRows(records []reconcile.ItemComparison) [][]string {
	rows := [][]string{{"code", "outcome", "description", "wbe", "field_differences"}}
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Code,
			string(rec.Outcome),
			rec.Description,
			rec.WBE,
			strings.Join(rec.FieldDifferences, "; "),
		})
	}
	return rows
}

func wbeRows(impacts []reconcile.WBEImpact) [][]string {
	rows := [][]string{{
		"wbe_id", "items_affected", "items_added", "items_removed", "items_modified",
		"total_listino_change", "total_cost_change", "margin_change", "margin_pct_change",
	}}
	for _, impact := range impacts {
		rows = append(rows, []string{
			impact.WBE,
			strconv.Itoa(impact.ItemsAffected),
			strconv.Itoa(impact.ItemsAdded),
			strconv.Itoa(impact.ItemsRemoved),
			strconv.Itoa(impact.ItemsModified),
			money(impact.TotalListinoChange),
			money(impact.TotalCostChange),
			money(impact.MarginChange),
			money(impact.MarginPctChange),
		})
	}
	return rows
}

func summaryRows(s reconcile.Summary) [][]string {
	return [][]string{
		{"metric", "value"},
		{"items_a", strconv.Itoa(s.ItemsA)},
		{"items_b", strconv.Itoa(s.ItemsB)},
		{"matching", strconv.Itoa(s.Matching)},
		{"missing_in_a", strconv.Itoa(s.MissingInA)},
		{"missing_in_b", strconv.Itoa(s.MissingInB)},
		{"value_mismatch", strconv.Itoa(s.ValueMismatch)},
		{"total_listino_a", money(s.TotalListinoA)},
		{"total_listino_b", money(s.TotalListinoB)},
		{"listino_difference", money(s.ListinoDifference)},
		{"listino_difference_pct", money(s.ListinoDifferencePct)},
	}
}

// money formats a monetary or percentage value with two decimals.
func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
