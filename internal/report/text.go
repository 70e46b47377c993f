// =============================================================================
// PRE Analyzer - Text Summary Writer
// =============================================================================

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ogghst/pre-analyzer/internal/reconcile"
)

// WriteSummary renders a short human-readable summary of a reconciliation
// result to the given writer. This is the format printed to the terminal
// at the end of a comparison run.
func WriteSummary(w io.Writer, result *reconcile.Result) error {
	s := result.Summary

	sections := []string{
		"Comparison summary",
		"==================",
		fmt.Sprintf("Items:            %d in first file, %d in second file", s.ItemsA, s.ItemsB),
		fmt.Sprintf("Matching:         %d", s.Matching),
		fmt.Sprintf("Value mismatches: %d", s.ValueMismatch),
		fmt.Sprintf("Only in first:    %d", s.MissingInB),
		fmt.Sprintf("Only in second:   %d", s.MissingInA),
		"",
		fmt.Sprintf("Listino first:    %14.2f", s.TotalListinoA),
		fmt.Sprintf("Listino second:   %14.2f", s.TotalListinoB),
		fmt.Sprintf("Difference:       %14.2f (%.2f%%)", s.ListinoDifference, s.ListinoDifferencePct),
	}
	for _, line := range sections {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if len(result.WBEImpacts) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\nWBE impacts (%d)\n", len(result.WBEImpacts)); err != nil {
		return err
	}
	for _, impact := range result.WBEImpacts {
		_, err := fmt.Fprintf(w, "  %-24s listino %+12.2f  cost %+12.2f  margin %+12.2f  (+%d/-%d/~%d)\n",
			impact.WBE,
			impact.TotalListinoChange,
			impact.TotalCostChange,
			impact.MarginChange,
			impact.ItemsAdded,
			impact.ItemsRemoved,
			impact.ItemsModified,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteSummaryFile writes the text summary to <base>.txt in dir and
// returns the path written.
func WriteSummaryFile(dir, base string, result *reconcile.Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, base+".txt")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteSummary(f, result); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
