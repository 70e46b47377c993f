// =============================================================================
// PRE Analyzer - JSON Report Writer
// =============================================================================

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ogghst/pre-analyzer/internal/reconcile"
)

// WriteJSON writes the full reconciliation result as a single JSON file
// and returns the path written. The JSON mirrors the result structure,
// so it can be reloaded or fed to other tooling without re-running the
// comparison.
func WriteJSON(dir, base string, result *reconcile.Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	path := filepath.Join(dir, base+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// LoadJSON reads back a result previously written by WriteJSON.
func LoadJSON(path string) (*reconcile.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var result reconcile.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &result, nil
}
