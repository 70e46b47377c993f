// =============================================================================
// PRE Analyzer - Project Summary Aggregator
// =============================================================================

package reconcile

import "github.com/ogghst/pre-analyzer/internal/quotation"

// Summary holds whole-project reconciliation statistics.
//
// Total values come from the dataset-declared aggregates rather than a
// re-sum of every item. The two may legitimately diverge slightly due to
// rounding in the source files; that divergence is diagnostic information
// surfaced by the validation layer, not an error here.
type Summary struct {
	ItemsA int `json:"items_a"`
	ItemsB int `json:"items_b"`

	Matching      int `json:"matching"`
	MissingInA    int `json:"missing_in_a"`
	MissingInB    int `json:"missing_in_b"`
	ValueMismatch int `json:"value_mismatch"`

	TotalListinoA float64 `json:"total_listino_a"`
	TotalListinoB float64 `json:"total_listino_b"`

	// ListinoDifference is A minus B; the percentage is relative to B,
	// or 0 when B's total is 0.
	ListinoDifference    float64 `json:"listino_difference"`
	ListinoDifferencePct float64 `json:"listino_difference_percentage"`
}

// Summarize rolls the classification records and dataset totals into a
// project-level summary.
func Summarize(records []ItemComparison, indexA, indexB FlatIndex, totalsA, totalsB quotation.Totals) Summary {
	s := Summary{
		ItemsA:        len(indexA),
		ItemsB:        len(indexB),
		TotalListinoA: totalsA.TotalListino,
		TotalListinoB: totalsB.TotalListino,
	}

	for _, rec := range records {
		switch rec.Outcome {
		case OutcomeMatch:
			s.Matching++
		case OutcomeMissingInA:
			s.MissingInA++
		case OutcomeMissingInB:
			s.MissingInB++
		case OutcomeValueMismatch:
			s.ValueMismatch++
		}
	}

	s.ListinoDifference = s.TotalListinoA - s.TotalListinoB
	if s.TotalListinoB != 0 {
		s.ListinoDifferencePct = s.ListinoDifference / s.TotalListinoB * 100
	}

	return s
}
