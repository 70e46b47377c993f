// =============================================================================
// PRE Analyzer - Item Classifier
// =============================================================================
//
// This module classifies every item code present in either of two flat
// indexes into one of four comparison outcomes, with a field-level diff
// list for mismatched items. The set of compared fields is declarative
// (see FieldSpec), so the comparison logic is written once and driven by
// data rather than duplicated per source format.
//
// =============================================================================

package reconcile

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// =============================================================================
// FIELD SPECIFICATIONS
// =============================================================================

// FieldKind selects the comparison semantics for one field.
type FieldKind int

const (
	// FieldNumeric compares values as floats within an absolute tolerance.
	FieldNumeric FieldKind = iota

	// FieldText compares values as trimmed strings.
	FieldText
)

// FieldSpec declares one field to compare between matched items.
//
// Well-known names (description, quantity, unit_price, total_price,
// unit_cost, total_cost) resolve to the corresponding Item fields; any
// other name resolves through the item's open cost-breakdown map.
type FieldSpec struct {
	Name string
	Kind FieldKind
}

// DefaultFields returns the standard comparison field set: the line
// description plus the three pricing fields.
func DefaultFields() []FieldSpec {
	return []FieldSpec{
		{Name: "description", Kind: FieldText},
		{Name: "quantity", Kind: FieldNumeric},
		{Name: "unit_price", Kind: FieldNumeric},
		{Name: "total_price", Kind: FieldNumeric},
	}
}

// numericValue resolves a numeric field by name on an entry's item.
// Missing or unknown fields resolve to 0.
func numericValue(e Entry, name string) float64 {
	if e.Item == nil {
		return 0
	}
	switch name {
	case "quantity":
		return e.Item.Quantity
	case "unit_price":
		return e.Item.UnitPrice
	case "total_price":
		return e.Item.TotalPrice
	case "unit_cost":
		return e.Item.UnitCost
	case "total_cost":
		return e.Item.TotalCost
	default:
		return e.Item.CostField(name)
	}
}

// textValue resolves a text field by name on an entry's item. Missing or
// unknown fields resolve to the empty string.
func textValue(e Entry, name string) string {
	if e.Item == nil {
		return ""
	}
	switch name {
	case "description":
		return e.Item.Description
	case "code":
		return e.Item.Code
	case "position":
		return e.Item.Position
	case "pricelist_code":
		return e.Item.PricelistCode
	case "wbs":
		return e.Item.WBS
	default:
		return ""
	}
}

// =============================================================================
// COMPARISON OUTCOMES
// =============================================================================

// Outcome is the classification of one item code.
type Outcome string

const (
	// OutcomeMatch means the code is present in both datasets and every
	// compared field is equal within tolerance.
	OutcomeMatch Outcome = "match"

	// OutcomeMissingInA means the code is present only in dataset B.
	OutcomeMissingInA Outcome = "missing_in_a"

	// OutcomeMissingInB means the code is present only in dataset A.
	OutcomeMissingInB Outcome = "missing_in_b"

	// OutcomeValueMismatch means the code is present in both datasets but
	// at least one compared field differs beyond tolerance.
	OutcomeValueMismatch Outcome = "value_mismatch"
)

// ItemComparison is the classification record for one item code.
type ItemComparison struct {
	Code    string  `json:"code"`
	Outcome Outcome `json:"outcome"`

	// FieldDifferences lists every differing field as a formatted
	// "field: A=..., B=..." string. Empty unless the outcome is
	// OutcomeValueMismatch.
	FieldDifferences []string `json:"field_differences,omitempty"`

	// Description is taken from dataset A's item when present, else B's.
	Description string `json:"description"`

	// WBE is resolved from dataset B's hierarchy context, since B carries
	// the authoritative cost-accounting structure. Items present only in
	// A fall back to A's context so that additions still roll up to a
	// cost bucket.
	WBE string `json:"wbe,omitempty"`
}

// =============================================================================
// NUMERIC TOLERANCE
// =============================================================================

// DefaultTolerance is the absolute tolerance for numeric field comparison.
// It is absolute rather than relative so that it absorbs currency rounding
// without scaling with magnitude.
const DefaultTolerance = 0.01

// toleranceSlack absorbs float64 representation error at the tolerance
// boundary, so values differing by exactly the tolerance compare equal.
const toleranceSlack = 1e-9

// withinTolerance reports whether two values are equal within the given
// absolute tolerance.
func withinTolerance(a, b, tolerance float64) bool {
	return math.Abs(a-b)-tolerance < toleranceSlack
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify computes one ItemComparison per code in the union of both
// indexes' keys, ordered by code. Missing or malformed data never fails
// the comparison: numeric fields coerce to 0 and text fields to the empty
// string, so the classification is best-effort by design.
func Classify(indexA, indexB FlatIndex, fields []FieldSpec, tolerance float64) []ItemComparison {
	codes := make([]string, 0, len(indexA)+len(indexB))
	seen := make(map[string]bool, len(indexA)+len(indexB))
	for code := range indexA {
		codes = append(codes, code)
		seen[code] = true
	}
	for code := range indexB {
		if !seen[code] {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	records := make([]ItemComparison, 0, len(codes))
	for _, code := range codes {
		entryA, inA := indexA[code]
		entryB, inB := indexB[code]

		rec := ItemComparison{Code: code}

		switch {
		case inA && !inB:
			rec.Outcome = OutcomeMissingInB
		case !inA && inB:
			rec.Outcome = OutcomeMissingInA
		default:
			diffs := compareFields(entryA, entryB, fields, tolerance)
			if len(diffs) > 0 {
				rec.Outcome = OutcomeValueMismatch
				rec.FieldDifferences = diffs
			} else {
				rec.Outcome = OutcomeMatch
			}
		}

		if inA {
			rec.Description = entryA.Item.Description
		} else {
			rec.Description = entryB.Item.Description
		}

		if inB {
			rec.WBE = entryB.Context.WBE
		} else {
			rec.WBE = entryA.Context.WBE
		}

		records = append(records, rec)
	}

	return records
}

// compareFields runs the declared field comparisons between two matched
// entries and returns one formatted entry per differing field.
func compareFields(a, b Entry, fields []FieldSpec, tolerance float64) []string {
	var diffs []string
	for _, f := range fields {
		switch f.Kind {
		case FieldNumeric:
			va := numericValue(a, f.Name)
			vb := numericValue(b, f.Name)
			if !withinTolerance(va, vb, tolerance) {
				diffs = append(diffs, fmt.Sprintf("%s: A=%.2f, B=%.2f", f.Name, va, vb))
			}
		case FieldText:
			va := strings.TrimSpace(textValue(a, f.Name))
			vb := strings.TrimSpace(textValue(b, f.Name))
			if va != vb {
				diffs = append(diffs, fmt.Sprintf("%s: A='%s', B='%s'", f.Name, va, vb))
			}
		}
	}
	return diffs
}
