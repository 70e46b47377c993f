// =============================================================================
// PRE Analyzer - Quotation Validation
// =============================================================================
//
// This module provides data-quality diagnostics for parsed quotations.
// Checks include:
//   - Blank item codes (lines that cannot participate in reconciliation)
//   - Duplicate item codes within one dataset
//   - Declared subtotals diverging from recomputed item sums
//   - Empty structural elements (groups without categories, categories
//     without items)
//   - Missing WBE assignments on priced categories
//
// ERROR HANDLING:
//   Findings are collected, not thrown. Every finding carries enough
//   context (scope, code, values) for troubleshooting, and a severity:
//   "warning" findings never block a comparison run; "error" findings
//   indicate the quotation is structurally unusable.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// =============================================================================
// FINDING TYPES
// =============================================================================

// Severity levels for findings.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Finding describes one data-quality issue in a quotation.
type Finding struct {
	// Severity is "error" or "warning".
	Severity string

	// Rule identifies the violated check.
	Rule string

	// Scope locates the finding, e.g. "category MEC1" or "project".
	Scope string

	// Message is a human-readable description.
	Message string
}

func (f *Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(f.Severity), f.Scope, f.Message)
}

// Result collects the findings of one validation run.
type Result struct {
	Findings []*Finding

	ErrorCount   int
	WarningCount int
}

// IsValid reports whether the quotation has no error-level findings.
func (r *Result) IsValid() bool {
	return r.ErrorCount == 0
}

func (r *Result) add(severity, rule, scope, format string, args ...interface{}) {
	r.Findings = append(r.Findings, &Finding{
		Severity: severity,
		Rule:     rule,
		Scope:    scope,
		Message:  fmt.Sprintf(format, args...),
	})
	if severity == SeverityError {
		r.ErrorCount++
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator runs data-quality checks against parsed quotations.
type Validator struct {
	// Tolerance is the allowed divergence between declared and
	// recomputed totals.
	Tolerance float64
}

// New returns a validator with the given totals tolerance.
func New(tolerance float64) *Validator {
	return &Validator{Tolerance: tolerance}
}

// Validate runs all checks against a quotation and returns the collected
// findings.
func (v *Validator) Validate(q *quotation.Quotation) *Result {
	result := &Result{}

	if q == nil {
		result.add(SeverityError, "nil_quotation", "project", "no quotation data")
		return result
	}
	if len(q.ProductGroups) == 0 {
		result.add(SeverityError, "empty_quotation", "project", "quotation has no product groups")
		return result
	}

	v.checkStructure(q, result)
	v.checkCodes(q, result)
	v.checkTotals(q, result)

	return result
}

// checkStructure flags empty groups and categories and missing WBE
// assignments.
func (v *Validator) checkStructure(q *quotation.Quotation, result *Result) {
	for gi := range q.ProductGroups {
		group := &q.ProductGroups[gi]
		if len(group.Categories) == 0 {
			result.add(SeverityWarning, "empty_group", "group "+group.ID,
				"group has no categories")
			continue
		}
		for ci := range group.Categories {
			cat := &group.Categories[ci]
			scope := "category " + cat.ID
			if len(cat.Items) == 0 {
				result.add(SeverityWarning, "empty_category", scope,
					"category has no items")
			}
			if cat.WBE == "" && cat.PricelistSubtotal != 0 {
				result.add(SeverityWarning, "missing_wbe", scope,
					"priced category has no WBE assignment")
			}
		}
	}
}

// checkCodes flags blank and duplicate item codes.
func (v *Validator) checkCodes(q *quotation.Quotation, result *Result) {
	seen := make(map[string]string)
	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			cat := &q.ProductGroups[gi].Categories[ci]
			scope := "category " + cat.ID
			for ii := range cat.Items {
				code := strings.TrimSpace(cat.Items[ii].Code)
				if code == "" {
					result.add(SeverityWarning, "blank_code", scope,
						"item at position %s has a blank code and will be excluded from comparison",
						cat.Items[ii].Position)
					continue
				}
				if prev, dup := seen[code]; dup {
					result.add(SeverityWarning, "duplicate_code", scope,
						"item code %s already seen in %s; the later occurrence wins", code, prev)
				}
				seen[code] = scope
			}
		}
	}
}

// checkTotals surfaces declared-vs-recomputed subtotal divergence.
func (v *Validator) checkTotals(q *quotation.Quotation, result *Result) {
	for _, dev := range q.CheckTotals(v.Tolerance) {
		result.add(SeverityWarning, "totals_mismatch", dev.Scope,
			"%s declared as %.2f but items sum to %.2f", dev.Field, dev.Declared, dev.Calculated)
	}
}
