// =============================================================================
// PRE Analyzer - Hierarchical Flattener
// =============================================================================
//
// This module flattens a quotation hierarchy into a flat index keyed by
// item code. The index is the input shape shared by the classifier and the
// WBE aggregator, so the comparison algorithm is written once regardless
// of which source format a quotation came from.
//
// =============================================================================

package reconcile

import (
	"strings"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// =============================================================================
// FLAT INDEX TYPES
// =============================================================================

// HierarchyContext is a denormalized back-pointer from a flattened item to
// its enclosing group and category. It never owns the item.
type HierarchyContext struct {
	GroupID      string `json:"group_id"`
	GroupName    string `json:"group_name"`
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`

	// WBE is the Work Breakdown Element of the enclosing category.
	// Empty means unassigned.
	WBE string `json:"wbe"`
}

// Entry pairs a flattened item with its hierarchy context.
type Entry struct {
	Item    *quotation.Item
	Context HierarchyContext
}

// FlatIndex maps a trimmed item code to its entry within one dataset.
// Codes are assumed unique within a dataset; when a code repeats, the
// last occurrence encountered during the tree walk wins.
type FlatIndex map[string]Entry

// =============================================================================
// FLATTENING
// =============================================================================

// Flatten walks a quotation hierarchy and produces a flat index keyed by
// trimmed item code. Items with an empty code are excluded since they
// cannot participate in reconciliation. Pure function of its input.
func Flatten(q *quotation.Quotation) FlatIndex {
	index := make(FlatIndex)
	if q == nil {
		return index
	}

	for gi := range q.ProductGroups {
		group := &q.ProductGroups[gi]
		for ci := range group.Categories {
			cat := &group.Categories[ci]
			ctx := HierarchyContext{
				GroupID:      group.ID,
				GroupName:    group.Name,
				CategoryID:   cat.ID,
				CategoryName: cat.Name,
				WBE:          strings.TrimSpace(cat.WBE),
			}
			for ii := range cat.Items {
				item := &cat.Items[ii]
				code := strings.TrimSpace(item.Code)
				if code == "" {
					continue
				}
				index[code] = Entry{Item: item, Context: ctx}
			}
		}
	}

	return index
}
