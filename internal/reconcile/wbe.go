// =============================================================================
// PRE Analyzer - WBE Impact Aggregator
// =============================================================================
//
// This module rolls item-level classification records up into per-WBE
// financial impacts. The WBE (Work Breakdown Element) is the
// cost-accounting key of dataset B's structure, so membership is drawn
// from B's grouping; items present only in A fall back to A's context so
// that additions still land in a cost bucket.
//
// =============================================================================

package reconcile

import "sort"

// =============================================================================
// WBE IMPACT STRUCTURE
// =============================================================================

// WBEImpact is the aggregated financial impact for one Work Breakdown
// Element. Impacts are derived each run from the classification records
// plus the raw flattened items; they are never stored independently.
type WBEImpact struct {
	WBE string `json:"wbe_id"`

	// ItemsAffected counts B-side items of this WBE that also exist in A
	// and can therefore be repriced from A.
	ItemsAffected int `json:"items_affected"`

	// ItemsAdded counts items A would introduce into this WBE.
	ItemsAdded int `json:"items_added"`

	// ItemsRemoved counts B-side items of this WBE no longer sourced in A.
	ItemsRemoved int `json:"items_removed"`

	// ItemsModified counts items of this WBE whose compared fields differ.
	ItemsModified int `json:"items_modified"`

	TotalListinoChange float64 `json:"total_listino_change"`
	TotalCostChange    float64 `json:"total_cost_change"`
	MarginChange       float64 `json:"margin_change"`
	MarginPctChange    float64 `json:"margin_percentage_change"`
}

// =============================================================================
// AGGREGATION
// =============================================================================

// AggregateByWBE computes one WBEImpact per distinct non-empty WBE value
// observed across both indexes, ordered by WBE identifier.
//
// Listino values are repriced from dataset A where available; cost values
// prefer the B side for items present in both, since cost data is more
// reliable on the target structure.
func AggregateByWBE(records []ItemComparison, indexA, indexB FlatIndex) []WBEImpact {
	wbes := make(map[string]bool)
	for _, e := range indexA {
		if e.Context.WBE != "" {
			wbes[e.Context.WBE] = true
		}
	}
	for _, e := range indexB {
		if e.Context.WBE != "" {
			wbes[e.Context.WBE] = true
		}
	}

	ids := make([]string, 0, len(wbes))
	for id := range wbes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	impacts := make([]WBEImpact, 0, len(ids))
	for _, id := range ids {
		impacts = append(impacts, aggregateOne(id, records, indexA, indexB))
	}
	return impacts
}

// aggregateOne computes the impact of a single WBE.
func aggregateOne(wbe string, records []ItemComparison, indexA, indexB FlatIndex) WBEImpact {
	impact := WBEImpact{WBE: wbe}

	// Current financials come from the B-side items of this WBE.
	var currentListino, currentCost float64
	// New financials reprice affected items from A and add A-only items.
	var newListino, newCost float64

	for code, entryB := range indexB {
		if entryB.Context.WBE != wbe {
			continue
		}
		currentListino += entryB.Item.TotalPrice
		currentCost += entryB.Item.TotalCost

		if entryA, ok := indexA[code]; ok {
			impact.ItemsAffected++
			newListino += entryA.Item.TotalPrice
			// B-side cost stays authoritative for shared items.
			newCost += entryB.Item.TotalCost
		} else {
			impact.ItemsRemoved++
		}
	}

	for _, rec := range records {
		if rec.WBE != wbe {
			continue
		}
		switch rec.Outcome {
		case OutcomeMissingInB:
			impact.ItemsAdded++
			if entryA, ok := indexA[rec.Code]; ok {
				newListino += entryA.Item.TotalPrice
				newCost += entryA.Item.TotalCost
			}
		case OutcomeValueMismatch:
			impact.ItemsModified++
		}
	}

	impact.TotalListinoChange = newListino - currentListino
	impact.TotalCostChange = newCost - currentCost
	impact.MarginChange = impact.TotalListinoChange - impact.TotalCostChange

	currentMarginPct := marginPct(currentListino, currentCost)
	newMarginPct := marginPct(newListino, newCost)
	impact.MarginPctChange = newMarginPct - currentMarginPct

	return impact
}

// marginPct returns the margin as a percentage of listino, or 0 when
// listino is 0.
func marginPct(listino, cost float64) float64 {
	if listino == 0 {
		return 0
	}
	return (listino - cost) / listino * 100
}
