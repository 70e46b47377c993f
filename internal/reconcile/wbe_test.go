package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// aggregatePair runs the full classify-then-aggregate pipeline over two
// quotations.
func aggregatePair(a, b *quotation.Quotation) []WBEImpact {
	indexA := Flatten(a)
	indexB := Flatten(b)
	records := Classify(indexA, indexB, DefaultFields(), DefaultTolerance)
	return AggregateByWBE(records, indexA, indexB)
}

func TestAggregateByWBE(t *testing.T) {
	t.Run("added item rolls into its WBE", func(t *testing.T) {
		shared := quotation.Item{Code: "X5", Description: "shared", TotalPrice: 30}
		a := testQuotation(quotation.Category{ID: "CA", WBE: "W1", Items: []quotation.Item{
			{Code: "X4", Description: "new", TotalPrice: 50},
			shared,
		}})
		b := testQuotation(quotation.Category{ID: "CB", WBE: "W1", Items: []quotation.Item{
			shared,
		}})

		impacts := aggregatePair(a, b)

		require.Len(t, impacts, 1)
		impact := impacts[0]
		assert.Equal(t, "W1", impact.WBE)
		assert.Equal(t, 1, impact.ItemsAdded)
		assert.Equal(t, 0, impact.ItemsModified)
		assert.Equal(t, 1, impact.ItemsAffected)
		assert.Equal(t, 0, impact.ItemsRemoved)
		assert.InDelta(t, 50.0, impact.TotalListinoChange, 1e-9)
	})

	t.Run("removed item reduces the WBE listino", func(t *testing.T) {
		a := testQuotation(quotation.Category{ID: "CA", WBE: "W1"})
		b := testQuotation(quotation.Category{ID: "CB", WBE: "W1", Items: []quotation.Item{
			{Code: "R1", TotalPrice: 80, TotalCost: 60},
		}})

		impacts := aggregatePair(a, b)

		require.Len(t, impacts, 1)
		impact := impacts[0]
		assert.Equal(t, 1, impact.ItemsRemoved)
		assert.Equal(t, 0, impact.ItemsAffected)
		assert.InDelta(t, -80.0, impact.TotalListinoChange, 1e-9)
		assert.InDelta(t, -60.0, impact.TotalCostChange, 1e-9)
	})

	t.Run("repriced item uses first dataset listino and second dataset cost", func(t *testing.T) {
		a := testQuotation(quotation.Category{ID: "CA", WBE: "W1", Items: []quotation.Item{
			{Code: "P1", Description: "pump", TotalPrice: 120, TotalCost: 999},
		}})
		b := testQuotation(quotation.Category{ID: "CB", WBE: "W1", Items: []quotation.Item{
			{Code: "P1", Description: "pump", TotalPrice: 100, TotalCost: 70},
		}})

		impacts := aggregatePair(a, b)

		require.Len(t, impacts, 1)
		impact := impacts[0]
		assert.Equal(t, 1, impact.ItemsAffected)
		assert.Equal(t, 1, impact.ItemsModified)
		assert.InDelta(t, 20.0, impact.TotalListinoChange, 1e-9)
		// Cost stays on the second dataset's figure for shared items.
		assert.InDelta(t, 0.0, impact.TotalCostChange, 1e-9)
		assert.InDelta(t, 20.0, impact.MarginChange, 1e-9)
	})

	t.Run("margin percentage change", func(t *testing.T) {
		// Current: listino 100, cost 70 -> 30%. New: listino 120, cost 70 -> 41.666%.
		a := testQuotation(quotation.Category{ID: "CA", WBE: "W1", Items: []quotation.Item{
			{Code: "P1", TotalPrice: 120, TotalCost: 70},
		}})
		b := testQuotation(quotation.Category{ID: "CB", WBE: "W1", Items: []quotation.Item{
			{Code: "P1", TotalPrice: 100, TotalCost: 70},
		}})

		impacts := aggregatePair(a, b)

		require.Len(t, impacts, 1)
		assert.InDelta(t, 50.0/120*100-30.0, impacts[0].MarginPctChange, 1e-9)
	})

	t.Run("zero listino yields zero margin percentage", func(t *testing.T) {
		a := testQuotation(quotation.Category{ID: "CA", WBE: "W1"})
		b := testQuotation(quotation.Category{ID: "CB", WBE: "W1", Items: []quotation.Item{
			{Code: "Z1", TotalPrice: 0, TotalCost: 40},
		}})

		impacts := aggregatePair(a, b)

		require.Len(t, impacts, 1)
		assert.Equal(t, 0.0, impacts[0].MarginPctChange)
	})

	t.Run("unassigned items produce no impact entry", func(t *testing.T) {
		a := testQuotation(quotation.Category{ID: "CA", Items: []quotation.Item{
			testItem("U1", 10),
		}})
		b := testQuotation(quotation.Category{ID: "CB"})

		assert.Empty(t, aggregatePair(a, b))
	})

	t.Run("impacts are ordered by WBE", func(t *testing.T) {
		a := testQuotation(
			quotation.Category{ID: "C1", WBE: "W2", Items: []quotation.Item{testItem("A1", 1)}},
			quotation.Category{ID: "C2", WBE: "W1", Items: []quotation.Item{testItem("A2", 1)}},
		)
		b := testQuotation(quotation.Category{ID: "C3", WBE: "W3", Items: []quotation.Item{testItem("A3", 1)}})

		impacts := aggregatePair(a, b)

		require.Len(t, impacts, 3)
		assert.Equal(t, "W1", impacts[0].WBE)
		assert.Equal(t, "W2", impacts[1].WBE)
		assert.Equal(t, "W3", impacts[2].WBE)
	})
}
