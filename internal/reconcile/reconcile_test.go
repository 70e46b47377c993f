package reconcile

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// invariantFixture builds a dataset pair whose declared totals equal the
// item sums, spanning two WBEs plus an unassigned category.
func invariantFixture() (*quotation.Quotation, *quotation.Quotation) {
	a := testQuotation(
		quotation.Category{ID: "CA1", WBE: "W1", Items: []quotation.Item{
			testItem("A1", 100),
			{Code: "A2", Description: "item A2", TotalPrice: 150},
		}},
		quotation.Category{ID: "CA2", WBE: "W2", Items: []quotation.Item{
			testItem("A3", 70),
		}},
		quotation.Category{ID: "CA3", Items: []quotation.Item{
			testItem("A4", 25),
		}},
	)
	a.Totals.TotalListino = a.CalculatedTotalListino()

	b := testQuotation(
		quotation.Category{ID: "CB1", WBE: "W1", Items: []quotation.Item{
			testItem("A1", 100),
			{Code: "A2", Description: "item A2", TotalPrice: 120},
			testItem("B1", 40),
		}},
		quotation.Category{ID: "CB2", WBE: "W2", Items: []quotation.Item{
			testItem("A3", 70),
		}},
	)
	b.Totals.TotalListino = b.CalculatedTotalListino()

	return a, b
}

func TestCompute(t *testing.T) {
	t.Run("nil dataset fails fast", func(t *testing.T) {
		q := testQuotation()

		_, err := Compute(nil, q)
		assert.ErrorIs(t, err, ErrNilDataset)

		_, err = Compute(q, nil)
		assert.ErrorIs(t, err, ErrNilDataset)
	})

	t.Run("packages comparisons impacts and summary", func(t *testing.T) {
		a, b := invariantFixture()

		result, err := Compute(a, b)
		require.NoError(t, err)

		assert.Len(t, result.ItemComparisons, 5)
		assert.Len(t, result.WBEImpacts, 2)
		assert.Equal(t, 4, result.Summary.ItemsA)
		assert.Equal(t, 4, result.Summary.ItemsB)
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		a, b := invariantFixture()

		first, err := Compute(a, b)
		require.NoError(t, err)
		second, err := Compute(a, b)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("WBE changes reconcile with the project delta", func(t *testing.T) {
		a, b := invariantFixture()

		result, err := Compute(a, b)
		require.NoError(t, err)

		var wbeSum float64
		for _, impact := range result.WBEImpacts {
			wbeSum += impact.TotalListinoChange
		}

		// Items without a WBE assignment sit outside every impact entry;
		// their listino contribution closes the gap to the project delta.
		indexA := Flatten(a)
		indexB := Flatten(b)
		var unassigned float64
		for _, e := range indexA {
			if e.Context.WBE == "" {
				unassigned += e.Item.TotalPrice
			}
		}
		for _, e := range indexB {
			if e.Context.WBE == "" {
				unassigned -= e.Item.TotalPrice
			}
		}

		diff := result.Summary.ListinoDifference
		assert.InDelta(t, diff, wbeSum+unassigned, 0.01)
		assert.True(t, math.Abs(diff) > 0, "fixture should produce a real delta")
	})
}

func TestAnalysis(t *testing.T) {
	t.Run("computes once and memoizes", func(t *testing.T) {
		a, b := invariantFixture()
		an := NewAnalysis(a, b)

		assert.False(t, an.Computed())

		first, err := an.Result()
		require.NoError(t, err)
		assert.True(t, an.Computed())

		// Mutating the inputs afterwards must not affect the memoized
		// result, proving no recomputation happens.
		a.ProductGroups = nil
		b.ProductGroups = nil

		second, err := an.Result()
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("memoizes errors too", func(t *testing.T) {
		an := NewAnalysis(nil, nil)

		_, err := an.Result()
		assert.ErrorIs(t, err, ErrNilDataset)
		assert.True(t, an.Computed())
	})

	t.Run("safe under concurrent access", func(t *testing.T) {
		a, b := invariantFixture()
		an := NewAnalysis(a, b)

		results := make([]*Result, 8)
		var wg sync.WaitGroup
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				r, err := an.Result()
				assert.NoError(t, err)
				results[i] = r
			}(i)
		}
		wg.Wait()

		for _, r := range results[1:] {
			assert.Same(t, results[0], r)
		}
	})
}

func TestCache(t *testing.T) {
	t.Run("returns the same result for the same key", func(t *testing.T) {
		a, b := invariantFixture()
		cache := NewCache()

		first, err := cache.Result("a.xlsx", "b.xlsx", a, b)
		require.NoError(t, err)
		second, err := cache.Result("a.xlsx", "b.xlsx", a, b)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("distinct keys compute independently", func(t *testing.T) {
		a, b := invariantFixture()
		cache := NewCache()

		first, err := cache.Result("a.xlsx", "b.xlsx", a, b)
		require.NoError(t, err)
		second, err := cache.Result("b.xlsx", "a.xlsx", b, a)
		require.NoError(t, err)

		assert.NotSame(t, first, second)
		assert.Equal(t, 2, cache.Len())
	})
}
