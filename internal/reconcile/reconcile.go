// =============================================================================
// PRE Analyzer - Reconciliation Engine Entry Point
// =============================================================================
//
// This module wires the flattener, classifier, WBE aggregator and summary
// aggregator into a single pure Compute function, and provides the two
// caller-side memoization helpers:
//
//   - Analysis: a write-once holder for one (A, B) pair, safe for
//     concurrent readers after the first Result call.
//   - Cache: a keyed cache over multiple dataset pairs.
//
// Compute itself holds no state, so memoization policy stays with the
// caller.
//
// =============================================================================

package reconcile

import (
	"errors"
	"sync"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result bundles the full reconciliation output for one dataset pair.
// It is constructed once, never mutated afterwards, and is safe to share
// across concurrent readers.
type Result struct {
	ItemComparisons []ItemComparison `json:"item_comparisons"`
	WBEImpacts      []WBEImpact      `json:"wbe_impacts"`
	Summary         Summary          `json:"summary"`
}

// =============================================================================
// OPTIONS
// =============================================================================

// Option adjusts the comparison parameters of a single Compute call.
type Option func(*options)

type options struct {
	fields    []FieldSpec
	tolerance float64
}

// WithFields replaces the default comparison field set.
func WithFields(fields []FieldSpec) Option {
	return func(o *options) {
		if len(fields) > 0 {
			o.fields = fields
		}
	}
}

// WithTolerance replaces the default numeric tolerance.
func WithTolerance(tolerance float64) Option {
	return func(o *options) {
		if tolerance > 0 {
			o.tolerance = tolerance
		}
	}
}

// =============================================================================
// COMPUTE
// =============================================================================

// ErrNilDataset is returned when a caller passes a nil quotation.
var ErrNilDataset = errors.New("reconcile: dataset must not be nil")

// Compute runs the full reconciliation of two quotations and returns the
// packaged result. It is a pure function: same inputs, same output, no
// retained state.
//
// PARAMETERS:
//   - a: The first dataset (typically the PRE quotation).
//   - b: The second dataset (typically the profittabilita quotation,
//     whose structure carries the authoritative WBE assignments).
//   - opts: Optional comparison parameters.
//
// RETURNS:
//   - The reconciliation result.
//   - ErrNilDataset if either dataset is nil. Data-quality issues inside
//     the datasets never fail the computation.
func Compute(a, b *quotation.Quotation, opts ...Option) (*Result, error) {
	if a == nil || b == nil {
		return nil, ErrNilDataset
	}

	o := options{
		fields:    DefaultFields(),
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(&o)
	}

	indexA := Flatten(a)
	indexB := Flatten(b)

	records := Classify(indexA, indexB, o.fields, o.tolerance)
	impacts := AggregateByWBE(records, indexA, indexB)
	summary := Summarize(records, indexA, indexB, a.Totals, b.Totals)

	return &Result{
		ItemComparisons: records,
		WBEImpacts:      impacts,
		Summary:         summary,
	}, nil
}

// =============================================================================
// WRITE-ONCE ANALYSIS
// =============================================================================

// Analysis memoizes the reconciliation of one dataset pair. The underlying
// computation runs exactly once on the first Result call; subsequent calls
// return the cached result. Safe for concurrent use.
type Analysis struct {
	a, b *quotation.Quotation
	opts []Option

	once   sync.Once
	result *Result
	err    error
}

// NewAnalysis prepares a deferred reconciliation of the given pair.
// Nothing is computed until Result is called.
func NewAnalysis(a, b *quotation.Quotation, opts ...Option) *Analysis {
	return &Analysis{a: a, b: b, opts: opts}
}

// Result returns the reconciliation result, computing it on first call.
func (an *Analysis) Result() (*Result, error) {
	an.once.Do(func() {
		an.result, an.err = Compute(an.a, an.b, an.opts...)
	})
	return an.result, an.err
}

// Computed reports whether the result has been materialized.
func (an *Analysis) Computed() bool {
	return an.result != nil || an.err != nil
}

// =============================================================================
// KEYED CACHE
// =============================================================================

// Cache memoizes reconciliation results across multiple dataset pairs,
// keyed by caller-supplied dataset identifiers. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Analysis
}

type cacheKey struct {
	idA, idB string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Analysis)}
}

// Result returns the memoized reconciliation for the identified pair,
// computing it on first access. Identifiers are opaque to the cache; the
// caller guarantees that equal identifiers mean equal datasets.
func (c *Cache) Result(idA, idB string, a, b *quotation.Quotation, opts ...Option) (*Result, error) {
	key := cacheKey{idA: idA, idB: idB}

	c.mu.Lock()
	an, ok := c.entries[key]
	if !ok {
		an = NewAnalysis(a, b, opts...)
		c.entries[key] = an
	}
	c.mu.Unlock()

	return an.Result()
}

// Len returns the number of cached pairs.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
