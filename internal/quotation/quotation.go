// =============================================================================
// PRE Analyzer - Quotation Data Model
// =============================================================================
//
// This package contains the shared quotation data model used across multiple
// modules to avoid import cycles. Types defined here are used by:
//   - xlsxparser
//   - reconcile
//   - validation
//   - report
//
// A quotation is a hierarchical structure:
//
//   Quotation -> ProductGroup -> Category -> Item
//
// with project metadata and aggregate totals attached at the root. The two
// supported source formats (PRE files and Analisi Profittabilita files) both
// produce this structure, so downstream code never needs to know which
// format a quotation came from.
//
// =============================================================================

package quotation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// PARSER TYPE CONSTANTS
// =============================================================================

// Parser type identifiers recorded on a parsed quotation.
const (
	ParserTypePre            = "pre"
	ParserTypeProfittabilita = "analisi_profittabilita"
)

// =============================================================================
// ITEM STRUCTURE
// =============================================================================

// Item is a leaf record of the quotation hierarchy: a single priced line.
type Item struct {
	// Position is the line position within the source sheet, kept for
	// traceability back to the original file.
	Position string `json:"position,omitempty"`

	// Code is the unique join key within one dataset. Items with a blank
	// code cannot participate in reconciliation.
	Code string `json:"code"`

	// PricelistCode is the supplier pricelist reference, when present.
	PricelistCode string `json:"pricelist_code,omitempty"`

	// Description is the human-readable line description.
	Description string `json:"description"`

	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	UnitCost   float64 `json:"unit_cost"`
	TotalCost  float64 `json:"total_cost"`

	// WBS is the work breakdown reference carried on the line itself,
	// where the source format provides one.
	WBS string `json:"wbs,omitempty"`

	// Costs is an open set of named cost-breakdown fields (material,
	// engineering, manufacturing, installation, ...). Keys depend on the
	// source format; absent keys mean zero.
	Costs map[string]float64 `json:"costs,omitempty"`
}

// CostField returns the named cost-breakdown value, or 0 if the field is
// not present on this item.
func (it *Item) CostField(name string) float64 {
	if it.Costs == nil {
		return 0
	}
	return it.Costs[name]
}

// =============================================================================
// CATEGORY STRUCTURE
// =============================================================================

// Category is a grouping of items below a product group. Categories carry
// the WBE assignment used for cost-accounting rollups.
type Category struct {
	// ID is the category identifier from the source sheet.
	ID string `json:"id"`

	// Code is the short category code (the 4-character COD column in PRE
	// files), when the source provides one.
	Code string `json:"code,omitempty"`

	// Name is the category description.
	Name string `json:"name"`

	// WBE is the Work Breakdown Element assigned to this category.
	// Empty means unassigned.
	WBE string `json:"wbe,omitempty"`

	// PricelistSubtotal and CostSubtotal are the subtotals declared by the
	// source file. They may differ slightly from the sum of item values
	// due to rounding in the source; see CheckTotals.
	PricelistSubtotal float64 `json:"pricelist_subtotal"`
	CostSubtotal      float64 `json:"cost_subtotal"`

	// TotalCost and OfferPrice are populated by the profittabilita format
	// only; PRE files leave them at zero.
	TotalCost  float64 `json:"total_cost,omitempty"`
	OfferPrice float64 `json:"offer_price,omitempty"`

	Items []Item `json:"items"`
}

// CalculatedPricelistSubtotal sums the item total prices of this category.
func (c *Category) CalculatedPricelistSubtotal() float64 {
	var sum float64
	for i := range c.Items {
		sum += c.Items[i].TotalPrice
	}
	return sum
}

// CalculatedCostSubtotal sums the item total costs of this category.
func (c *Category) CalculatedCostSubtotal() float64 {
	var sum float64
	for i := range c.Items {
		sum += c.Items[i].TotalCost
	}
	return sum
}

// MarginAmount returns the pricelist subtotal minus the cost subtotal.
func (c *Category) MarginAmount() float64 {
	return c.PricelistSubtotal - c.CostSubtotal
}

// MarginPercentage returns the margin as a percentage of the pricelist
// subtotal, or 0 when the subtotal is 0.
func (c *Category) MarginPercentage() float64 {
	if c.PricelistSubtotal == 0 {
		return 0
	}
	return c.MarginAmount() / c.PricelistSubtotal * 100
}

// IsInstallation reports whether this category is an installation category.
// Installation categories have identifiers starting with 'E'.
func (c *Category) IsInstallation() bool {
	return strings.HasPrefix(c.ID, "E")
}

// =============================================================================
// PRODUCT GROUP STRUCTURE
// =============================================================================

// ProductGroup is the top grouping level of the quotation hierarchy.
type ProductGroup struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity,omitempty"`

	Categories []Category `json:"categories"`
}

// =============================================================================
// PROJECT AND TOTALS STRUCTURES
// =============================================================================

// ProjectParameters holds commercial parameters extracted from the project
// header area of the source sheet.
type ProjectParameters struct {
	DocPercentage      float64 `json:"doc_percentage"`
	PMPercentage       float64 `json:"pm_percentage"`
	FinancialCosts     float64 `json:"financial_costs"`
	Currency           string  `json:"currency"`
	ExchangeRate       float64 `json:"exchange_rate"`
	WasteDisposal      float64 `json:"waste_disposal"`
	WarrantyPercentage float64 `json:"warranty_percentage"`
}

// SalesInfo holds the sales-side metadata of a project.
type SalesInfo struct {
	AreaManager string `json:"area_manager,omitempty"`
	Agent       string `json:"agent,omitempty"`
	Commission  string `json:"commission,omitempty"`
	Author      string `json:"author,omitempty"`
}

// Project holds the project identification block of a quotation.
type Project struct {
	ID         string            `json:"id"`
	Customer   string            `json:"customer,omitempty"`
	Listino    string            `json:"listino,omitempty"`
	Parameters ProjectParameters `json:"parameters"`
	Sales      SalesInfo         `json:"sales_info"`
}

// Totals holds the aggregate financials declared by the source file.
// The reconciliation summary trusts these rather than re-summing items,
// since the two may legitimately diverge due to source rounding.
type Totals struct {
	TotalListino   float64 `json:"total_listino"`
	TotalCost      float64 `json:"total_cost"`
	TotalOffer     float64 `json:"total_offer"`
	OfferMargin    float64 `json:"offer_margin"`
	OfferMarginPct float64 `json:"offer_margin_percentage"`
}

// =============================================================================
// QUOTATION ROOT STRUCTURE
// =============================================================================

// Quotation is the root of a parsed dataset.
type Quotation struct {
	Project       Project        `json:"project"`
	ProductGroups []ProductGroup `json:"product_groups"`
	Totals        Totals         `json:"totals"`

	// SourceFile and ParserType record where this quotation came from.
	SourceFile string    `json:"source_file,omitempty"`
	ParserType string    `json:"parser_type,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// ItemCount returns the number of items across all groups and categories.
func (q *Quotation) ItemCount() int {
	var n int
	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			n += len(q.ProductGroups[gi].Categories[ci].Items)
		}
	}
	return n
}

// CalculatedTotalListino sums item total prices across the whole quotation.
func (q *Quotation) CalculatedTotalListino() float64 {
	var sum float64
	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			sum += q.ProductGroups[gi].Categories[ci].CalculatedPricelistSubtotal()
		}
	}
	return sum
}

// CalculatedTotalCost sums item total costs across the whole quotation.
func (q *Quotation) CalculatedTotalCost() float64 {
	var sum float64
	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			sum += q.ProductGroups[gi].Categories[ci].CalculatedCostSubtotal()
		}
	}
	return sum
}

// =============================================================================
// TOTALS CONSISTENCY CHECK
// =============================================================================

// TotalsDeviation describes a divergence between a declared total and the
// value recomputed from item lines.
type TotalsDeviation struct {
	// Scope identifies where the deviation was found, e.g. "project" or
	// "category CAT01".
	Scope string

	// Field is the name of the diverging total ("listino" or "cost").
	Field string

	Declared   float64
	Calculated float64
}

func (d TotalsDeviation) String() string {
	return fmt.Sprintf("%s %s: declared=%.2f calculated=%.2f",
		d.Scope, d.Field, d.Declared, d.Calculated)
}

// CheckTotals compares declared subtotals against recomputed item sums and
// returns one deviation per diverging value. Divergence within tolerance
// is ignored. Deviations are diagnostic information, not errors.
func (q *Quotation) CheckTotals(tolerance float64) []TotalsDeviation {
	var devs []TotalsDeviation

	check := func(scope, field string, declared, calculated float64) {
		if declared == 0 {
			// Source files often omit subtotals; an absent declared
			// value is not a deviation.
			return
		}
		if math.Abs(declared-calculated) > tolerance {
			devs = append(devs, TotalsDeviation{
				Scope:      scope,
				Field:      field,
				Declared:   declared,
				Calculated: calculated,
			})
		}
	}

	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			cat := &q.ProductGroups[gi].Categories[ci]
			scope := "category " + cat.ID
			check(scope, "listino", cat.PricelistSubtotal, cat.CalculatedPricelistSubtotal())
			check(scope, "cost", cat.CostSubtotal, cat.CalculatedCostSubtotal())
		}
	}

	check("project", "listino", q.Totals.TotalListino, q.CalculatedTotalListino())
	check("project", "cost", q.Totals.TotalCost, q.CalculatedTotalCost())

	return devs
}

// =============================================================================
// CURRENCY NORMALIZATION
// =============================================================================

// Supported currency codes.
const (
	CurrencyEUR = "EUR"
	CurrencyUSD = "USD"
)

// currencyVariants maps common spellings and symbols seen in source sheets
// to standard currency codes.
var currencyVariants = map[string]string{
	"EURO":    CurrencyEUR,
	"EUROS":   CurrencyEUR,
	"€":       CurrencyEUR,
	"DOLLAR":  CurrencyUSD,
	"DOLLARS": CurrencyUSD,
	"$":       CurrencyUSD,
	"POUND":   "GBP",
	"POUNDS":  "GBP",
	"£":       "GBP",
	"YEN":     "JPY",
	"¥":       "JPY",
}

// NormalizeCurrencyCode maps a raw currency value from a source sheet to a
// standard code. The value is trimmed and upper-cased, common variants
// (EURO, €, DOLLARS, $, ...) are mapped to their ISO code, and anything
// that is empty or not a supported currency falls back to EUR.
func NormalizeCurrencyCode(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return CurrencyEUR
	}

	if mapped, ok := currencyVariants[code]; ok {
		code = mapped
	}

	switch code {
	case CurrencyEUR, CurrencyUSD:
		return code
	default:
		return CurrencyEUR
	}
}

// NormalizeCurrency converts every monetary value of the quotation using
// the project's exchange rate. A zero or unit exchange rate is a no-op.
// Quantities are left untouched. The project currency code is normalized
// to a standard code as a side effect, so snapshot-loaded quotations end
// up with the same code a fresh parse would produce.
func (q *Quotation) NormalizeCurrency() {
	q.Project.Parameters.Currency = NormalizeCurrencyCode(q.Project.Parameters.Currency)

	rate := q.Project.Parameters.ExchangeRate
	if rate == 0 || rate == 1 {
		return
	}

	scale := func(v float64) float64 { return v / rate }

	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			cat := &q.ProductGroups[gi].Categories[ci]
			cat.PricelistSubtotal = scale(cat.PricelistSubtotal)
			cat.CostSubtotal = scale(cat.CostSubtotal)
			cat.TotalCost = scale(cat.TotalCost)
			cat.OfferPrice = scale(cat.OfferPrice)
			for ii := range cat.Items {
				it := &cat.Items[ii]
				it.UnitPrice = scale(it.UnitPrice)
				it.TotalPrice = scale(it.TotalPrice)
				it.UnitCost = scale(it.UnitCost)
				it.TotalCost = scale(it.TotalCost)
				for k, v := range it.Costs {
					it.Costs[k] = scale(v)
				}
			}
		}
	}

	q.Totals.TotalListino = scale(q.Totals.TotalListino)
	q.Totals.TotalCost = scale(q.Totals.TotalCost)
	q.Totals.TotalOffer = scale(q.Totals.TotalOffer)
	q.Totals.OfferMargin = scale(q.Totals.OfferMargin)
}

// =============================================================================
// JSON SERIALIZATION
// =============================================================================

// Save writes the quotation to a JSON file, creating parent directories
// as needed.
//
// PARAMETERS:
//   - path: The destination file path.
//
// RETURNS:
//   - An error if the file cannot be written.
func (q *Quotation) Save(path string) error {
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal quotation: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write quotation file: %w", err)
	}

	return nil
}

// Load reads a quotation from a JSON file previously written by Save.
func Load(path string) (*Quotation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quotation file: %w", err)
	}
	return FromJSON(data)
}

// FromJSON decodes a quotation from raw JSON bytes.
func FromJSON(data []byte) (*Quotation, error) {
	var q Quotation
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("failed to parse quotation JSON: %w", err)
	}
	return &q, nil
}
