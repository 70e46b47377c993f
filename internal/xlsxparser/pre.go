// =============================================================================
// PRE Analyzer - PRE File Parser
// =============================================================================
//
// This module parses the PRE (commercial offer) workbook layout. All data
// lives on the "OFFER1" sheet:
//   - Rows 1-16 hold the project header ("Label: value" cells).
//   - Row 17 is the column header row.
//   - Data rows start at row 18 and interleave three record kinds,
//     identified by the COD and CODICE columns:
//       group header  : CODICE starts with "TXT-"
//       category      : COD is a 4-character code
//       item          : any other row with CODICE and DENOMINAZIONE set
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// =============================================================================
// SHEET LAYOUT CONSTANTS
// =============================================================================

const (
	preSheet       = "OFFER1"
	preDataStart   = 18
	preGroupPrefix = "TXT-"
	preHeaderCode  = "COD"
	preCategoryLen = 4
)

// PRE sheet columns (1-based).
const (
	preColCod           = 1
	preColCodice        = 3
	preColDenominazione = 4
	preColQta           = 5
	preColListUnit      = 6
	preColListino       = 7
	preColSubTotListino = 8
	preColTotaleOfferta = 12
	preColCodListino    = 17
	preColCostoUnitario = 19
	preColCosto         = 20
	preColSubTotCosto   = 21
)

// Project header cells of the PRE sheet.
const (
	preCellProjectID     = "A1"
	preCellCustomer      = "G3"
	preCellDocPct        = "B8"
	preCellPMPct         = "B9"
	preCellFinancial     = "B10"
	preCellCurrency      = "B11"
	preCellExchangeRate  = "B12"
	preCellWasteDisposal = "B13"
	preCellWarrantyPct   = "K8"
)

// =============================================================================
// PARSER
// =============================================================================

// ParsePre parses a PRE workbook into a quotation.
func ParsePre(path string) (*quotation.Quotation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(preSheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q not found: %w", preSheet, err)
	}

	q := &quotation.Quotation{
		Project:       preProject(f),
		ProductGroups: preProductGroups(rows),
	}
	q.Totals = preTotals(q)
	stamp(q, path, FormatPre)

	return q, nil
}

// preProject extracts the project header block.
func preProject(f *excelize.File) quotation.Project {
	get := func(ref string) string {
		v, _ := f.GetCellValue(preSheet, ref)
		return afterColon(v)
	}

	return quotation.Project{
		ID:       get(preCellProjectID),
		Customer: get(preCellCustomer),
		Parameters: quotation.ProjectParameters{
			DocPercentage:      safeFloat(get(preCellDocPct)),
			PMPercentage:       safeFloat(get(preCellPMPct)),
			FinancialCosts:     safeFloat(get(preCellFinancial)),
			Currency:           quotation.NormalizeCurrencyCode(get(preCellCurrency)),
			ExchangeRate:       safeFloat(get(preCellExchangeRate)),
			WasteDisposal:      safeFloat(get(preCellWasteDisposal)),
			WarrantyPercentage: safeFloat(get(preCellWarrantyPct)),
		},
	}
}

// preProductGroups walks the data rows and rebuilds the group, category
// and item hierarchy.
func preProductGroups(rows [][]string) []quotation.ProductGroup {
	var groups []quotation.ProductGroup
	var group *quotation.ProductGroup
	var category *quotation.Category

	for i := preDataStart - 1; i < len(rows); i++ {
		row := rows[i]
		cod := cell(row, preColCod)
		codice := cell(row, preColCodice)
		denominazione := cell(row, preColDenominazione)

		switch {
		case strings.HasPrefix(codice, preGroupPrefix):
			groups = append(groups, quotation.ProductGroup{
				ID:       codice,
				Name:     denominazione,
				Quantity: safeInt(cell(row, preColQta), 1),
			})
			group = &groups[len(groups)-1]
			category = nil

		case len(cod) == preCategoryLen && group != nil:
			group.Categories = append(group.Categories, quotation.Category{
				ID:                cod,
				Code:              codice,
				Name:              denominazione,
				PricelistSubtotal: cellFloat(row, preColSubTotListino),
				CostSubtotal:      cellFloat(row, preColSubTotCosto),
				OfferPrice:        cellFloat(row, preColTotaleOfferta),
			})
			category = &group.Categories[len(group.Categories)-1]

		case codice != "" && denominazione != "" && category != nil &&
			!strings.HasPrefix(codice, preHeaderCode):
			category.Items = append(category.Items, quotation.Item{
				Position:      fmt.Sprintf("%d", i+1),
				Code:          codice,
				PricelistCode: cell(row, preColCodListino),
				Description:   denominazione,
				Quantity:      cellFloat(row, preColQta),
				UnitPrice:     cellFloat(row, preColListUnit),
				TotalPrice:    cellFloat(row, preColListino),
				UnitCost:      cellFloat(row, preColCostoUnitario),
				TotalCost:     cellFloat(row, preColCosto),
			})
		}
	}

	// Backfill category subtotals the source left empty.
	for gi := range groups {
		for ci := range groups[gi].Categories {
			cat := &groups[gi].Categories[ci]
			if cat.PricelistSubtotal == 0 {
				cat.PricelistSubtotal = cat.CalculatedPricelistSubtotal()
			}
			if cat.CostSubtotal == 0 {
				cat.CostSubtotal = cat.CalculatedCostSubtotal()
			}
		}
	}

	return groups
}

// preTotals derives the aggregate financials of a PRE quotation. The
// offer total includes the percentage fees declared in the project header,
// applied to the equipment plus installation subtotal.
func preTotals(q *quotation.Quotation) quotation.Totals {
	var equipment, installation, cost float64
	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			cat := &q.ProductGroups[gi].Categories[ci]
			if cat.IsInstallation() {
				installation += cat.OfferPrice
			} else {
				equipment += cat.OfferPrice
			}
			cost += cat.CostSubtotal
		}
	}

	subtotal := equipment + installation
	params := q.Project.Parameters
	fees := subtotal * (params.DocPercentage + params.PMPercentage + params.WarrantyPercentage)

	totals := quotation.Totals{
		TotalListino: q.CalculatedTotalListino(),
		TotalCost:    cost,
		TotalOffer:   subtotal + fees,
	}
	totals.OfferMargin = totals.TotalOffer - totals.TotalCost
	if totals.TotalOffer != 0 {
		totals.OfferMarginPct = totals.OfferMargin / totals.TotalOffer * 100
	}
	return totals
}
