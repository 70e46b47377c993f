// =============================================================================
// PRE Analyzer - Analisi Profittabilita Parser
// =============================================================================
//
// This module parses the profitability analysis workbook layout. The main
// data lives on the "NEW_OFFER1" sheet:
//   - Rows 1-2 hold the project identifier and pricelist reference.
//   - Row 3 is the column header row.
//   - Data rows start at row 4; rows without a priority value are layout
//     filler and are skipped.
//   - Columns 22 onward carry the per-discipline cost breakdown (material,
//     engineering, software, manufacturing, testing, field services).
//
// Workbooks may also carry versioned VA21 sheets (VA21, VA21_A01, ...)
// holding negotiated offer totals per WBE. The latest VA21 sheet is merged
// into the parsed categories so downstream margin calculations can use
// real offer prices.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// =============================================================================
// SHEET LAYOUT CONSTANTS
// =============================================================================

const (
	apDataStart   = 4
	apGroupPrefix = "TXT"
	apCategoryLen = 4
	apHeaderName  = "DENOMINAZIONE"
)

// NEW_OFFER1 columns (1-based).
const (
	apColCod           = 1
	apColPriority      = 3
	apColWBS           = 5
	apColWBE           = 6
	apColPosition      = 7
	apColCodice        = 8
	apColCodListino    = 9
	apColDenominazione = 10
	apColQta           = 11
	apColSubTotListino = 12
	apColListUnit      = 13
	apColListinoTotale = 14
	apColSubTotCosto   = 15
	apColCostoUnitario = 16
	apColCostoTotale   = 17
)

// apCostColumns maps the per-discipline cost breakdown columns of the
// NEW_OFFER1 sheet to the field names stored on each item.
var apCostColumns = []struct {
	Name string
	Col  int
}{
	{"material", 22},
	{"utm_robot", 23},
	{"utm_lgv", 25},
	{"utm_intra", 27},
	{"utm_layout", 29},
	{"ute", 31},
	{"ba", 33},
	{"sw_pc", 35},
	{"sw_plc", 37},
	{"sw_lgv", 39},
	{"mtg_mec", 41},
	{"mtg_mec_intra", 43},
	{"cab_ele", 45},
	{"cab_ele_intra", 47},
	{"coll_ba", 49},
	{"coll_pc", 51},
	{"coll_plc", 53},
	{"coll_lgv", 55},
	{"pm", 57},
	{"spese_pm", 59},
	{"document", 60},
	{"imballo", 62},
	{"stoccaggio", 63},
	{"trasporto", 64},
	{"site", 65},
	{"install", 67},
	{"av_pc", 69},
	{"av_plc", 71},
	{"av_lgv", 73},
	{"spese_field", 75},
	{"spese_varie", 76},
	{"after_sales", 77},
	{"provvigioni_italia", 78},
	{"provvigioni_estero", 79},
	{"tesoretto", 80},
	{"montaggio_bema", 81},
}

// VA21 offer sheet layout.
const (
	va21Prefix    = "VA21"
	va21DataStart = 18
	va21ColWBEOld = 3  // Column C, US-coded WBE fallback
	va21ColWBE    = 4  // Column D, primary WBE
	va21ColOffer  = 25 // Column Y, offer total
	wbeSuffixUS   = "-US"
	wbeSuffixIT   = "-IT"
)

// =============================================================================
// PARSER
// =============================================================================

// ParseProfittabilita parses an Analisi Profittabilita workbook into a
// quotation, merging VA21 offer totals when a VA21 sheet is present.
func ParseProfittabilita(path string) (*quotation.Quotation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(profittabilitaSheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q not found: %w", profittabilitaSheet, err)
	}

	q := &quotation.Quotation{
		Project:       apProject(f),
		ProductGroups: apProductGroups(rows),
	}

	offers := extractVA21Offers(f)
	applyOffers(q, offers)
	q.Totals = apTotals(q)
	stamp(q, path, FormatProfittabilita)

	return q, nil
}

// apProject extracts the two-cell project header of the NEW_OFFER1 sheet.
func apProject(f *excelize.File) quotation.Project {
	id, _ := f.GetCellValue(profittabilitaSheet, "A1")
	listino, _ := f.GetCellValue(profittabilitaSheet, "A2")
	return quotation.Project{
		ID:      afterColon(id),
		Listino: afterColon(listino),
	}
}

// apProductGroups walks the data rows and rebuilds the group, category
// and item hierarchy. Rows without a priority value are skipped.
func apProductGroups(rows [][]string) []quotation.ProductGroup {
	var groups []quotation.ProductGroup
	var group *quotation.ProductGroup
	var category *quotation.Category

	for i := apDataStart - 1; i < len(rows); i++ {
		row := rows[i]
		if cell(row, apColPriority) == "" {
			continue
		}

		cod := cell(row, apColCod)
		codice := cell(row, apColCodice)
		denominazione := cell(row, apColDenominazione)

		switch {
		case strings.HasPrefix(codice, apGroupPrefix):
			groups = append(groups, quotation.ProductGroup{
				ID:       codice,
				Name:     denominazione,
				Quantity: safeInt(cell(row, apColQta), 1),
			})
			group = &groups[len(groups)-1]
			category = nil

		case len(cod) == apCategoryLen && group != nil:
			group.Categories = append(group.Categories, quotation.Category{
				ID:                cod,
				Code:              codice,
				Name:              denominazione,
				WBE:               cell(row, apColWBE),
				PricelistSubtotal: cellFloat(row, apColSubTotListino),
				CostSubtotal:      cellFloat(row, apColSubTotCosto),
				TotalCost:         cellFloat(row, apColCostoTotale),
			})
			category = &group.Categories[len(group.Categories)-1]

		case denominazione != "" && denominazione != apHeaderName && category != nil:
			category.Items = append(category.Items, apItem(row, i+1))
		}
	}

	return groups
}

// apItem builds one item record including its cost breakdown.
func apItem(row []string, rowNum int) quotation.Item {
	item := quotation.Item{
		Position:      cell(row, apColPosition),
		Code:          cell(row, apColCodice),
		PricelistCode: cell(row, apColCodListino),
		Description:   cell(row, apColDenominazione),
		Quantity:      cellFloat(row, apColQta),
		UnitPrice:     cellFloat(row, apColListUnit),
		TotalPrice:    cellFloat(row, apColListinoTotale),
		UnitCost:      cellFloat(row, apColCostoUnitario),
		TotalCost:     cellFloat(row, apColCostoTotale),
		WBS:           cell(row, apColWBS),
	}
	if item.Position == "" {
		item.Position = fmt.Sprintf("%d", rowNum)
	}

	for _, cc := range apCostColumns {
		if v := cellFloat(row, cc.Col); v != 0 {
			if item.Costs == nil {
				item.Costs = make(map[string]float64)
			}
			item.Costs[cc.Name] = v
		}
	}

	return item
}

// =============================================================================
// VA21 OFFER SHEETS
// =============================================================================

// latestVA21Sheet returns the highest-versioned VA21 sheet name, or ""
// when the workbook carries none. Sheets are named VA21, VA21_A01,
// VA21_A02, ... so lexicographic order matches version order.
func latestVA21Sheet(f *excelize.File) string {
	var sheets []string
	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, va21Prefix) {
			sheets = append(sheets, name)
		}
	}
	if len(sheets) == 0 {
		return ""
	}
	sort.Strings(sheets)
	return sheets[len(sheets)-1]
}

// wbeUSToIT rewrites a US-coded WBE to its IT equivalent. Values without
// the US suffix pass through unchanged.
func wbeUSToIT(wbe string) string {
	wbe = strings.TrimSpace(wbe)
	if strings.HasSuffix(wbe, wbeSuffixUS) {
		return strings.TrimSuffix(wbe, wbeSuffixUS) + wbeSuffixIT
	}
	return wbe
}

// extractVA21Offers reads the latest VA21 sheet and returns the summed
// offer total per WBE. Multiple rows for the same WBE are accumulated.
func extractVA21Offers(f *excelize.File) map[string]float64 {
	sheet := latestVA21Sheet(f)
	if sheet == "" {
		return nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil
	}

	offers := make(map[string]float64)
	for i := va21DataStart - 1; i < len(rows); i++ {
		row := rows[i]

		wbe := cell(row, va21ColWBE)
		if wbe == "" {
			wbe = wbeUSToIT(cell(row, va21ColWBEOld))
		}
		if wbe == "" {
			continue
		}

		offer := cell(row, va21ColOffer)
		if offer == "" {
			continue
		}
		offers[wbe] += safeFloat(offer)
	}

	return offers
}

// applyOffers merges VA21 offer totals into the matching categories.
func applyOffers(q *quotation.Quotation, offers map[string]float64) {
	if len(offers) == 0 {
		return
	}
	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			cat := &q.ProductGroups[gi].Categories[ci]
			if cat.WBE == "" {
				continue
			}
			if offer, ok := offers[cat.WBE]; ok {
				cat.OfferPrice = offer
			}
		}
	}
}

// =============================================================================
// TOTALS
// =============================================================================

// apTotals sums the category subtotals into the quotation aggregates.
// The offer margin follows the negotiated VA21 prices when present.
func apTotals(q *quotation.Quotation) quotation.Totals {
	var totals quotation.Totals
	for gi := range q.ProductGroups {
		for ci := range q.ProductGroups[gi].Categories {
			cat := &q.ProductGroups[gi].Categories[ci]
			totals.TotalListino += cat.PricelistSubtotal
			totals.TotalCost += cat.CostSubtotal
			totals.TotalOffer += cat.OfferPrice
		}
	}

	totals.OfferMargin = totals.TotalOffer - totals.TotalCost
	if totals.TotalOffer > 0 {
		totals.OfferMarginPct = (1 - totals.TotalCost/totals.TotalOffer) * 100
	}
	return totals
}
