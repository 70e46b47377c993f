package xlsxparser

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// writePreWorkbook builds a minimal PRE workbook with one group, two
// categories and three items.
func writePreWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", preSheet))

	set := func(ref string, value interface{}) {
		require.NoError(t, f.SetCellValue(preSheet, ref, value))
	}

	// Project header.
	set("A1", "PROJECT: P-1001")
	set("G3", "CUSTOMER: ACME Corp")
	set("B8", "DOC: 0.02")
	set("B9", "PM: 0.03")
	set("B11", "CURRENCY: EUR")
	set("B12", "RATE: 1")

	// Group header at the data start row.
	set("C18", "TXT-01")
	set("D18", "Palletizing line")
	set("E18", 1)

	// First category with two items.
	set("A19", "MEC1")
	set("C19", "CAT-MEC")
	set("D19", "Mechanics")
	set("L19", 500.0)
	row := func(n int, code, desc string, qty, unit, total, unitCost, cost float64) {
		set("C"+itoa(n), code)
		set("D"+itoa(n), desc)
		set("E"+itoa(n), qty)
		set("F"+itoa(n), unit)
		set("G"+itoa(n), total)
		set("S"+itoa(n), unitCost)
		set("T"+itoa(n), cost)
	}
	row(20, "ITM-001", "Conveyor", 2, 100, 200, 70, 140)
	row(21, "ITM-002", "Gripper", 1, 300, 300, 180, 180)

	// Installation category with one item.
	set("A22", "E001")
	set("C22", "CAT-INST")
	set("D22", "Installation")
	set("L22", 150.0)
	row(23, "ITM-003", "Site works", 1, 150, 150, 90, 90)

	path := filepath.Join(t.TempDir(), "pre.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// writeProfittabilitaWorkbook builds a minimal profitability workbook with
// a VA21 offer sheet.
func writeProfittabilitaWorkbook(t *testing.T) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", profittabilitaSheet))

	set := func(sheet, ref string, value interface{}) {
		require.NoError(t, f.SetCellValue(sheet, ref, value))
	}

	set(profittabilitaSheet, "A1", "PROJECT: P-1001")
	set(profittabilitaSheet, "A2", "LISTINO: L-2026")

	// Group header (priority column C must be set or the row is skipped).
	set(profittabilitaSheet, "C4", 1)
	set(profittabilitaSheet, "H4", "TXT-01")
	set(profittabilitaSheet, "J4", "Palletizing line")
	set(profittabilitaSheet, "K4", 1)

	// Category row carrying the WBE.
	set(profittabilitaSheet, "A5", "MEC1")
	set(profittabilitaSheet, "C5", 1)
	set(profittabilitaSheet, "F5", "CC2199-A-PCZZ01-IT")
	set(profittabilitaSheet, "H5", "CAT-MEC")
	set(profittabilitaSheet, "J5", "Mechanics")
	set(profittabilitaSheet, "L5", 500.0)
	set(profittabilitaSheet, "O5", 320.0)

	// Item row with a material cost breakdown (column V).
	set(profittabilitaSheet, "C6", 1)
	set(profittabilitaSheet, "E6", "WBS-1")
	set(profittabilitaSheet, "H6", "ITM-001")
	set(profittabilitaSheet, "J6", "Conveyor")
	set(profittabilitaSheet, "K6", 2)
	set(profittabilitaSheet, "M6", 100.0)
	set(profittabilitaSheet, "N6", 200.0)
	set(profittabilitaSheet, "P6", 70.0)
	set(profittabilitaSheet, "Q6", 140.0)
	set(profittabilitaSheet, "V6", 85.0)

	// A filler row without priority must be ignored.
	set(profittabilitaSheet, "J7", "ignored filler")

	// VA21 offer sheet: older and newer versions, newest wins.
	for _, sheet := range []string{"VA21", "VA21_A01"} {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	set("VA21", "D18", "CC2199-A-PCZZ01-IT")
	set("VA21", "Y18", 111.0)
	// The newer revision splits the offer across two rows and uses the
	// US-coded WBE in the fallback column on one of them.
	set("VA21_A01", "D18", "CC2199-A-PCZZ01-IT")
	set("VA21_A01", "Y18", 400.0)
	set("VA21_A01", "C19", "CC2199-A-PCZZ01-US")
	set("VA21_A01", "Y19", 50.0)

	path := filepath.Join(t.TempDir(), "profittabilita.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func TestDetect(t *testing.T) {
	t.Run("PRE layout", func(t *testing.T) {
		format, err := Detect(writePreWorkbook(t))
		require.NoError(t, err)
		assert.Equal(t, FormatPre, format)
	})

	t.Run("profittabilita layout", func(t *testing.T) {
		format, err := Detect(writeProfittabilitaWorkbook(t))
		require.NoError(t, err)
		assert.Equal(t, FormatProfittabilita, format)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Detect(filepath.Join(t.TempDir(), "nope.xlsx"))
		assert.Error(t, err)
	})
}

func TestParsePre(t *testing.T) {
	q, err := Parse(writePreWorkbook(t))
	require.NoError(t, err)

	assert.Equal(t, quotation.ParserTypePre, q.ParserType)
	assert.Equal(t, "P-1001", q.Project.ID)
	assert.Equal(t, "ACME Corp", q.Project.Customer)
	assert.Equal(t, "EUR", q.Project.Parameters.Currency)
	assert.InDelta(t, 0.02, q.Project.Parameters.DocPercentage, 1e-9)

	require.Len(t, q.ProductGroups, 1)
	group := q.ProductGroups[0]
	assert.Equal(t, "TXT-01", group.ID)
	assert.Equal(t, "Palletizing line", group.Name)
	require.Len(t, group.Categories, 2)

	mec := group.Categories[0]
	assert.Equal(t, "MEC1", mec.ID)
	assert.False(t, mec.IsInstallation())
	require.Len(t, mec.Items, 2)
	assert.Equal(t, "ITM-001", mec.Items[0].Code)
	assert.InDelta(t, 200.0, mec.Items[0].TotalPrice, 1e-9)
	assert.InDelta(t, 140.0, mec.Items[0].TotalCost, 1e-9)

	inst := group.Categories[1]
	assert.True(t, inst.IsInstallation())
	require.Len(t, inst.Items, 1)

	// Subtotals left empty in the sheet are backfilled from items.
	assert.InDelta(t, 500.0, mec.PricelistSubtotal, 1e-9)
	assert.InDelta(t, 320.0, mec.CostSubtotal, 1e-9)

	assert.InDelta(t, 650.0, q.Totals.TotalListino, 1e-9)
	// Offer total is the category offers plus 5% doc and PM fees.
	assert.InDelta(t, 650*1.05, q.Totals.TotalOffer, 1e-9)
	assert.Equal(t, 3, q.ItemCount())
}

func TestParseProfittabilita(t *testing.T) {
	q, err := Parse(writeProfittabilitaWorkbook(t))
	require.NoError(t, err)

	assert.Equal(t, quotation.ParserTypeProfittabilita, q.ParserType)
	assert.Equal(t, "P-1001", q.Project.ID)
	assert.Equal(t, "L-2026", q.Project.Listino)

	require.Len(t, q.ProductGroups, 1)
	require.Len(t, q.ProductGroups[0].Categories, 1)
	cat := q.ProductGroups[0].Categories[0]
	assert.Equal(t, "CC2199-A-PCZZ01-IT", cat.WBE)
	assert.InDelta(t, 500.0, cat.PricelistSubtotal, 1e-9)
	assert.InDelta(t, 320.0, cat.CostSubtotal, 1e-9)

	require.Len(t, cat.Items, 1)
	item := cat.Items[0]
	assert.Equal(t, "ITM-001", item.Code)
	assert.Equal(t, "WBS-1", item.WBS)
	assert.InDelta(t, 85.0, item.CostField("material"), 1e-9)

	// Offer comes from the latest VA21 revision with both rows summed,
	// including the US-coded fallback row.
	assert.InDelta(t, 450.0, cat.OfferPrice, 1e-9)
	assert.InDelta(t, 450.0, q.Totals.TotalOffer, 1e-9)
	assert.InDelta(t, 500.0, q.Totals.TotalListino, 1e-9)
	assert.InDelta(t, 320.0, q.Totals.TotalCost, 1e-9)
}

func TestWBEUSToIT(t *testing.T) {
	assert.Equal(t, "CC2199-A-PCZZ01-IT", wbeUSToIT("CC2199-A-PCZZ01-US"))
	assert.Equal(t, "CC2199-A-PCZZ01-IT", wbeUSToIT("CC2199-A-PCZZ01-IT"))
	assert.Equal(t, "PLAIN", wbeUSToIT("  PLAIN "))
	assert.Equal(t, "", wbeUSToIT(""))
}
