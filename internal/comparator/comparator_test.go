package comparator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ogghst/pre-analyzer/internal/config"
	"github.com/ogghst/pre-analyzer/internal/reconcile"
	"github.com/ogghst/pre-analyzer/internal/xlsxparser"
)

// writePre writes a minimal PRE workbook with the given item rows.
func writePre(t *testing.T, dir string, items [][4]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "OFFER1"))

	set := func(ref string, v interface{}) {
		require.NoError(t, f.SetCellValue("OFFER1", ref, v))
	}
	set("A1", "PROJECT: P-1001")
	set("C18", "TXT-01")
	set("D18", "Line")
	set("A19", "MEC1")
	set("C19", "CAT-MEC")
	set("D19", "Mechanics")

	rowNum := 20
	for _, it := range items {
		n := itoa(rowNum)
		set("C"+n, it[0]) // code
		set("D"+n, it[1]) // description
		set("E"+n, it[2]) // quantity
		set("G"+n, it[3]) // total price
		rowNum++
	}

	path := filepath.Join(dir, "pre.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

// writeProf writes a minimal profitability workbook with one WBE-tagged
// category and the given item rows.
func writeProf(t *testing.T, dir string, items [][4]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "NEW_OFFER1"))

	set := func(ref string, v interface{}) {
		require.NoError(t, f.SetCellValue("NEW_OFFER1", ref, v))
	}
	set("A1", "PROJECT: P-1001")
	set("C4", 1)
	set("H4", "TXT-01")
	set("J4", "Line")
	set("A5", "MEC1")
	set("C5", 1)
	set("F5", "W1")
	set("H5", "CAT-MEC")
	set("J5", "Mechanics")

	rowNum := 6
	for _, it := range items {
		n := itoa(rowNum)
		set("C"+n, 1)
		set("H"+n, it[0]) // code
		set("J"+n, it[1]) // description
		set("K"+n, it[2]) // quantity
		set("N"+n, it[3]) // total price
		rowNum++
	}

	path := filepath.Join(dir, "prof.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func itoa(n int) string {
	cell, _ := excelize.CoordinatesToCellName(1, n)
	return cell[1:]
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.InputDir = filepath.Join(dir, "in")
	cfg.OutputDir = filepath.Join(dir, "out")
	cfg.ArchiveDir = filepath.Join(dir, "arch")
	cfg.ReportNameFormat = "report_{project}"
	cfg.LogLevel = "error"
	return cfg
}

func TestComparatorRun(t *testing.T) {
	dir := t.TempDir()
	first := writePre(t, dir, [][4]interface{}{
		{"ITM-001", "Conveyor", 2, 200.0},
		{"ITM-002", "Gripper", 1, 350.0},
		{"ITM-003", "Scanner", 1, 80.0},
	})
	second := writeProf(t, dir, [][4]interface{}{
		{"ITM-001", "Conveyor", 2, 200.0},
		{"ITM-002", "Gripper", 1, 300.0},
	})

	cfg := testConfig(t)
	result := New(first, second, cfg).Run()

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Stats.ItemsFirst)
	assert.Equal(t, 2, result.Stats.ItemsSecond)
	assert.Equal(t, 3, result.Stats.CodesCompared)

	rec := result.Reconciliation
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.Summary.Matching)
	assert.Equal(t, 1, rec.Summary.ValueMismatch)
	assert.Equal(t, 1, rec.Summary.MissingInB)

	// The added item falls back to the first dataset's context, which has
	// no WBE, so the single impact entry covers only W1 pricing changes.
	require.Len(t, rec.WBEImpacts, 1)
	assert.Equal(t, "W1", rec.WBEImpacts[0].WBE)
	assert.Equal(t, 1, rec.WBEImpacts[0].ItemsModified)

	// JSON + three CSVs + text summary.
	require.Len(t, result.OutputFiles, 5)
	for _, path := range result.OutputFiles {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
	assert.Equal(t, filepath.Join(cfg.OutputDir, "report_P-1001.json"), result.OutputFiles[0])
}

func TestComparatorDryRun(t *testing.T) {
	dir := t.TempDir()
	first := writePre(t, dir, [][4]interface{}{{"ITM-001", "Conveyor", 1, 100.0}})
	second := writeProf(t, dir, [][4]interface{}{{"ITM-001", "Conveyor", 1, 100.0}})

	c := New(first, second, testConfig(t))
	c.DryRun = true
	result := c.Run()

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Empty(t, result.OutputFiles)
	require.NotNil(t, result.Reconciliation)
	assert.Equal(t, 1, result.Reconciliation.Summary.Matching)
}

func TestComparatorSnapshotInput(t *testing.T) {
	dir := t.TempDir()
	firstXlsx := writePre(t, dir, [][4]interface{}{
		{"ITM-001", "Conveyor", 2, 200.0},
		{"ITM-002", "Gripper", 1, 350.0},
	})
	second := writeProf(t, dir, [][4]interface{}{
		{"ITM-001", "Conveyor", 2, 200.0},
		{"ITM-002", "Gripper", 1, 300.0},
	})

	// Replace the first workbook with a JSON snapshot of itself.
	q, err := xlsxparser.Parse(firstXlsx)
	require.NoError(t, err)
	snapshot := filepath.Join(dir, "first.json")
	require.NoError(t, q.Save(snapshot))

	c := New(snapshot, second, testConfig(t))
	c.DryRun = true
	result := c.Run()

	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Stats.ItemsFirst)
	assert.Equal(t, 1, result.Reconciliation.Summary.Matching)
	assert.Equal(t, 1, result.Reconciliation.Summary.ValueMismatch)
}

func TestComparatorMissingFile(t *testing.T) {
	dir := t.TempDir()
	second := writeProf(t, dir, [][4]interface{}{{"ITM-001", "Conveyor", 1, 100.0}})

	result := New(filepath.Join(dir, "missing.xlsx"), second, testConfig(t)).Run()

	assert.False(t, result.Success)
	assert.Error(t, result.Error)
}

func TestConfiguredFields(t *testing.T) {
	cfg := testConfig(t)
	cfg.Comparison.NumericFields = []string{"total_price"}
	cfg.Comparison.TextFields = nil

	dir := t.TempDir()
	// Same prices, different descriptions: with only total_price compared
	// the items must match.
	first := writePre(t, dir, [][4]interface{}{{"ITM-001", "Conveyor A", 1, 100.0}})
	second := writeProf(t, dir, [][4]interface{}{{"ITM-001", "Conveyor B", 1, 100.0}})

	c := New(first, second, cfg)
	c.DryRun = true
	result := c.Run()

	require.NoError(t, result.Error)
	assert.Equal(t, 1, result.Reconciliation.Summary.Matching)
	assert.Equal(t, reconcile.OutcomeMatch, result.Reconciliation.ItemComparisons[0].Outcome)
}
