// =============================================================================
// PRE Analyzer - Quotation Workbook Parser
// =============================================================================
//
// This module is responsible for parsing XLSX quotation workbooks into the
// shared quotation model. Two source formats are supported:
//   - PRE files: the commercial offer layout (sheet "OFFER1")
//   - Analisi Profittabilita files: the profitability analysis layout
//     (sheet "NEW_OFFER1", with optional VA21 offer sheets)
//
// FORMAT DETECTION:
//   A workbook containing a "NEW_OFFER1" sheet is an Analisi Profittabilita
//   file; anything else is treated as a PRE file. When the detected parser
//   fails, the other one is tried before giving up, since some exports
//   carry misleading sheet layouts.
//
// Both parsers are best-effort: malformed numeric cells coerce to 0 and
// missing cells to the empty string, so a partially filled workbook still
// produces a usable quotation.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ogghst/pre-analyzer/internal/quotation"
)

// =============================================================================
// FORMAT DETECTION
// =============================================================================

// Format identifies a supported workbook layout.
type Format string

const (
	FormatPre            Format = quotation.ParserTypePre
	FormatProfittabilita Format = quotation.ParserTypeProfittabilita
)

// profittabilitaSheet is the marker sheet of the profitability layout.
const profittabilitaSheet = "NEW_OFFER1"

// Detect inspects a workbook's sheet list and reports its format.
func Detect(path string) (Format, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		if name == profittabilitaSheet {
			return FormatProfittabilita, nil
		}
	}
	return FormatPre, nil
}

// =============================================================================
// PARSE ENTRY POINT
// =============================================================================

// Parse detects the format of a quotation workbook and parses it.
//
// PARAMETERS:
//   - path: The path to the XLSX workbook.
//
// RETURNS:
//   - The parsed quotation.
//   - An error if the workbook cannot be opened or neither parser can
//     extract a quotation from it.
func Parse(path string) (*quotation.Quotation, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	q, err := ParseFormat(path, format)
	if err == nil {
		return q, nil
	}

	// Fall back to the other format before giving up.
	fallback := FormatPre
	if format == FormatPre {
		fallback = FormatProfittabilita
	}
	if q, fbErr := ParseFormat(path, fallback); fbErr == nil {
		return q, nil
	}

	return nil, fmt.Errorf("failed to parse %s as %s: %w", path, format, err)
}

// ParseFormat parses a workbook with the parser for a specific format.
func ParseFormat(path string, format Format) (*quotation.Quotation, error) {
	switch format {
	case FormatPre:
		return ParsePre(path)
	case FormatProfittabilita:
		return ParseProfittabilita(path)
	default:
		return nil, fmt.Errorf("unknown workbook format %q", format)
	}
}

// stamp fills the provenance fields of a freshly parsed quotation.
func stamp(q *quotation.Quotation, path string, format Format) {
	q.SourceFile = path
	q.ParserType = string(format)
	q.CreatedAt = time.Now().UTC()
}

// =============================================================================
// CELL HELPERS
// =============================================================================

// cell returns the trimmed value of a 1-based column within a row slice.
// Out-of-range columns resolve to the empty string.
func cell(row []string, col int) string {
	if col < 1 || col > len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}

// cellFloat returns the numeric value of a 1-based column, or 0 for
// missing or non-numeric cells.
func cellFloat(row []string, col int) float64 {
	return safeFloat(cell(row, col))
}

// safeFloat converts a cell value to a float, tolerating thousands
// separators and comma decimals. Unparseable values resolve to 0.
func safeFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}

	v, err := strconv.ParseFloat(value, 64)
	if err == nil {
		return v
	}

	// Retry with European number formatting.
	normalized := strings.ReplaceAll(value, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	if v, err := strconv.ParseFloat(normalized, 64); err == nil {
		return v
	}
	return 0
}

// safeInt converts a cell value to an int, falling back to a default for
// missing or non-numeric cells.
func safeInt(value string, def int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(value, 64); err == nil {
		return int(v)
	}
	return def
}

// afterColon extracts the value part of a "Label: value" cell. Cells
// without a colon are returned trimmed as-is.
func afterColon(value string) string {
	if idx := strings.Index(value, ":"); idx >= 0 {
		return strings.TrimSpace(value[idx+1:])
	}
	return strings.TrimSpace(value)
}
