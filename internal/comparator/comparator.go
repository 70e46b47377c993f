// =============================================================================
// PRE Analyzer - Comparison Orchestrator
// =============================================================================
//
// This module contains the comparison pipeline for one pair of quotation
// workbooks, from parsing to report generation.
//
// COMPARISON PIPELINE:
//   1. Load both datasets (workbook parse or JSON snapshot)
//   2. Validate each parsed quotation and log data-quality findings
//   3. Normalize currencies using each project's exchange rate
//   4. Run the reconciliation engine
//   5. Write the reports (JSON, CSV set, text summary)
//
// CONCURRENCY:
//   A Comparator instance handles a single pair; the CLI layer may run
//   several pairs in parallel, each with its own instance.
//
// =============================================================================

package comparator

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ogghst/pre-analyzer/internal/config"
	"github.com/ogghst/pre-analyzer/internal/quotation"
	"github.com/ogghst/pre-analyzer/internal/reconcile"
	"github.com/ogghst/pre-analyzer/internal/report"
	"github.com/ogghst/pre-analyzer/internal/validation"
	"github.com/ogghst/pre-analyzer/internal/xlsxparser"
	"github.com/ogghst/pre-analyzer/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of comparing one workbook pair.
type Result struct {
	// FirstFile and SecondFile are the compared workbook paths.
	FirstFile  string
	SecondFile string

	// OutputFiles are the report files written. Empty if the run failed
	// or ran in dry-run mode.
	OutputFiles []string

	// Reconciliation is the computed result, available even in dry-run
	// mode so callers can render it themselves.
	Reconciliation *reconcile.Result

	// Success indicates whether the comparison completed.
	Success bool

	// Error contains the failure, nil on success.
	Error error

	// Stats contains processing statistics.
	Stats Stats
}

// Stats contains statistics about a comparison run.
type Stats struct {
	// ItemsFirst and ItemsSecond are the item counts of the two parsed
	// quotations.
	ItemsFirst  int
	ItemsSecond int

	// CodesCompared is the number of distinct item codes classified.
	CodesCompared int

	// ValidationWarnings is the number of data-quality findings across
	// both quotations. Findings never fail a run.
	ValidationWarnings int

	// ProcessingTime is the time taken for the full pipeline.
	ProcessingTime time.Duration
}

// =============================================================================
// COMPARATOR STRUCTURE
// =============================================================================

// Comparator runs the comparison pipeline for one workbook pair.
type Comparator struct {
	firstPath  string
	secondPath string
	cfg        *config.Config

	// DryRun skips report writing; the reconciliation still runs.
	DryRun bool

	// Formats restricts which report kinds are written ("json", "csv",
	// "text"). An empty slice writes all of them.
	Formats []string

	logger Logger
}

// Logger is the logging interface used by the pipeline.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// New creates a comparator for one workbook pair.
//
// PARAMETERS:
//   - firstPath: The first workbook (typically the PRE file).
//   - secondPath: The second workbook (typically the profitability file,
//     whose structure carries the authoritative WBE assignments).
//   - cfg: The application configuration.
func New(firstPath, secondPath string, cfg *config.Config) *Comparator {
	return &Comparator{
		firstPath:  firstPath,
		secondPath: secondPath,
		cfg:        cfg,
		logger:     NewLogger(cfg.LogLevel),
	}
}

// SetLogger replaces the pipeline logger.
func (c *Comparator) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

// =============================================================================
// MAIN PIPELINE
// =============================================================================

// Run executes the comparison pipeline for the pair.
func (c *Comparator) Run() Result {
	startTime := time.Now()
	result := Result{
		FirstFile:  c.firstPath,
		SecondFile: c.secondPath,
	}

	// =========================================================================
	// STEP 1: LOAD BOTH DATASETS
	// =========================================================================
	// Each input is either an Excel workbook or a JSON snapshot previously
	// written by the parse command.

	c.logger.Info("Comparing %s against %s", c.firstPath, c.secondPath)

	first, err := loadDataset(c.firstPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to load first dataset: %w", err)
		return result
	}
	second, err := loadDataset(c.secondPath)
	if err != nil {
		result.Error = fmt.Errorf("failed to load second dataset: %w", err)
		return result
	}

	result.Stats.ItemsFirst = first.ItemCount()
	result.Stats.ItemsSecond = second.ItemCount()
	c.logger.Debug("Parsed %d items from first file (%s), %d from second (%s)",
		result.Stats.ItemsFirst, first.ParserType,
		result.Stats.ItemsSecond, second.ParserType)

	// =========================================================================
	// STEP 2: VALIDATE QUOTATIONS
	// =========================================================================
	// Findings are diagnostic only and never fail the run.

	validator := validation.New(c.cfg.Comparison.Tolerance)
	for _, v := range []struct {
		path string
		q    *quotation.Quotation
	}{{c.firstPath, first}, {c.secondPath, second}} {
		vr := validator.Validate(v.q)
		for _, finding := range vr.Findings {
			c.logger.Warn("%s: %s", v.path, finding.String())
		}
		result.Stats.ValidationWarnings += len(vr.Findings)
	}

	// =========================================================================
	// STEP 3: NORMALIZE CURRENCIES
	// =========================================================================

	first.NormalizeCurrency()
	second.NormalizeCurrency()

	// =========================================================================
	// STEP 4: RUN THE RECONCILIATION ENGINE
	// =========================================================================

	rec, err := reconcile.Compute(first, second,
		reconcile.WithFields(c.fields()),
		reconcile.WithTolerance(c.cfg.Comparison.Tolerance),
	)
	if err != nil {
		result.Error = fmt.Errorf("reconciliation failed: %w", err)
		return result
	}

	result.Reconciliation = rec
	result.Stats.CodesCompared = len(rec.ItemComparisons)
	c.logger.Info("Classified %d codes: %d matching, %d mismatched, %d only in first, %d only in second",
		result.Stats.CodesCompared,
		rec.Summary.Matching,
		rec.Summary.ValueMismatch,
		rec.Summary.MissingInB,
		rec.Summary.MissingInA)

	// =========================================================================
	// STEP 5: WRITE REPORTS
	// =========================================================================

	if c.DryRun {
		c.logger.Info("Dry run, skipping report generation")
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	base := c.reportBaseName(second)

	if c.wantFormat("json") {
		jsonPath, err := report.WriteJSON(c.cfg.OutputDir, base, rec)
		if err != nil {
			result.Error = fmt.Errorf("failed to write JSON report: %w", err)
			return result
		}
		result.OutputFiles = append(result.OutputFiles, jsonPath)
	}

	if c.wantFormat("csv") {
		csvPaths, err := report.WriteCSV(c.cfg.OutputDir, base, rec)
		if err != nil {
			result.Error = fmt.Errorf("failed to write CSV reports: %w", err)
			return result
		}
		result.OutputFiles = append(result.OutputFiles, csvPaths...)
	}

	if c.wantFormat("text") {
		textPath, err := report.WriteSummaryFile(c.cfg.OutputDir, base, rec)
		if err != nil {
			result.Error = fmt.Errorf("failed to write text summary: %w", err)
			return result
		}
		result.OutputFiles = append(result.OutputFiles, textPath)
	}

	for _, path := range result.OutputFiles {
		c.logger.Info("Wrote report: %s", path)
	}

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadDataset reads one input into the unified model. A ".json" path is
// treated as a quotation snapshot; anything else goes through workbook
// parsing with layout detection.
func loadDataset(path string) (*quotation.Quotation, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return quotation.Load(path)
	}
	return xlsxparser.Parse(path)
}

// wantFormat reports whether the given report kind should be written.
func (c *Comparator) wantFormat(format string) bool {
	if len(c.Formats) == 0 {
		return true
	}
	for _, f := range c.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// fields translates the configured field names into classifier specs.
func (c *Comparator) fields() []reconcile.FieldSpec {
	var fields []reconcile.FieldSpec
	for _, name := range c.cfg.Comparison.TextFields {
		fields = append(fields, reconcile.FieldSpec{Name: name, Kind: reconcile.FieldText})
	}
	for _, name := range c.cfg.Comparison.NumericFields {
		fields = append(fields, reconcile.FieldSpec{Name: name, Kind: reconcile.FieldNumeric})
	}
	return fields
}

// reportBaseName expands the configured report name format.
//
// Placeholders:
//   {uuid}      - A random UUID
//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//   {project}   - Project identifier of the second dataset
func (c *Comparator) reportBaseName(second *quotation.Quotation) string {
	project := strings.TrimSpace(second.Project.ID)
	if project == "" {
		project = "unknown"
	}
	return utils.ReportBaseName(c.cfg.ReportNameFormat, map[string]string{
		"project": project,
	})
}

// =============================================================================
// DEFAULT LOGGER
// =============================================================================

// levels orders log severities for filtering.
var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// defaultLogger prints leveled messages to stdout, filtered by the
// configured minimum level.
type defaultLogger struct {
	min int
}

// NewLogger returns the default stdout logger for the given minimum
// level. Unknown levels fall back to "info".
func NewLogger(level string) Logger {
	min, ok := levels[strings.ToLower(level)]
	if !ok {
		min = levels["info"]
	}
	return &defaultLogger{min: min}
}

func (l *defaultLogger) log(level, msg string, args ...interface{}) {
	if levels[level] < l.min {
		return
	}
	fmt.Printf("[%s] "+msg+"\n", append([]interface{}{strings.ToUpper(level)}, args...)...)
}

func (l *defaultLogger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args...) }
func (l *defaultLogger) Info(msg string, args ...interface{})  { l.log("info", msg, args...) }
func (l *defaultLogger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args...) }
func (l *defaultLogger) Error(msg string, args ...interface{}) { l.log("error", msg, args...) }
