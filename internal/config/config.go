// =============================================================================
// PRE Analyzer - Configuration Module
// =============================================================================
//
// This module loads and manages the application configuration. All settings
// live in a single YAML file; defaults are applied for anything left unset,
// so an empty or missing section still yields a working configuration.
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the application configuration loaded from config.yaml.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for quotation workbooks when no
	// explicit file paths are given.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where comparison reports are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir is the directory where processed workbooks are moved
	// after a successful comparison run.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file.
	// Default: "./logs/analyzer.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// ReportNameFormat defines the format for report file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {project}   - Project identifier of the second dataset
	//
	// Default: "report_{timestamp}_{uuid}"
	ReportNameFormat string `yaml:"report_name_format"`

	// =========================================================================
	// COMPARISON SETTINGS
	// =========================================================================

	// Comparison tunes the reconciliation engine.
	Comparison ComparisonConfig `yaml:"comparison"`
}

// ComparisonConfig holds the reconciliation parameters.
type ComparisonConfig struct {
	// Tolerance is the absolute tolerance for numeric field comparison.
	// Two values within this distance are considered equal.
	// Default: 0.01
	Tolerance float64 `yaml:"tolerance"`

	// NumericFields are the item fields compared numerically. Names
	// beyond the standard pricing fields resolve through the item's
	// cost-breakdown map.
	// Default: ["quantity", "unit_price", "total_price"]
	NumericFields []string `yaml:"numeric_fields"`

	// TextFields are the item fields compared as trimmed strings.
	// Default: ["description"]
	TextFields []string `yaml:"text_fields"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from a YAML file, applies defaults and
// ensures the configured directories exist.
//
// PARAMETERS:
//   - path: The path to the configuration file.
//
// RETURNS:
//   - A pointer to the Config struct.
//   - An error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration used when no config file is
// present. Directories are not created here; call EnsureDirs before
// writing any output.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "./archive"
	}
	if cfg.LogFile == "" {
		cfg.LogFile = "./logs/analyzer.log"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ReportNameFormat == "" {
		cfg.ReportNameFormat = "report_{timestamp}_{uuid}"
	}
	if cfg.Comparison.Tolerance == 0 {
		cfg.Comparison.Tolerance = 0.01
	}
	if len(cfg.Comparison.NumericFields) == 0 {
		cfg.Comparison.NumericFields = []string{"quantity", "unit_price", "total_price"}
	}
	if len(cfg.Comparison.TextFields) == 0 {
		cfg.Comparison.TextFields = []string{"description"}
	}
}

// EnsureDirs creates the configured directories if they do not exist.
func (cfg *Config) EnsureDirs() error {
	dirs := []string{
		cfg.InputDir,
		cfg.OutputDir,
		cfg.ArchiveDir,
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}
	return nil
}
