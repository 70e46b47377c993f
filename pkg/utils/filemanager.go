// =============================================================================
// PRE Analyzer - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the analyzer, including:
//   - Workbook discovery in the input directory
//   - File archival (moving processed workbooks)
//   - Report file naming
//   - Archive retention
//
// ARCHIVAL STRATEGY:
//   - Input workbooks are moved to the archive directory after a successful
//     comparison (opt-in via the compare command)
//   - Failed files remain in their original location
//   - Name collisions in the archive are resolved with a timestamp suffix
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// WORKBOOK DISCOVERY
// =============================================================================

// DiscoverWorkbooks scans a directory for Excel workbooks.
//
// Excel lock files ("~$...") are skipped. The result is sorted by file name.
//
// PARAMETERS:
//   - dir: The directory to scan.
//
// RETURNS:
//   - A slice of workbook paths.
//   - An error if the directory cannot be read.
func DiscoverWorkbooks(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.xlsx"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	var files []string
	for _, path := range matches {
		name := filepath.Base(path)
		if strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, path)
	}

	sort.Strings(files)
	return files, nil
}

// LatestWorkbookPair returns the two most recently modified workbooks in a
// directory, oldest of the pair first. It is used by the compare command
// when no explicit files are given.
//
// RETURNS:
//   - The older and the newer workbook of the pair.
//   - An error if the directory holds fewer than two workbooks.
func LatestWorkbookPair(dir string) (string, string, error) {
	files, err := DiscoverWorkbooks(dir)
	if err != nil {
		return "", "", err
	}
	if len(files) < 2 {
		return "", "", fmt.Errorf("need at least two workbooks in %s, found %d", dir, len(files))
	}

	sort.Slice(files, func(i, j int) bool {
		return modTime(files[i]).Before(modTime(files[j]))
	})

	n := len(files)
	return files[n-2], files[n-1], nil
}

// modTime returns the modification time of a file, zero on error.
func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveFile moves a file into the archive directory.
//
// If a file with the same name already exists in the archive, a timestamp
// suffix is inserted before the extension. A cross-device rename falls back
// to copy and delete.
//
// PARAMETERS:
//   - path: The file to archive.
//   - archiveDir: The archive directory.
//
// RETURNS:
//   - The path of the archived file.
//   - An error if archival fails.
func ArchiveFile(path, archiveDir string) (string, error) {
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, filepath.Base(path))
	if FileExists(archivePath) {
		ext := filepath.Ext(archivePath)
		stem := strings.TrimSuffix(archivePath, ext)
		archivePath = fmt.Sprintf("%s_%s%s", stem, time.Now().Format("20060102_150405"), ext)
	}

	if err := os.Rename(path, archivePath); err != nil {
		if err := copyFile(path, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// =============================================================================
// REPORT FILE NAMING
// =============================================================================

// ReportBaseName expands a report name format into a concrete base name
// (without extension).
//
// PARAMETERS:
//   - format: The format string for the base name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYYMMDD)
//     {time}      - Current time (HHMMSS)
//   - params: Additional placeholder values; each value is sanitized.
//
// EXAMPLE:
//   format: "report_{project}_{timestamp}"
//   params: {"project": "P-1001"}
//   output: "report_P-1001_20260115_143022"
func ReportBaseName(format string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}

	for key, value := range params {
		replacements["{"+key+"}"] = Sanitize(value)
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// Sanitize strips path-hostile characters from a file name fragment.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		default:
			return r
		}
	}, s)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archive files older than the specified duration.
//
// PARAMETERS:
//   - archiveDir: The archive directory to clean.
//   - maxAge: The maximum age of files to keep.
//
// RETURNS:
//   - The number of files removed.
//   - An error if cleaning fails.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
