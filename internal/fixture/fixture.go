// Package fixture generates the small on-disk fixtures used to
// exercise the search pipeline end to end.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FileName is the fixture file written by Setup.
const FileName = "test_file.txt"

// Pattern is the marker string embedded in the fixture file; searching
// for it proves the pipeline sees the file.
const Pattern = "TEST_PATTERN_123"

var fixtureLines = []string{
	"This is a test file for searching",
	"It contains some patterns to find",
	"Pattern: " + Pattern,
}

// processFiles is the canned input list walked by Process.
var processFiles = []string{"data1.txt", "data2.txt", "config.json"}

// StatusProcessed marks a completed ProcessResult.
const StatusProcessed = "processed"

// ProcessResult is one dummy processing record. Records are transient;
// nothing is persisted.
type ProcessResult struct {
	Filename  string `json:"filename"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

// Setup writes the fixture file into dir and returns its path.
func Setup(dir string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	path := filepath.Join(dir, FileName)
	content := strings.Join(fixtureLines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write fixture file: %w", err)
	}

	logger.Debug("fixture file written",
		zap.String("file_path", path),
		zap.Int("lines", len(fixtureLines)))
	return path, nil
}

// Process emits one record per canned input file, stamping each with
// the current time.
func Process(logger *zap.Logger) []ProcessResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]ProcessResult, 0, len(processFiles))
	for _, name := range processFiles {
		logger.Debug("processing fixture input", zap.String("filename", name))
		results = append(results, ProcessResult{
			Filename:  name,
			Timestamp: time.Now().Format(time.RFC3339),
			Status:    StatusProcessed,
		})
	}
	return results
}
