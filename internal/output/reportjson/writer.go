// Package reportjson writes analysis reports to pretty-printed JSON files.
package reportjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"starguard/internal/logger"
)

// Writer outputs one report per run to a JSON file.
type Writer struct {
	path string
}

// NewWriter creates a JSON report writer, creating parent directories as
// needed.
func NewWriter(path string) (*Writer, error) {
	if path == "" {
		return nil, fmt.Errorf("report output path is empty")
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	logger.Infof("JSON report writer initialized: %s", path)
	return &Writer{path: path}, nil
}

// WriteReport marshals the report and replaces the output file.
func (w *Writer) WriteReport(report interface{}) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Close is a no-op; the writer holds no open handles between runs.
func (w *Writer) Close() error {
	return nil
}
