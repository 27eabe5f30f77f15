// Package eventsjson writes collected star events to a JSON lines file.
package eventsjson

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"starguard/internal/logger"
	"starguard/pkg/models"
)

// Writer outputs star events to a JSONL file.
type Writer struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewWriter creates a JSONL writer for star events.
func NewWriter(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	logger.Infof("Event JSON writer initialized: %s", path)
	return &Writer{
		file:    f,
		encoder: json.NewEncoder(f),
	}, nil
}

// WriteEvents appends a batch of events.
func (w *Writer) WriteEvents(events []*models.StarEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ev := range events {
		if err := w.encoder.Encode(ev); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

// Close closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}
