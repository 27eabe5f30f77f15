// Package snapshot loads the immutable star-event collection for one
// analysis run.
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"starguard/pkg/models"
)

// DataError reports a record whose required timestamp is missing or
// unparsable. Every downstream stage orders and ages events by these
// fields, so the run aborts instead of producing a skewed report.
type DataError struct {
	Line  int
	Field string
	Err   error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error at line %d: field %q: %v", e.Line, e.Field, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }

// rawEvent keeps timestamps as strings so a missing field can be told
// apart from an unparsable one.
type rawEvent struct {
	Username       string `json:"username"`
	StarredAt      string `json:"starred_at"`
	AccountCreated string `json:"account_created"`
	Status         string `json:"status"`
	IsSuspicious   bool   `json:"is_suspicious"`
	PublicRepos    int    `json:"public_repos"`
	Followers      int    `json:"followers"`
	Following      int    `json:"following"`
}

// LoadFile reads enriched star events from a JSONL file.
func LoadFile(path string) ([]*models.StarEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads enriched star events, one JSON object per line. Blank lines
// are skipped. Any record with a missing or unparsable timestamp aborts
// the load with a DataError.
func Load(r io.Reader) ([]*models.StarEvent, error) {
	events := make([]*models.StarEvent, 0, 4096)

	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 4*1024*1024)

	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}
		event, err := parseLine([]byte(text), line)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}
	return events, nil
}

// ParseRecord parses one JSON event record, applying the same timestamp
// rules as Load.
func ParseRecord(data []byte) (*models.StarEvent, error) {
	return parseLine(data, 0)
}

func parseLine(data []byte, line int) (*models.StarEvent, error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DataError{Line: line, Field: "record", Err: err}
	}

	if strings.TrimSpace(raw.StarredAt) == "" {
		return nil, &DataError{Line: line, Field: "starred_at", Err: fmt.Errorf("missing")}
	}
	starredAt, err := parseTimestamp(raw.StarredAt)
	if err != nil {
		return nil, &DataError{Line: line, Field: "starred_at", Err: err}
	}

	event := &models.StarEvent{
		Username:     raw.Username,
		StarredAt:    starredAt,
		IsSuspicious: raw.IsSuspicious,
		PublicRepos:  raw.PublicRepos,
		Followers:    raw.Followers,
		Following:    raw.Following,
	}

	// account_created is optional; if present it must parse.
	if strings.TrimSpace(raw.AccountCreated) != "" {
		created, err := parseTimestamp(raw.AccountCreated)
		if err != nil {
			return nil, &DataError{Line: line, Field: "account_created", Err: err}
		}
		event.AccountCreated = created
	}

	switch strings.ToLower(strings.TrimSpace(raw.Status)) {
	case "active":
		event.Status = models.StatusActive
	case "deleted":
		event.Status = models.StatusDeleted
	default:
		event.Status = models.StatusUnknown
	}

	return event, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", value)
}
