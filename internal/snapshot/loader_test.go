package snapshot

import (
	"errors"
	"strings"
	"testing"
	"time"

	"starguard/pkg/models"
)

func TestLoadParsesRecords(t *testing.T) {
	input := strings.Join([]string{
		`{"username":"alice","starred_at":"2024-03-01T12:00:00Z","account_created":"2020-06-15T00:00:00Z","status":"active","public_repos":4,"followers":12,"following":7}`,
		``,
		`{"username":"bob","starred_at":"2024-03-02 08:30:00","status":"deleted","is_suspicious":true}`,
	}, "\n")

	events, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	alice := events[0]
	if alice.Username != "alice" {
		t.Fatalf("unexpected username: %s", alice.Username)
	}
	if !alice.StarredAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected starred_at: %v", alice.StarredAt)
	}
	if alice.Status != models.StatusActive || alice.PublicRepos != 4 {
		t.Fatalf("unexpected alice record: %+v", alice)
	}

	bob := events[1]
	if bob.Status != models.StatusDeleted || !bob.IsSuspicious {
		t.Fatalf("unexpected bob record: %+v", bob)
	}
	if !bob.AccountCreated.IsZero() {
		t.Fatalf("missing account_created must stay zero, got %v", bob.AccountCreated)
	}
}

func TestLoadMissingStarredAtFails(t *testing.T) {
	input := `{"username":"alice","status":"active"}`
	_, err := Load(strings.NewReader(input))
	if err == nil {
		t.Fatalf("expected error for missing starred_at")
	}
	var derr *DataError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DataError, got %T", err)
	}
	if derr.Field != "starred_at" || derr.Line != 1 {
		t.Fatalf("unexpected data error: %+v", derr)
	}
}

func TestLoadUnparsableAccountCreatedFails(t *testing.T) {
	input := `{"username":"alice","starred_at":"2024-03-01T12:00:00Z","account_created":"not-a-date"}`
	_, err := Load(strings.NewReader(input))
	var derr *DataError
	if !errors.As(err, &derr) {
		t.Fatalf("expected DataError, got %v", err)
	}
	if derr.Field != "account_created" {
		t.Fatalf("unexpected field: %s", derr.Field)
	}
}

func TestLoadNormalizesToUTC(t *testing.T) {
	input := `{"username":"alice","starred_at":"2024-03-01T12:00:00+02:00"}`
	events, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !events[0].StarredAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, events[0].StarredAt)
	}
	if events[0].StarredAt.Location() != time.UTC {
		t.Fatalf("timestamp not normalized to UTC")
	}
}

func TestLoadUnknownStatusDefaults(t *testing.T) {
	input := `{"username":"alice","starred_at":"2024-03-01","status":"suspended"}`
	events, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].Status != models.StatusUnknown {
		t.Fatalf("expected unknown status, got %s", events[0].Status)
	}
}

func TestParseRecord(t *testing.T) {
	ev, err := ParseRecord([]byte(`{"username":"solo","starred_at":"2024-01-05T00:00:00Z"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Username != "solo" {
		t.Fatalf("unexpected record: %+v", ev)
	}
}
