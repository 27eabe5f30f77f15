package detect

import (
	"testing"
	"time"

	"starguard/pkg/models"
)

func TestBasicFlagsSuspiciousAndDeleted(t *testing.T) {
	ts := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	events := []*models.StarEvent{
		{Username: "ok", StarredAt: ts, Status: models.StatusActive},
		{Username: "marked", StarredAt: ts, Status: models.StatusActive, IsSuspicious: true},
		{Username: "gone", StarredAt: ts, Status: models.StatusDeleted},
		{Username: "unknown", StarredAt: ts, Status: models.StatusUnknown},
	}

	res := NewBasicDetector().Detect(events)
	if res.Count != 2 {
		t.Fatalf("expected 2 flagged, got %d", res.Count)
	}
	if _, ok := res.Flagged["marked"]; !ok {
		t.Fatalf("expected suspicious event to be flagged")
	}
	if _, ok := res.Flagged["gone"]; !ok {
		t.Fatalf("expected deleted account to be flagged")
	}
	if _, ok := res.Flagged["unknown"]; ok {
		t.Fatalf("unknown status alone must not be flagged")
	}
}

func TestDormantThresholdsAreStrict(t *testing.T) {
	starred := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	events := []*models.StarEvent{
		{Username: "old-empty", StarredAt: starred, AccountCreated: starred.AddDate(0, 0, -400), PublicRepos: 2},
		{Username: "old-busy", StarredAt: starred, AccountCreated: starred.AddDate(0, 0, -400), PublicRepos: 3},
		{Username: "exactly-year", StarredAt: starred, AccountCreated: starred.AddDate(0, 0, -365), PublicRepos: 0},
		{Username: "no-age", StarredAt: starred, PublicRepos: 0},
	}

	res := NewDormantDetector(365, 3).Detect(events)
	if res.Count != 1 {
		t.Fatalf("expected 1 flagged, got %d", res.Count)
	}
	if _, ok := res.Flagged["old-empty"]; !ok {
		t.Fatalf("expected old-empty to be flagged")
	}
}

func TestDormantSkipsMissingAccountAge(t *testing.T) {
	starred := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	events := []*models.StarEvent{
		{Username: "no-age", StarredAt: starred, PublicRepos: 0},
		{Username: "future", StarredAt: starred, AccountCreated: starred.AddDate(0, 0, 1), PublicRepos: 0},
	}

	res := NewDormantDetector(365, 3).Detect(events)
	if res.Count != 0 {
		t.Fatalf("events without a usable account age must not be flagged, got %d", res.Count)
	}
}

func TestDormantDetailsSortedOldestFirst(t *testing.T) {
	starred := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	events := []*models.StarEvent{
		{Username: "younger", StarredAt: starred, AccountCreated: starred.AddDate(0, 0, -500), PublicRepos: 1},
		{Username: "older", StarredAt: starred, AccountCreated: starred.AddDate(0, 0, -900), PublicRepos: 1},
	}

	details := DormantDetails(events, 365, 3)
	if len(details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(details))
	}
	if details[0].Username != "older" {
		t.Fatalf("expected oldest account first, got %s", details[0].Username)
	}
}

func TestLowActivityThresholds(t *testing.T) {
	ts := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	events := []*models.StarEvent{
		{Username: "empty", StarredAt: ts, PublicRepos: 0, Followers: 4, Following: 9},
		{Username: "has-repo", StarredAt: ts, PublicRepos: 1, Followers: 0, Following: 0},
		{Username: "followers-at-limit", StarredAt: ts, PublicRepos: 0, Followers: 5, Following: 0},
		{Username: "following-at-limit", StarredAt: ts, PublicRepos: 0, Followers: 0, Following: 10},
	}

	res := NewLowActivityDetector(5, 10).Detect(events)
	if res.Count != 1 {
		t.Fatalf("expected 1 flagged, got %d", res.Count)
	}
	if _, ok := res.Flagged["empty"]; !ok {
		t.Fatalf("expected empty profile to be flagged")
	}
}
