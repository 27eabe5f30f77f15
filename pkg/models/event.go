package models

import "time"

// AccountStatus describes the state of a starring account at collection time.
type AccountStatus string

const (
	StatusActive  AccountStatus = "active"
	StatusDeleted AccountStatus = "deleted"
	StatusUnknown AccountStatus = "unknown"
)

// StarEvent is one enriched star record: who starred, when, and what the
// account looked like at collection time. Username is the unique key within
// an analysis run.
type StarEvent struct {
	Username       string        `json:"username"`
	StarredAt      time.Time     `json:"starred_at"`
	AccountCreated time.Time     `json:"account_created,omitempty"`
	Status         AccountStatus `json:"status,omitempty"`
	IsSuspicious   bool          `json:"is_suspicious,omitempty"`
	PublicRepos    int           `json:"public_repos,omitempty"`
	Followers      int           `json:"followers,omitempty"`
	Following      int           `json:"following,omitempty"`
}

// HasAccountAge reports whether the record carries a usable creation
// timestamp. A creation time after the star time violates the snapshot
// invariant, so age-dependent detectors skip the record instead of
// trusting a negative age.
func (e *StarEvent) HasAccountAge() bool {
	if e == nil || e.AccountCreated.IsZero() {
		return false
	}
	return !e.AccountCreated.After(e.StarredAt)
}

// AgeDays returns the whole days between account creation and the star.
// Callers must check HasAccountAge first.
func (e *StarEvent) AgeDays() int {
	return int(e.StarredAt.Sub(e.AccountCreated).Hours() / 24)
}

// FieldMap exposes the event as a flat field map for rule evaluation.
func (e *StarEvent) FieldMap() map[string]interface{} {
	m := map[string]interface{}{
		"Username":     e.Username,
		"Status":       string(e.Status),
		"IsSuspicious": e.IsSuspicious,
		"PublicRepos":  e.PublicRepos,
		"Followers":    e.Followers,
		"Following":    e.Following,
		"StarredAt":    e.StarredAt.UTC().Format(time.RFC3339),
	}
	if e.HasAccountAge() {
		m["AccountAgeDays"] = e.AgeDays()
	}
	return m
}
