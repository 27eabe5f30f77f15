// Package detect implements the fake-star heuristic ensemble. Each
// detector is a pure function over the read-only snapshot; the ensemble
// unions their flagged sets, so detector order never affects the result
// and new detectors can be added without touching call sites.
package detect

import (
	"sort"

	"starguard/pkg/models"
)

// Detector flags star events and returns the flagged usernames.
type Detector interface {
	Name() string
	Detect(events []*models.StarEvent) models.DetectorResult
}

// Thresholds holds the ensemble tuning knobs.
type Thresholds struct {
	ClusterGapMinutes       int
	ClusterMinSize          int
	DormantMinAgeDays       int
	DormantMaxRepos         int
	LowActivityMaxFollowers int
	LowActivityMaxFollowing int
}

// DefaultThresholds returns the standard tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ClusterGapMinutes:       60,
		ClusterMinSize:          10,
		DormantMinAgeDays:       365,
		DormantMaxRepos:         3,
		LowActivityMaxFollowers: 5,
		LowActivityMaxFollowing: 10,
	}
}

// EnsembleResult is the combined output of one detection run.
type EnsembleResult struct {
	Results []models.DetectorResult
	Fake    map[string]struct{}
}

// Ensemble runs the basic detector first and feeds the remaining events
// to every advanced detector. Each advanced detector sees the same
// basic-excluded pool; siblings never narrow each other's input.
type Ensemble struct {
	basic    Detector
	advanced []Detector
}

// NewEnsemble builds the standard four-detector ensemble plus any extra
// detectors (for example the Sigma rules detector).
func NewEnsemble(th Thresholds, extra ...Detector) *Ensemble {
	advanced := []Detector{
		NewTemporalDetector(th.ClusterGapMinutes, th.ClusterMinSize),
		NewDormantDetector(th.DormantMinAgeDays, th.DormantMaxRepos),
		NewLowActivityDetector(th.LowActivityMaxFollowers, th.LowActivityMaxFollowing),
	}
	advanced = append(advanced, extra...)
	return &Ensemble{basic: NewBasicDetector(), advanced: advanced}
}

// Run executes every detector and unions their flagged sets.
func (e *Ensemble) Run(events []*models.StarEvent) EnsembleResult {
	basicRes := e.basic.Detect(events)

	pool := make([]*models.StarEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := basicRes.Flagged[ev.Username]; ok {
			continue
		}
		pool = append(pool, ev)
	}

	out := EnsembleResult{
		Results: make([]models.DetectorResult, 0, 1+len(e.advanced)),
		Fake:    make(map[string]struct{}, len(basicRes.Flagged)),
	}
	out.Results = append(out.Results, basicRes)
	for name := range basicRes.Flagged {
		out.Fake[name] = struct{}{}
	}

	for _, d := range e.advanced {
		res := d.Detect(pool)
		out.Results = append(out.Results, res)
		for name := range res.Flagged {
			out.Fake[name] = struct{}{}
		}
	}

	return out
}

func newResult(name string, params map[string]int) models.DetectorResult {
	return models.DetectorResult{
		Detector: name,
		Flagged:  make(map[string]struct{}),
		Params:   params,
	}
}

func finishResult(res *models.DetectorResult) {
	res.Count = len(res.Flagged)
}

// FlaggedUsernames returns a result's flagged set as a sorted slice.
func FlaggedUsernames(res models.DetectorResult) []string {
	out := make([]string, 0, len(res.Flagged))
	for name := range res.Flagged {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
