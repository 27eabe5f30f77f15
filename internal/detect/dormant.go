package detect

import (
	"sort"

	"starguard/pkg/models"
)

// DormantDetector flags accounts that sat idle for a long time before
// starring: old accounts with almost no public repositories.
type DormantDetector struct {
	minAgeDays int
	maxRepos   int
}

// NewDormantDetector creates a dormant-account detector. An account
// qualifies when it is strictly older than minAgeDays and has strictly
// fewer than maxRepos public repositories.
func NewDormantDetector(minAgeDays, maxRepos int) *DormantDetector {
	return &DormantDetector{minAgeDays: minAgeDays, maxRepos: maxRepos}
}

// Name identifies the detector in reports.
func (d *DormantDetector) Name() string { return "dormant" }

// Detect flags dormant accounts. Records without a usable creation
// timestamp are skipped rather than failing the run.
func (d *DormantDetector) Detect(events []*models.StarEvent) models.DetectorResult {
	res := newResult(d.Name(), map[string]int{
		"min_age_days": d.minAgeDays,
		"max_repos":    d.maxRepos,
	})
	for _, ev := range events {
		if !ev.HasAccountAge() {
			continue
		}
		if ev.AgeDays() > d.minAgeDays && ev.PublicRepos < d.maxRepos {
			res.Flagged[ev.Username] = struct{}{}
		}
	}
	finishResult(&res)
	return res
}

// DormantDetails returns report rows for flagged dormant accounts,
// sorted oldest first.
func DormantDetails(events []*models.StarEvent, minAgeDays, maxRepos int) []models.DormantDetail {
	out := make([]models.DormantDetail, 0, 64)
	for _, ev := range events {
		if !ev.HasAccountAge() {
			continue
		}
		age := ev.AgeDays()
		if age > minAgeDays && ev.PublicRepos < maxRepos {
			out = append(out, models.DormantDetail{
				Username:    ev.Username,
				AgeDays:     age,
				PublicRepos: ev.PublicRepos,
				Followers:   ev.Followers,
				Following:   ev.Following,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AgeDays != out[j].AgeDays {
			return out[i].AgeDays > out[j].AgeDays
		}
		return out[i].Username < out[j].Username
	})
	return out
}
