package detect

import "starguard/pkg/models"

// LowActivityDetector flags accounts with no repositories and next to no
// social graph, the typical shape of a bulk-registered account.
type LowActivityDetector struct {
	maxFollowers int
	maxFollowing int
}

// NewLowActivityDetector creates a low-activity detector. An account
// qualifies with zero public repositories, strictly fewer than
// maxFollowers followers, and strictly fewer than maxFollowing followed
// accounts.
func NewLowActivityDetector(maxFollowers, maxFollowing int) *LowActivityDetector {
	return &LowActivityDetector{maxFollowers: maxFollowers, maxFollowing: maxFollowing}
}

// Name identifies the detector in reports.
func (d *LowActivityDetector) Name() string { return "low_activity" }

// Detect flags minimal-activity accounts.
func (d *LowActivityDetector) Detect(events []*models.StarEvent) models.DetectorResult {
	res := newResult(d.Name(), map[string]int{
		"max_followers": d.maxFollowers,
		"max_following": d.maxFollowing,
	})
	for _, ev := range events {
		if ev.PublicRepos == 0 && ev.Followers < d.maxFollowers && ev.Following < d.maxFollowing {
			res.Flagged[ev.Username] = struct{}{}
		}
	}
	finishResult(&res)
	return res
}
