package detect

import "starguard/pkg/models"

// BasicDetector flags events already marked suspicious at collection time
// and events from deleted accounts.
type BasicDetector struct{}

// NewBasicDetector creates the basic flag detector.
func NewBasicDetector() *BasicDetector { return &BasicDetector{} }

// Name identifies the detector in reports.
func (d *BasicDetector) Name() string { return "basic" }

// Detect flags is_suspicious or deleted events.
func (d *BasicDetector) Detect(events []*models.StarEvent) models.DetectorResult {
	res := newResult(d.Name(), nil)
	for _, ev := range events {
		if ev.IsSuspicious || ev.Status == models.StatusDeleted {
			res.Flagged[ev.Username] = struct{}{}
		}
	}
	finishResult(&res)
	return res
}
