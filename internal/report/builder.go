// Package report assembles detection, correlation, and timeline reports
// from the detector and analysis outputs.
package report

import (
	"time"

	"starguard/internal/analysis"
	"starguard/internal/detect"
	"starguard/internal/timeseries"
	"starguard/pkg/models"
)

const clusterSampleSize = 5

// CorrelationOptions tunes the correlation report.
type CorrelationOptions struct {
	Granularity    string
	SubRangePrefix string
	NotableDelta   float64
	Spikes         analysis.SpikeThresholds
}

// BuildCorrelation runs bucketing and the full correlation engine over a
// detection run and assembles the report.
func BuildCorrelation(events []*models.StarEvent, run detect.EnsembleResult, opts CorrelationOptions) (*models.CorrelationReport, error) {
	buckets, err := timeseries.Bucket(events, run.Fake, opts.Granularity)
	if err != nil {
		return nil, err
	}

	full := analysis.SeriesFromBuckets(buckets)
	sub := full.FilterPrefix(opts.SubRangePrefix)
	subStat := analysis.Pearson(sub)
	direction := analysis.CountInverse(sub, opts.NotableDelta)

	rep := &models.CorrelationReport{
		GeneratedAt:  time.Now().UTC(),
		TotalEvents:  len(events),
		Detectors:    run.Results,
		FakeTotal:    len(run.Fake),
		FakePct:      pct(len(run.Fake), len(events)),
		Granularity:  opts.Granularity,
		Buckets:      buckets,
		Overall:      analysis.Pearson(full),
		SubRangeName: opts.SubRangePrefix,
		SubRange:     subStat,
		Direction:    direction,
		Spikes:       analysis.DetectCompensatorySpikes(sub, opts.Spikes),
		Verdict:      analysis.Verdict(subStat, direction),
	}
	rep.Regime = analysis.RegimeLabel(rep.Overall)
	return rep, nil
}

// DetectionOptions tunes the standalone detection report.
type DetectionOptions struct {
	Thresholds detect.Thresholds
}

// BuildDetection assembles the standalone detection report with cluster
// and dormant-account supporting detail.
func BuildDetection(events []*models.StarEvent, run detect.EnsembleResult, opts DetectionOptions) *models.DetectionReport {
	rep := &models.DetectionReport{
		GeneratedAt: time.Now().UTC(),
		TotalEvents: len(events),
		Detectors:   run.Results,
		FakeTotal:   len(run.Fake),
		FakePct:     pct(len(run.Fake), len(events)),
	}
	rep.RealTotal = rep.TotalEvents - rep.FakeTotal
	rep.RealPct = pct(rep.RealTotal, rep.TotalEvents)

	for _, ev := range events {
		ts := ev.StarredAt
		if rep.RangeStart.IsZero() || ts.Before(rep.RangeStart) {
			rep.RangeStart = ts
		}
		if ts.After(rep.RangeEnd) {
			rep.RangeEnd = ts
		}
	}

	// Detail rows come from the same basic-excluded pool the advanced
	// detectors saw, so they always agree with the flagged sets.
	pool := excludeBasic(events, run)
	th := opts.Thresholds
	rep.Clusters = detect.ClusterDetails(pool, th.ClusterGapMinutes, th.ClusterMinSize, clusterSampleSize)
	rep.Dormant = detect.DormantDetails(pool, th.DormantMinAgeDays, th.DormantMaxRepos)
	return rep
}

func excludeBasic(events []*models.StarEvent, run detect.EnsembleResult) []*models.StarEvent {
	var basic map[string]struct{}
	for _, res := range run.Results {
		if res.Detector == "basic" {
			basic = res.Flagged
			break
		}
	}
	if len(basic) == 0 {
		return events
	}
	pool := make([]*models.StarEvent, 0, len(events))
	for _, ev := range events {
		if _, ok := basic[ev.Username]; ok {
			continue
		}
		pool = append(pool, ev)
	}
	return pool
}

// TimelineWindow is an inclusive date range to summarize separately.
type TimelineWindow struct {
	Start time.Time
	End   time.Time
}

// BuildTimeline buckets events by day and, when a spike window is set,
// summarizes the periods before, during, and after it. VelocityUp on the
// spike window is its per-day rate relative to the pre-window rate.
func BuildTimeline(events []*models.StarEvent, run detect.EnsembleResult, window *TimelineWindow) (*models.TimelineReport, error) {
	buckets, err := timeseries.Bucket(events, run.Fake, timeseries.GranularityDay)
	if err != nil {
		return nil, err
	}

	rep := &models.TimelineReport{
		GeneratedAt: time.Now().UTC(),
		TotalEvents: len(events),
		FakeTotal:   len(run.Fake),
		Buckets:     buckets,
	}
	if window == nil || len(buckets) == 0 {
		return rep, nil
	}

	var before, during, after []models.TimeBucket
	for _, b := range buckets {
		switch {
		case b.PeriodStart.Before(window.Start):
			before = append(before, b)
		case b.PeriodStart.After(window.End):
			after = append(after, b)
		default:
			during = append(during, b)
		}
	}

	pre := summarizeWindow("before", before)
	spike := summarizeWindow("spike", during)
	if pre.PerDay > 0 {
		spike.VelocityUp = spike.PerDay / pre.PerDay
	}
	rep.Windows = []models.WindowSummary{pre, spike, summarizeWindow("after", after)}
	return rep, nil
}

func summarizeWindow(label string, buckets []models.TimeBucket) models.WindowSummary {
	out := models.WindowSummary{Label: label, Days: len(buckets)}
	for _, b := range buckets {
		out.Real += b.Real
		out.Fake += b.Fake
	}
	out.Total = out.Real + out.Fake
	if out.Days > 0 {
		out.PerDay = float64(out.Total) / float64(out.Days)
	}
	out.FakePct = pct(out.Fake, out.Total)
	return out
}

func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
