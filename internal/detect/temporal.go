package detect

import (
	"sort"
	"time"

	"starguard/pkg/models"
)

// TemporalDetector flags bursts of stars arriving close together in time.
// Organic stars trickle in; purchased batches land in tight clusters.
type TemporalDetector struct {
	gap     time.Duration
	minSize int
}

// NewTemporalDetector creates a cluster detector with the given maximum
// gap in minutes and minimum qualifying cluster size.
func NewTemporalDetector(gapMinutes, minSize int) *TemporalDetector {
	return &TemporalDetector{
		gap:     time.Duration(gapMinutes) * time.Minute,
		minSize: minSize,
	}
}

// Name identifies the detector in reports.
func (d *TemporalDetector) Name() string { return "temporal_cluster" }

// Detect flags every member of each qualifying cluster.
func (d *TemporalDetector) Detect(events []*models.StarEvent) models.DetectorResult {
	res := newResult(d.Name(), map[string]int{
		"gap_minutes":      int(d.gap / time.Minute),
		"min_cluster_size": d.minSize,
	})
	for _, cluster := range qualifyingClusters(events, d.gap, d.minSize) {
		for _, ev := range cluster {
			res.Flagged[ev.Username] = struct{}{}
		}
	}
	finishResult(&res)
	return res
}

// ClusterDetails returns the qualifying clusters as report rows, with up
// to sampleSize usernames each.
func ClusterDetails(events []*models.StarEvent, gapMinutes, minSize, sampleSize int) []models.ClusterDetail {
	gap := time.Duration(gapMinutes) * time.Minute
	clusters := qualifyingClusters(events, gap, minSize)
	out := make([]models.ClusterDetail, 0, len(clusters))
	for _, cluster := range clusters {
		first := cluster[0].StarredAt
		last := cluster[len(cluster)-1].StarredAt
		sample := make([]string, 0, sampleSize)
		for _, ev := range cluster {
			if len(sample) >= sampleSize {
				break
			}
			sample = append(sample, ev.Username)
		}
		out = append(out, models.ClusterDetail{
			Size:        len(cluster),
			WindowStart: first,
			WindowEnd:   last,
			DurationMin: last.Sub(first).Minutes(),
			Sample:      sample,
		})
	}
	return out
}

// qualifyingClusters grows one cluster at a time over the time-sorted
// events. The gap is measured against the last event added to the
// current cluster, not the cluster start, so a slow drip of stars within
// the gap keeps a cluster alive. Equal timestamps always cluster.
func qualifyingClusters(events []*models.StarEvent, gap time.Duration, minSize int) [][]*models.StarEvent {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]*models.StarEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].StarredAt.Equal(sorted[j].StarredAt) {
			return sorted[i].StarredAt.Before(sorted[j].StarredAt)
		}
		return sorted[i].Username < sorted[j].Username
	})

	var out [][]*models.StarEvent
	current := []*models.StarEvent{sorted[0]}
	for _, ev := range sorted[1:] {
		last := current[len(current)-1]
		if ev.StarredAt.Sub(last.StarredAt) <= gap {
			current = append(current, ev)
			continue
		}
		if len(current) >= minSize {
			out = append(out, current)
		}
		current = []*models.StarEvent{ev}
	}
	if len(current) >= minSize {
		out = append(out, current)
	}
	return out
}
