package detect

import (
	"fmt"
	"testing"
	"time"

	"starguard/pkg/models"
)

func eventsAt(base time.Time, step time.Duration, count int, prefix string) []*models.StarEvent {
	out := make([]*models.StarEvent, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, &models.StarEvent{
			Username:  fmt.Sprintf("%s%02d", prefix, i),
			StarredAt: base.Add(time.Duration(i) * step),
			Status:    models.StatusActive,
		})
	}
	return out
}

func TestTemporalFlagsDenseCluster(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	events := eventsAt(base, 5*time.Minute, 11, "burst")
	// A straggler well past the gap must not join the cluster.
	events = append(events, &models.StarEvent{
		Username:  "late",
		StarredAt: base.Add(11*5*time.Minute + 200*time.Minute),
		Status:    models.StatusActive,
	})

	det := NewTemporalDetector(60, 10)
	res := det.Detect(events)
	if res.Count != 11 {
		t.Fatalf("expected 11 flagged, got %d", res.Count)
	}
	if _, ok := res.Flagged["late"]; ok {
		t.Fatalf("did not expect straggler to be flagged")
	}
	for i := 0; i < 11; i++ {
		name := fmt.Sprintf("burst%02d", i)
		if _, ok := res.Flagged[name]; !ok {
			t.Fatalf("expected %s to be flagged", name)
		}
	}
}

func TestTemporalIgnoresSmallCluster(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	events := eventsAt(base, 7*time.Minute, 9, "small")

	det := NewTemporalDetector(60, 10)
	res := det.Detect(events)
	if res.Count != 0 {
		t.Fatalf("expected no flagged events, got %d", res.Count)
	}
}

func TestTemporalFinalClusterEvaluated(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []*models.StarEvent{
		{Username: "lone", StarredAt: base.Add(-48 * time.Hour), Status: models.StatusActive},
	}
	events = append(events, eventsAt(base, time.Minute, 10, "tail")...)

	det := NewTemporalDetector(60, 10)
	res := det.Detect(events)
	if res.Count != 10 {
		t.Fatalf("expected trailing cluster of 10 to be flagged, got %d", res.Count)
	}
	if _, ok := res.Flagged["lone"]; ok {
		t.Fatalf("did not expect isolated event to be flagged")
	}
}

func TestTemporalEqualTimestampsCluster(t *testing.T) {
	base := time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	events := eventsAt(base, 0, 12, "same")

	det := NewTemporalDetector(60, 10)
	res := det.Detect(events)
	if res.Count != 12 {
		t.Fatalf("expected all 12 identical timestamps flagged, got %d", res.Count)
	}
}

func TestTemporalGapMeasuredFromLastMember(t *testing.T) {
	// Each gap is 50 minutes, span exceeds an hour overall, still one cluster.
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	events := eventsAt(base, 50*time.Minute, 10, "chain")

	det := NewTemporalDetector(60, 10)
	res := det.Detect(events)
	if res.Count != 10 {
		t.Fatalf("expected chained cluster of 10, got %d", res.Count)
	}
}

func TestClusterDetails(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	events := eventsAt(base, 2*time.Minute, 10, "det")

	details := ClusterDetails(events, 60, 10, 3)
	if len(details) != 1 {
		t.Fatalf("expected 1 cluster detail, got %d", len(details))
	}
	d := details[0]
	if d.Size != 10 {
		t.Fatalf("expected size 10, got %d", d.Size)
	}
	if !d.WindowStart.Equal(base) {
		t.Fatalf("unexpected window start: %v", d.WindowStart)
	}
	if !d.WindowEnd.Equal(base.Add(18 * time.Minute)) {
		t.Fatalf("unexpected window end: %v", d.WindowEnd)
	}
	if len(d.Sample) != 3 {
		t.Fatalf("expected 3 sample usernames, got %d", len(d.Sample))
	}
}
