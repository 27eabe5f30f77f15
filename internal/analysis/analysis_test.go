package analysis

import (
	"math"
	"testing"
	"time"

	"starguard/pkg/models"
)

func series(periods []string, real, fake []float64) Series {
	return Series{Periods: periods, Real: real, Fake: fake}
}

func TestPearsonPerfectPositive(t *testing.T) {
	s := series(
		[]string{"p1", "p2", "p3", "p4"},
		[]float64{1, 2, 3, 4},
		[]float64{2, 4, 6, 8},
	)
	got := Pearson(s)
	if !got.Valid {
		t.Fatalf("expected valid stat")
	}
	if math.Abs(got.R-1) > 1e-9 {
		t.Fatalf("expected r=1, got %f", got.R)
	}
	if got.PValue > 1e-6 {
		t.Fatalf("expected vanishing p at perfect correlation, got %f", got.PValue)
	}
}

func TestPearsonPerfectNegative(t *testing.T) {
	s := series(
		[]string{"p1", "p2", "p3"},
		[]float64{10, 5, 0},
		[]float64{0, 5, 10},
	)
	got := Pearson(s)
	if !got.Valid {
		t.Fatalf("expected valid stat")
	}
	if math.Abs(got.R+1) > 1e-9 {
		t.Fatalf("expected r=-1, got %f", got.R)
	}
}

func TestPearsonInsufficientData(t *testing.T) {
	s := series([]string{"p1", "p2"}, []float64{1, 2}, []float64{3, 4})
	got := Pearson(s)
	if got.Valid {
		t.Fatalf("two points must not yield a valid correlation")
	}
	if got.N != 2 {
		t.Fatalf("expected n=2, got %d", got.N)
	}
}

func TestPearsonConstantSeriesInvalid(t *testing.T) {
	s := series(
		[]string{"p1", "p2", "p3"},
		[]float64{5, 5, 5},
		[]float64{1, 2, 3},
	)
	if got := Pearson(s); got.Valid {
		t.Fatalf("constant series must not yield a valid correlation")
	}
}

func TestFilterPrefixSelectsYear(t *testing.T) {
	s := series(
		[]string{"2023-W52", "2024-W01", "2024-W02", "2025-W01"},
		[]float64{1, 2, 3, 4},
		[]float64{5, 6, 7, 8},
	)
	got := s.FilterPrefix("2024")
	if got.Len() != 2 {
		t.Fatalf("expected 2 periods, got %d", got.Len())
	}
	if got.Periods[0] != "2024-W01" || got.Periods[1] != "2024-W02" {
		t.Fatalf("unexpected periods: %v", got.Periods)
	}
	if got.Real[0] != 2 || got.Fake[1] != 7 {
		t.Fatalf("values not aligned after filter: %v %v", got.Real, got.Fake)
	}
}

func TestCountInverseAllOpposite(t *testing.T) {
	s := series(
		[]string{"p1", "p2", "p3"},
		[]float64{10, 7, 9},
		[]float64{2, 6, 3},
	)
	got := CountInverse(s, 5)
	if got.TotalPairs != 2 {
		t.Fatalf("expected 2 pairs, got %d", got.TotalPairs)
	}
	if got.InverseCount != 2 {
		t.Fatalf("expected 2 inverse pairs, got %d", got.InverseCount)
	}
	if got.InversePct != 100 {
		t.Fatalf("expected 100%%, got %f", got.InversePct)
	}
}

func TestCountInverseZeroDeltaNeverInverse(t *testing.T) {
	s := series(
		[]string{"p1", "p2"},
		[]float64{5, 5},
		[]float64{2, 8},
	)
	got := CountInverse(s, 5)
	if got.InverseCount != 0 {
		t.Fatalf("flat real series must not count as inverse, got %d", got.InverseCount)
	}
}

func TestCountInverseNotableMoves(t *testing.T) {
	s := series(
		[]string{"p1", "p2", "p3", "p4"},
		[]float64{0, 10, 20, 22},
		[]float64{0, 20, 22, 23},
	)
	got := CountInverse(s, 5)
	if got.NotableCount != 2 {
		t.Fatalf("expected 2 notable pairs, got %d", got.NotableCount)
	}
	if !got.Pairs[0].Notable || !got.Pairs[1].Notable {
		t.Fatalf("unexpected pair classification: %+v", got.Pairs)
	}
	if got.Pairs[2].Notable {
		t.Fatalf("small move on both sides must not be notable")
	}
}

func TestCountInverseNotableWithOneSmallDelta(t *testing.T) {
	// One side moving hard is enough, even when the other barely moves.
	s := series(
		[]string{"p1", "p2"},
		[]float64{0, 10},
		[]float64{0, 2},
	)
	got := CountInverse(s, 5)
	if got.InverseCount != 0 {
		t.Fatalf("same-direction pair must not be inverse, got %d", got.InverseCount)
	}
	if got.NotableCount != 1 {
		t.Fatalf("expected 1 notable pair, got %d", got.NotableCount)
	}
}

func TestCountInverseEmptySeries(t *testing.T) {
	got := CountInverse(Series{}, 5)
	if got.TotalPairs != 0 || got.InversePct != 0 {
		t.Fatalf("expected zeroed summary, got %+v", got)
	}
}

func TestDetectCompensatorySpikes(t *testing.T) {
	periods := []string{"p1", "p2", "p3", "p4", "p5", "p6"}
	real := []float64{10, 10, 10, 10, 3, 10}
	fake := []float64{2, 2, 2, 2, 15, 2}
	got := DetectCompensatorySpikes(series(periods, real, fake), DefaultSpikeThresholds())
	if len(got) != 1 {
		t.Fatalf("expected 1 spike, got %d", len(got))
	}
	sp := got[0]
	if sp.Period != "p5" {
		t.Fatalf("unexpected spike period: %s", sp.Period)
	}
	if sp.RealDev != -7 || sp.FakeDev != 13 {
		t.Fatalf("unexpected deviations: real=%f fake=%f", sp.RealDev, sp.FakeDev)
	}
}

func TestDetectCompensatorySpikesRequiresBothConditions(t *testing.T) {
	periods := []string{"p1", "p2", "p3", "p4", "p5"}
	// Real drops alone, fake stays flat.
	real := []float64{10, 10, 10, 10, 3}
	fake := []float64{2, 2, 2, 2, 2}
	if got := DetectCompensatorySpikes(series(periods, real, fake), DefaultSpikeThresholds()); len(got) != 0 {
		t.Fatalf("real drop without fake spike must not flag, got %d", len(got))
	}
	// Fake spikes alone, real stays flat.
	real = []float64{10, 10, 10, 10, 10}
	fake = []float64{2, 2, 2, 2, 15}
	if got := DetectCompensatorySpikes(series(periods, real, fake), DefaultSpikeThresholds()); len(got) != 0 {
		t.Fatalf("fake spike without real drop must not flag, got %d", len(got))
	}
}

func TestDetectCompensatorySpikesShortSeries(t *testing.T) {
	periods := []string{"p1", "p2", "p3"}
	got := DetectCompensatorySpikes(series(periods, []float64{1, 2, 3}, []float64{3, 2, 1}), DefaultSpikeThresholds())
	if len(got) != 0 {
		t.Fatalf("series shorter than the window must yield no spikes")
	}
}

func TestRegimeLabel(t *testing.T) {
	cases := []struct {
		stat models.CorrelationStat
		want string
	}{
		{models.CorrelationStat{Valid: true, R: -0.7}, RegimeInverse},
		{models.CorrelationStat{Valid: true, R: 0.5}, RegimeCoMoving},
		{models.CorrelationStat{Valid: true, R: 0.1}, RegimeWeak},
		{models.CorrelationStat{Valid: true, R: -0.3}, RegimeWeak},
		{models.CorrelationStat{Valid: false, R: -0.9}, RegimeWeak},
	}
	for _, c := range cases {
		if got := RegimeLabel(c.stat); got != c.want {
			t.Fatalf("r=%f valid=%v: expected %s, got %s", c.stat.R, c.stat.Valid, got, c.want)
		}
	}
}

func TestVerdictBands(t *testing.T) {
	neg := models.CorrelationStat{Valid: true, R: -0.5}
	cases := []struct {
		stat models.CorrelationStat
		pct  float64
		want string
	}{
		{neg, 50, VerdictStrong},
		{neg, 30, VerdictModerate},
		{neg, 20, VerdictNone},
		{models.CorrelationStat{Valid: true, R: -0.1}, 90, VerdictNone},
		{models.CorrelationStat{Valid: false}, 90, VerdictNone},
	}
	for _, c := range cases {
		got := Verdict(c.stat, models.DirectionSummary{InversePct: c.pct})
		if got != c.want {
			t.Fatalf("r=%f pct=%f: expected %q, got %q", c.stat.R, c.pct, got, c.want)
		}
	}
}

func TestSeriesFromBuckets(t *testing.T) {
	buckets := []models.TimeBucket{
		{PeriodKey: "2024-W01", PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Real: 3, Fake: 1},
		{PeriodKey: "2024-W02", PeriodStart: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Real: 5, Fake: 0},
	}
	s := SeriesFromBuckets(buckets)
	if s.Len() != 2 {
		t.Fatalf("expected 2 periods, got %d", s.Len())
	}
	if s.Real[0] != 3 || s.Fake[0] != 1 || s.Periods[1] != "2024-W02" {
		t.Fatalf("unexpected series: %+v", s)
	}
}
