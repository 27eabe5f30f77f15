package models

import "time"

// DetectorResult is one detector's output for a run: the flagged username
// set plus the parameters that produced it. Transient, recomputed per run.
type DetectorResult struct {
	Detector string              `json:"detector"`
	Flagged  map[string]struct{} `json:"-"`
	Count    int                 `json:"count"`
	Params   map[string]int      `json:"params,omitempty"`
}

// TimeBucket holds per-period real/fake counts for one calendar day or
// ISO week. Periods with no events never appear in a bucket sequence.
type TimeBucket struct {
	PeriodKey   string    `json:"period"`
	PeriodStart time.Time `json:"period_start"`
	Real        int       `json:"real"`
	Fake        int       `json:"fake"`
}

// CorrelationStat is a correlation coefficient with its p-value. Valid is
// false when the underlying series was too short for the statistic; the
// numeric fields are then meaningless and renderers print "undefined".
type CorrelationStat struct {
	Valid  bool    `json:"valid"`
	R      float64 `json:"r"`
	PValue float64 `json:"p_value"`
	N      int     `json:"n"`
}

// PairDelta is one consecutive-period comparison in a sub-range.
type PairDelta struct {
	Period    string `json:"period"`
	DeltaReal int    `json:"delta_real"`
	DeltaFake int    `json:"delta_fake"`
	Inverse   bool   `json:"inverse"`
	Notable   bool   `json:"notable,omitempty"`
}

// DirectionSummary counts inverse and notable same-direction movements
// over the consecutive pairs of a sub-range.
type DirectionSummary struct {
	InverseCount int         `json:"inverse_count"`
	NotableCount int         `json:"notable_same_direction"`
	TotalPairs   int         `json:"total_pairs"`
	InversePct   float64     `json:"inverse_pct"`
	Pairs        []PairDelta `json:"pairs,omitempty"`
}

// Spike is a period where real activity fell below its trailing trend
// while fake activity exceeded its own.
type Spike struct {
	Period  string  `json:"period"`
	Real    float64 `json:"real"`
	RealAvg float64 `json:"real_ma"`
	RealDev float64 `json:"real_deviation"`
	Fake    float64 `json:"fake"`
	FakeAvg float64 `json:"fake_ma"`
	FakeDev float64 `json:"fake_deviation"`
}

// CorrelationReport is the full structured output of a correlation run.
// It is the sole contract with rendering, printing, and persistence.
type CorrelationReport struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	TotalEvents  int              `json:"total_events"`
	Detectors    []DetectorResult `json:"detectors"`
	FakeTotal    int              `json:"fake_total"`
	FakePct      float64          `json:"fake_pct"`
	Granularity  string           `json:"granularity"`
	Buckets      []TimeBucket     `json:"buckets"`
	Overall      CorrelationStat  `json:"overall_correlation"`
	SubRangeName string           `json:"subrange,omitempty"`
	SubRange     CorrelationStat  `json:"subrange_correlation"`
	Direction    DirectionSummary `json:"direction"`
	Spikes       []Spike          `json:"compensatory_spikes"`
	Regime       string           `json:"regime"`
	Verdict      string           `json:"verdict"`
}

// ClusterDetail describes one qualifying temporal cluster.
type ClusterDetail struct {
	Size        int       `json:"size"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	DurationMin float64   `json:"duration_minutes"`
	Sample      []string  `json:"sample_usernames,omitempty"`
}

// DormantDetail describes one flagged dormant account.
type DormantDetail struct {
	Username    string `json:"username"`
	AgeDays     int    `json:"account_age_days"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// DetectionReport is the standalone detection output: per-detector counts
// with supporting details, no time-series analysis.
type DetectionReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	TotalEvents int              `json:"total_events"`
	RangeStart  time.Time        `json:"range_start"`
	RangeEnd    time.Time        `json:"range_end"`
	Detectors   []DetectorResult `json:"detectors"`
	Clusters    []ClusterDetail  `json:"clusters,omitempty"`
	Dormant     []DormantDetail  `json:"dormant_accounts,omitempty"`
	FakeTotal   int              `json:"fake_total"`
	FakePct     float64          `json:"fake_pct"`
	RealTotal   int              `json:"real_total"`
	RealPct     float64          `json:"real_pct"`
}

// WindowSummary aggregates one slice of the timeline (before, during, or
// after a spike window).
type WindowSummary struct {
	Label      string  `json:"label"`
	Days       int     `json:"days"`
	Real       int     `json:"real"`
	Fake       int     `json:"fake"`
	Total      int     `json:"total"`
	PerDay     float64 `json:"per_day"`
	FakePct    float64 `json:"fake_pct"`
	VelocityUp float64 `json:"velocity_multiplier,omitempty"`
}

// TimelineReport is the daily real/fake series with optional spike-window
// summaries for chart rendering.
type TimelineReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	TotalEvents int             `json:"total_events"`
	FakeTotal   int             `json:"fake_total"`
	Buckets     []TimeBucket    `json:"buckets"`
	Windows     []WindowSummary `json:"windows,omitempty"`
}
