// Package metrics records batch run counters and pushes them to a
// Prometheus Pushgateway when configured.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run holds the metrics of one starguard invocation.
type Run struct {
	registry *prometheus.Registry

	eventsTotal prometheus.Counter
	fakeTotal   prometheus.Counter
	flaggedBy   *prometheus.CounterVec
	spikesTotal prometheus.Counter
	runDuration prometheus.Gauge
	startedAt   time.Time
	gatewayURL  string
	job         string
}

// NewRun creates a metrics run. An empty gatewayURL disables pushing;
// the counters still work so callers never branch.
func NewRun(gatewayURL, job string) *Run {
	r := &Run{
		registry:   prometheus.NewRegistry(),
		gatewayURL: gatewayURL,
		job:        job,
		startedAt:  time.Now(),
	}

	r.eventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "starguard_events_total",
		Help: "Star events processed in this run.",
	})
	r.fakeTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "starguard_fake_events_total",
		Help: "Star events classified as fake in this run.",
	})
	r.flaggedBy = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "starguard_detector_flagged_total",
		Help: "Events flagged per detector in this run.",
	}, []string{"detector"})
	r.spikesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "starguard_compensatory_spikes_total",
		Help: "Compensatory spikes found in this run.",
	})
	r.runDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "starguard_run_duration_seconds",
		Help: "Wall time of this run.",
	})

	r.registry.MustRegister(r.eventsTotal, r.fakeTotal, r.flaggedBy, r.spikesTotal, r.runDuration)
	return r
}

// ObserveEvents records the processed event count.
func (r *Run) ObserveEvents(n int) {
	r.eventsTotal.Add(float64(n))
}

// ObserveFake records the union fake count.
func (r *Run) ObserveFake(n int) {
	r.fakeTotal.Add(float64(n))
}

// ObserveDetector records one detector's flag count.
func (r *Run) ObserveDetector(name string, n int) {
	r.flaggedBy.WithLabelValues(name).Add(float64(n))
}

// ObserveSpikes records the compensatory spike count.
func (r *Run) ObserveSpikes(n int) {
	r.spikesTotal.Add(float64(n))
}

// Push finalizes the run duration and pushes all metrics to the
// gateway. A no-op without a gateway URL.
func (r *Run) Push() error {
	r.runDuration.Set(time.Since(r.startedAt).Seconds())
	if r.gatewayURL == "" {
		return nil
	}
	return push.New(r.gatewayURL, r.job).Gatherer(r.registry).Push()
}
