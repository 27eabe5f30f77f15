package analysis

import "starguard/pkg/models"

// SpikeThresholds tunes compensatory spike detection. RealDrop is the
// deviation below the trailing real average (negative); FakeSpike is the
// deviation above the trailing fake average (positive).
type SpikeThresholds struct {
	Window    int
	RealDrop  float64
	FakeSpike float64
}

// DefaultSpikeThresholds returns the standard tuning.
func DefaultSpikeThresholds() SpikeThresholds {
	return SpikeThresholds{Window: 4, RealDrop: -5, FakeSpike: 10}
}

// DetectCompensatorySpikes scans for periods where real activity dipped
// below its trailing moving average while fake activity jumped above its
// own. The window is the W periods preceding the candidate, so the first
// W periods are never candidates.
func DetectCompensatorySpikes(s Series, th SpikeThresholds) []models.Spike {
	var out []models.Spike
	if th.Window <= 0 || s.Len() <= th.Window {
		return out
	}

	for i := th.Window; i < s.Len(); i++ {
		realAvg := trailingMean(s.Real, i, th.Window)
		fakeAvg := trailingMean(s.Fake, i, th.Window)
		realDev := s.Real[i] - realAvg
		fakeDev := s.Fake[i] - fakeAvg
		if realDev < th.RealDrop && fakeDev > th.FakeSpike {
			out = append(out, models.Spike{
				Period:  s.Periods[i],
				Real:    s.Real[i],
				RealAvg: realAvg,
				RealDev: realDev,
				Fake:    s.Fake[i],
				FakeAvg: fakeAvg,
				FakeDev: fakeDev,
			})
		}
	}
	return out
}

func trailingMean(values []float64, i, window int) float64 {
	sum := 0.0
	for j := i - window; j < i; j++ {
		sum += values[j]
	}
	return sum / float64(window)
}
