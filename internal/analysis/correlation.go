// Package analysis implements the correlation engine: Pearson statistics
// over bucketed real/fake series, direction analysis, moving-average
// spike detection, and the narrative verdict.
package analysis

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"starguard/pkg/models"
)

// Series is a pair of aligned real/fake counts with their period keys.
type Series struct {
	Periods []string
	Real    []float64
	Fake    []float64
}

// SeriesFromBuckets flattens bucket rows into aligned slices.
func SeriesFromBuckets(buckets []models.TimeBucket) Series {
	s := Series{
		Periods: make([]string, 0, len(buckets)),
		Real:    make([]float64, 0, len(buckets)),
		Fake:    make([]float64, 0, len(buckets)),
	}
	for _, b := range buckets {
		s.Periods = append(s.Periods, b.PeriodKey)
		s.Real = append(s.Real, float64(b.Real))
		s.Fake = append(s.Fake, float64(b.Fake))
	}
	return s
}

// FilterPrefix keeps only the periods whose key starts with prefix, for
// example "2024" to select one year of weekly buckets.
func (s Series) FilterPrefix(prefix string) Series {
	if prefix == "" {
		return s
	}
	out := Series{}
	for i, key := range s.Periods {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out.Periods = append(out.Periods, key)
		out.Real = append(out.Real, s.Real[i])
		out.Fake = append(out.Fake, s.Fake[i])
	}
	return out
}

// Len returns the number of periods in the series.
func (s Series) Len() int { return len(s.Periods) }

// Pearson computes the correlation between the real and fake series with
// a two-tailed p-value from the t distribution with n-2 degrees of
// freedom. Series shorter than three periods, and series where either
// side is constant, yield an invalid stat instead of an error.
func Pearson(s Series) models.CorrelationStat {
	n := s.Len()
	out := models.CorrelationStat{N: n}
	if n <= 2 {
		return out
	}

	r := stat.Correlation(s.Real, s.Fake, nil)
	if math.IsNaN(r) {
		return out
	}

	out.Valid = true
	out.R = r
	out.PValue = twoTailedP(r, n)
	return out
}

func twoTailedP(r float64, n int) float64 {
	if r >= 1 || r <= -1 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	return 2 * dist.Survival(math.Abs(t))
}
