package analysis

import (
	"math"

	"starguard/pkg/models"
)

// CountInverse compares consecutive periods and classifies each pair.
// A pair is inverse when real and fake counts moved in strictly opposite
// directions; a zero delta on either side is never inverse. A non-inverse
// pair is notable when either delta exceeds notableDelta in magnitude.
func CountInverse(s Series, notableDelta float64) models.DirectionSummary {
	out := models.DirectionSummary{}
	if s.Len() < 2 {
		return out
	}

	out.TotalPairs = s.Len() - 1
	out.Pairs = make([]models.PairDelta, 0, out.TotalPairs)
	for i := 1; i < s.Len(); i++ {
		dReal := s.Real[i] - s.Real[i-1]
		dFake := s.Fake[i] - s.Fake[i-1]
		pair := models.PairDelta{
			Period:    s.Periods[i],
			DeltaReal: int(dReal),
			DeltaFake: int(dFake),
		}
		switch {
		case dReal > 0 && dFake < 0, dReal < 0 && dFake > 0:
			pair.Inverse = true
			out.InverseCount++
		case math.Abs(dReal) > notableDelta, math.Abs(dFake) > notableDelta:
			pair.Notable = true
			out.NotableCount++
		}
		out.Pairs = append(out.Pairs, pair)
	}

	out.InversePct = float64(out.InverseCount) / float64(out.TotalPairs) * 100
	return out
}
