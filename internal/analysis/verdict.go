package analysis

import "starguard/pkg/models"

// Verdict labels.
const (
	RegimeInverse  = "inverse"
	RegimeCoMoving = "co-moving"
	RegimeWeak     = "weak"

	VerdictStrong   = "strong compensatory pattern"
	VerdictModerate = "moderate compensatory pattern"
	VerdictNone     = "no compensatory pattern"
)

// RegimeLabel classifies the overall correlation regime.
func RegimeLabel(overall models.CorrelationStat) string {
	if !overall.Valid {
		return RegimeWeak
	}
	switch {
	case overall.R < -0.3:
		return RegimeInverse
	case overall.R > 0.3:
		return RegimeCoMoving
	default:
		return RegimeWeak
	}
}

// Verdict combines the sub-range correlation with the inverse-movement
// share. A compensatory pattern needs both a negative sub-range
// correlation and a meaningful share of inverse pairs.
func Verdict(sub models.CorrelationStat, dir models.DirectionSummary) string {
	if !sub.Valid || sub.R >= -0.2 {
		return VerdictNone
	}
	switch {
	case dir.InversePct > 40:
		return VerdictStrong
	case dir.InversePct > 25:
		return VerdictModerate
	default:
		return VerdictNone
	}
}
