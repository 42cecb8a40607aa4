package hwi

type Trend string

const (
	TrendImproving     Trend = "improving"
	TrendStable        Trend = "stable"
	TrendDeteriorating Trend = "deteriorating"
)

// significantChange is the score movement that counts as a trend.
const significantChange = 5

// CalculateTrend compares two composite scores. A falling score is an improvement.
func CalculateTrend(current, previous float64) Trend {
	change := current - previous

	switch {
	case change <= -significantChange:
		return TrendImproving
	case change >= significantChange:
		return TrendDeteriorating
	default:
		return TrendStable
	}
}
