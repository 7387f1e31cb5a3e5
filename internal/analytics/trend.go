package analytics

// Trend rates are clamped to keep short, noisy series from producing
// runaway extrapolations.
const (
	TrendRateMin = -0.10
	TrendRateMax = 0.15
)

func clampTrendRate(rate float64) float64 {
	if rate > TrendRateMax {
		return TrendRateMax
	}
	if rate < TrendRateMin {
		return TrendRateMin
	}
	return rate
}

// EstimateTrendRatio computes the average per-month growth rate from the
// first and last non-zero values of the series. Used by the classic
// forecast path. Series shorter than two points, or with fewer than two
// non-zero points, have no measurable trend.
func EstimateTrendRatio(series []float64) float64 {
	if len(series) < 2 {
		return 0.0
	}

	nonZero := make([]float64, 0, len(series))
	for _, v := range series {
		if v > 0 {
			nonZero = append(nonZero, v)
		}
	}
	if len(nonZero) < 2 {
		return 0.0
	}

	first := nonZero[0]
	last := nonZero[len(nonZero)-1]
	rate := (last - first) / first / float64(len(series))

	return clampTrendRate(rate)
}

// EstimateTrendOLS computes a least-squares slope of value against month
// index over the full series, zeros included, normalized by (mean+1) to a
// relative per-month rate. Used by the smart forecast path.
func EstimateTrendOLS(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0.0
	}

	var sumX, sumY float64
	for i, v := range series {
		sumX += float64(i)
		sumY += v
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var num, den float64
	for i, v := range series {
		x := float64(i)
		num += (x - meanX) * (v - meanY)
		den += (x - meanX) * (x - meanX)
	}
	if den == 0 {
		return 0.0
	}

	slope := num / den
	rate := slope / (meanY + 1)

	return clampTrendRate(rate)
}
