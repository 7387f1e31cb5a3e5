package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTrendRatio(t *testing.T) {
	tests := []struct {
		name     string
		series   []float64
		expected float64
	}{
		{
			name:     "empty series",
			series:   []float64{},
			expected: 0.0,
		},
		{
			name:     "single point",
			series:   []float64{42},
			expected: 0.0,
		},
		{
			name:     "all zeros",
			series:   []float64{0, 0, 0, 0},
			expected: 0.0,
		},
		{
			name:     "one non-zero point",
			series:   []float64{0, 10, 0},
			expected: 0.0,
		},
		{
			name:     "steady growth",
			series:   []float64{100, 110, 120, 130},
			expected: (130.0 - 100.0) / 100.0 / 4.0,
		},
		{
			name:   "zeros skipped when picking endpoints",
			series: []float64{0, 50, 60, 0},
			// first/last non-zero are 50 and 60, length stays 4
			expected: (60.0 - 50.0) / 50.0 / 4.0,
		},
		{
			name:     "explosive growth clamped to max",
			series:   []float64{10, 500},
			expected: TrendRateMax,
		},
		{
			name:     "collapse clamped to min",
			series:   []float64{500, 10},
			expected: TrendRateMin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, EstimateTrendRatio(tt.series), 1e-9)
		})
	}
}

func TestEstimateTrendOLS(t *testing.T) {
	t.Run("short series", func(t *testing.T) {
		assert.Equal(t, 0.0, EstimateTrendOLS(nil))
		assert.Equal(t, 0.0, EstimateTrendOLS([]float64{7}))
	})

	t.Run("flat series has no trend", func(t *testing.T) {
		assert.InDelta(t, 0.0, EstimateTrendOLS([]float64{100, 100, 100, 100}), 1e-9)
	})

	t.Run("linear growth normalized by mean", func(t *testing.T) {
		// slope 10 per month, mean 115 -> rate 10/116
		rate := EstimateTrendOLS([]float64{100, 110, 120, 130})
		assert.InDelta(t, 10.0/116.0, rate, 1e-9)
	})

	t.Run("steep decline clamped", func(t *testing.T) {
		assert.Equal(t, TrendRateMin, EstimateTrendOLS([]float64{1000, 500, 100, 10}))
	})
}

// Both estimators must stay inside the clamp bounds for any input.
func TestTrendRateBounds(t *testing.T) {
	inputs := [][]float64{
		{1, 2, 3, 4, 5},
		{5, 4, 3, 2, 1},
		{1, 1000000},
		{1000000, 1},
		{0, 0, 1, 0, 0, 900},
		{3, 0, 3, 0, 3},
		{0.001, 12000, 0.5, 99999},
	}

	for _, series := range inputs {
		for _, rate := range []float64{EstimateTrendRatio(series), EstimateTrendOLS(series)} {
			assert.GreaterOrEqual(t, rate, TrendRateMin, "series %v", series)
			assert.LessOrEqual(t, rate, TrendRateMax, "series %v", series)
		}
	}
}

func TestSeasonalFactors(t *testing.T) {
	t.Run("classic table covers all months within small magnitudes", func(t *testing.T) {
		for m := 1; m <= 12; m++ {
			f := ClassicSeasonalFactor(m)
			assert.GreaterOrEqual(t, f, -0.06)
			assert.LessOrEqual(t, f, 0.06)
		}
	})

	t.Run("academic calendar peaks at term start and dips in summer", func(t *testing.T) {
		assert.Equal(t, 0.18, AcademicSeasonalFactor(9))
		assert.Less(t, AcademicSeasonalFactor(7), 0.0)
		assert.Less(t, AcademicSeasonalFactor(2), 0.0)
		for m := 1; m <= 12; m++ {
			f := AcademicSeasonalFactor(m)
			assert.GreaterOrEqual(t, f, -0.10)
			assert.LessOrEqual(t, f, 0.18)
		}
	})
}
