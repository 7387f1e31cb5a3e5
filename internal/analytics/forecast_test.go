package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyRow(month string, borrow, rev, readers float64) HistoryPoint {
	return HistoryPoint{
		Month:          month,
		BorrowingCount: borrow,
		Revenue:        rev,
		NewReaders:     readers,
	}
}

func TestGenerateForecastEmptyHistory(t *testing.T) {
	points, err := GenerateForecast(nil, 6)
	require.ErrorIs(t, err, ErrNoHistory)
	assert.Empty(t, points)
}

func TestGenerateSmartForecastHistoryRequirements(t *testing.T) {
	_, err := GenerateSmartForecast(nil, 6, 0)
	require.ErrorIs(t, err, ErrNoHistory)

	short := []HistoryPoint{
		historyRow("2024-01", 10, 100, 3),
		historyRow("2024-02", 12, 120, 4),
	}
	_, err = GenerateSmartForecast(short, 6, 0)
	require.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestConfidenceLadder(t *testing.T) {
	history := []HistoryPoint{
		historyRow("2024-01", 100, 1000, 10),
		historyRow("2024-02", 110, 1100, 12),
		historyRow("2024-03", 120, 1200, 14),
	}

	points, err := GenerateForecast(history, 6)
	require.NoError(t, err)
	require.Len(t, points, 6)

	expected := []int{90, 85, 80, 75, 70, 65}
	for i, p := range points {
		assert.Equal(t, expected[i], p.Confidence, "step %d", i+1)
		assert.True(t, p.IsForecast)
	}
}

func TestAnchorSkipsTrailingZeros(t *testing.T) {
	history := []HistoryPoint{
		historyRow("2024-01", 20, 0, 0),
		historyRow("2024-02", 0, 0, 0),
	}

	points, err := GenerateForecast(history, 1)
	require.NoError(t, err)
	require.Len(t, points, 1)

	// The borrowing anchor is the 2024-01 row (value 20), so the first
	// projected month follows 2024-01, and the projection scales 20, not 0.
	assert.Equal(t, "2024-02", points[0].Month)
	season := ClassicSeasonalFactor(2)
	expected := 20 * (1 + season)
	assert.Equal(t, floorCount(expected, classicBorrowFloor), points[0].BorrowingCount)
}

func TestMonthRolloverAcrossYearEnd(t *testing.T) {
	history := []HistoryPoint{
		historyRow("2024-10", 90, 900, 9),
		historyRow("2024-11", 100, 1000, 10),
	}

	points, err := GenerateForecast(history, 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2024-12", points[0].Month)
	assert.Equal(t, "2025-01", points[1].Month)
	assert.Equal(t, "2025-02", points[2].Month)
	assert.Equal(t, "T12/2024", points[0].MonthDisplay)
	assert.Equal(t, "T1/2025", points[1].MonthDisplay)
}

func TestGenerateForecastAppliesFloors(t *testing.T) {
	// Tiny anchors project below the floors.
	history := []HistoryPoint{
		historyRow("2024-05", 1, 0.5, 1),
		historyRow("2024-06", 1, 0.5, 1),
	}

	points, err := GenerateForecast(history, 2)
	require.NoError(t, err)
	for _, p := range points {
		assert.GreaterOrEqual(t, p.BorrowingCount, int64(classicBorrowFloor))
		assert.GreaterOrEqual(t, p.NewReaders, int64(classicReaderFloor))
		assert.GreaterOrEqual(t, p.Revenue, 0.0)
	}
}

func TestGenerateForecastMalformedMonth(t *testing.T) {
	history := []HistoryPoint{historyRow("garbage", 10, 10, 10)}

	_, err := GenerateForecast(history, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed month key")
}

func TestHotCategoryBoost(t *testing.T) {
	assert.InDelta(t, 1.0, HotCategoryBoost(0), 1e-9)
	assert.InDelta(t, 1.10, HotCategoryBoost(2), 1e-9)
	assert.InDelta(t, 1.25, HotCategoryBoost(5), 1e-9)
}

func TestSmartForecastTwelveMonthScenario(t *testing.T) {
	// 12 months: borrowing rising linearly 400 -> 630, revenue flat-ish,
	// new readers 30 -> 78. Two categories classified hot.
	history := make([]HistoryPoint, 0, 12)
	for i := 0; i < 12; i++ {
		month := fmt.Sprintf("2024-%02d", i+1)
		history = append(history, historyRow(
			month,
			400+float64(i)*230/11,
			2200000+float64(i%3)*1000000,
			30+float64(i)*48/11,
		))
	}

	points, err := GenerateSmartForecast(history, 6, 2)
	require.NoError(t, err)
	require.Len(t, points, 6)

	first := points[0]
	assert.Equal(t, "2025-01", first.Month)
	assert.Equal(t, 90, first.Confidence)

	require.NotNil(t, first.Factors)
	assert.InDelta(t, 10.0, first.Factors.HotBoostPct, 1e-9)

	trend := EstimateTrendOLS(metricSeries(history, borrowing))
	season := AcademicSeasonalFactor(1)
	expected := 630 * (1 + trend) * (1 + season) * 1.10
	assert.Equal(t, floorCount(expected, smartBorrowFloor), first.BorrowingCount)
	assert.InDelta(t, trend*100, first.Factors.TrendPct, 1e-9)
	assert.InDelta(t, season*100, first.Factors.SeasonalityPct, 1e-9)
}
