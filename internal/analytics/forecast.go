package analytics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HistoryPoint is one calendar month of combined library activity. The
// json field names are part of the API contract with existing consumers.
type HistoryPoint struct {
	Month          string  `json:"month"`         // "YYYY-MM"
	MonthDisplay   string  `json:"month_display"` // "T<month>/<year>"
	BorrowingCount float64 `json:"borrowing_count"`
	Revenue        float64 `json:"revenue"`
	NewReaders     float64 `json:"new_users"`
	Confidence     int     `json:"confidence"`
	IsForecast     bool    `json:"is_forecast"`
}

// ForecastFactors is the per-point explainability breakdown attached by
// the smart forecast.
type ForecastFactors struct {
	TrendPct       float64 `json:"trend_pct"`
	SeasonalityPct float64 `json:"seasonality_pct"`
	HotBoostPct    float64 `json:"hot_boost_pct"`
}

// ForecastPoint is one projected month.
type ForecastPoint struct {
	Month          string           `json:"month"`
	MonthDisplay   string           `json:"month_display"`
	BorrowingCount int64            `json:"borrowing_count"`
	Revenue        float64          `json:"revenue"`
	NewReaders     int64            `json:"new_users"`
	Confidence     int              `json:"confidence"`
	IsForecast     bool             `json:"is_forecast"`
	Factors        *ForecastFactors `json:"factors,omitempty"`
}

var (
	// ErrNoHistory is returned when there is no historical data at all.
	ErrNoHistory = errors.New("no historical data to forecast from")
	// ErrInsufficientHistory is returned when the smart forecast has too
	// few points for a least-squares fit.
	ErrInsufficientHistory = errors.New("not enough history for a smart forecast")
)

// Metric value floors. Projections never drop below the baseline a small
// library would see in any open month.
const (
	classicBorrowFloor = 5
	classicReaderFloor = 2
	smartBorrowFloor   = 10
	smartReaderFloor   = 5
	smartMinHistory    = 3
)

// ConfidenceAt returns the heuristic confidence score for forecast step i
// (1-based). It decays with horizon and is independent of data quality.
func ConfidenceAt(step int) int {
	c := 95 - 5*step
	if c < 60 {
		return 60
	}
	return c
}

// HotCategoryBoost converts a hot-category count into the multiplicative
// demand boost applied to borrowing projections.
func HotCategoryBoost(hotCategories int) float64 {
	return 1.0 + 0.05*float64(hotCategories)
}

// GenerateForecast projects the next `periods` months using the classic
// model: ratio trend per metric, cyclical seasonal array, per-metric
// anchoring on the last strictly positive value.
func GenerateForecast(history []HistoryPoint, periods int) ([]ForecastPoint, error) {
	if len(history) == 0 {
		return nil, ErrNoHistory
	}

	borrowTrend := EstimateTrendRatio(metricSeries(history, borrowing))
	revenueTrend := EstimateTrendRatio(metricSeries(history, revenue))
	readerTrend := EstimateTrendRatio(metricSeries(history, newReaders))

	anchorBorrow := lastPositiveRow(history, borrowing)
	anchorRevenue := lastPositiveRow(history, revenue)
	anchorReaders := lastPositiveRow(history, newReaders)

	// The forecast calendar starts from the borrowing anchor month.
	year, month, err := splitMonthKey(anchorBorrow.Month)
	if err != nil {
		return nil, err
	}

	points := make([]ForecastPoint, 0, periods)
	for i := 1; i <= periods; i++ {
		y, m := addMonths(year, month, i)
		season := ClassicSeasonalFactor(m)

		borrowPred := borrowing(anchorBorrow) * (1 + borrowTrend*float64(i)) * (1 + season)
		revenuePred := revenue(anchorRevenue) * (1 + revenueTrend*float64(i)) * (1 + season)
		readerPred := newReaders(anchorReaders) * (1 + readerTrend*float64(i)) * (1 + season)

		points = append(points, ForecastPoint{
			Month:          fmt.Sprintf("%04d-%02d", y, m),
			MonthDisplay:   fmt.Sprintf("T%d/%d", m, y),
			BorrowingCount: floorCount(borrowPred, classicBorrowFloor),
			Revenue:        math.Max(0, revenuePred),
			NewReaders:     floorCount(readerPred, classicReaderFloor),
			Confidence:     ConfidenceAt(i),
			IsForecast:     true,
		})
	}

	return points, nil
}

// GenerateSmartForecast projects the next `periods` months using the smart
// model: least-squares trend, academic seasonality, and a hot-category
// demand boost on the borrowing metric. Requires at least three months of
// history.
func GenerateSmartForecast(history []HistoryPoint, periods, hotCategories int) ([]ForecastPoint, error) {
	if len(history) == 0 {
		return nil, ErrNoHistory
	}
	if len(history) < smartMinHistory {
		return nil, ErrInsufficientHistory
	}

	borrowTrend := EstimateTrendOLS(metricSeries(history, borrowing))
	revenueTrend := EstimateTrendOLS(metricSeries(history, revenue))
	readerTrend := EstimateTrendOLS(metricSeries(history, newReaders))
	boost := HotCategoryBoost(hotCategories)

	anchorBorrow := lastPositiveRow(history, borrowing)
	anchorRevenue := lastPositiveRow(history, revenue)
	anchorReaders := lastPositiveRow(history, newReaders)

	year, month, err := splitMonthKey(anchorBorrow.Month)
	if err != nil {
		return nil, err
	}

	points := make([]ForecastPoint, 0, periods)
	for i := 1; i <= periods; i++ {
		y, m := addMonths(year, month, i)
		season := AcademicSeasonalFactor(m)

		borrowPred := borrowing(anchorBorrow) * (1 + borrowTrend*float64(i)) * (1 + season) * boost
		revenuePred := revenue(anchorRevenue) * (1 + revenueTrend*float64(i)) * (1 + season)
		readerPred := newReaders(anchorReaders) * (1 + readerTrend*float64(i)) * (1 + season)

		points = append(points, ForecastPoint{
			Month:          fmt.Sprintf("%04d-%02d", y, m),
			MonthDisplay:   fmt.Sprintf("T%d/%d", m, y),
			BorrowingCount: floorCount(borrowPred, smartBorrowFloor),
			Revenue:        math.Max(0, revenuePred),
			NewReaders:     floorCount(readerPred, smartReaderFloor),
			Confidence:     ConfidenceAt(i),
			IsForecast:     true,
			Factors: &ForecastFactors{
				TrendPct:       borrowTrend * float64(i) * 100,
				SeasonalityPct: season * 100,
				HotBoostPct:    (boost - 1) * 100,
			},
		})
	}

	return points, nil
}

func borrowing(p HistoryPoint) float64  { return p.BorrowingCount }
func revenue(p HistoryPoint) float64    { return p.Revenue }
func newReaders(p HistoryPoint) float64 { return p.NewReaders }

func metricSeries(history []HistoryPoint, metric func(HistoryPoint) float64) []float64 {
	series := make([]float64, len(history))
	for i, p := range history {
		series[i] = metric(p)
	}
	return series
}

// lastPositiveRow returns the most recent row with a strictly positive
// value for the metric, falling back to the literal last row so a
// multiplicative projection is never anchored on zero by accident.
func lastPositiveRow(history []HistoryPoint, metric func(HistoryPoint) float64) HistoryPoint {
	for i := len(history) - 1; i >= 0; i-- {
		if metric(history[i]) > 0 {
			return history[i]
		}
	}
	return history[len(history)-1]
}

func splitMonthKey(key string) (year, month int, err error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed month key %q", key)
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed month key %q: %w", key, err)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("malformed month key %q", key)
	}
	return year, month, nil
}

func addMonths(year, month, delta int) (int, int) {
	m := month + delta
	y := year
	for m > 12 {
		m -= 12
		y++
	}
	return y, m
}

func floorCount(predicted float64, floor int64) int64 {
	v := int64(predicted)
	if v < floor {
		return floor
	}
	return v
}
