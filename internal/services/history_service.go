package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thuvien-intelligence/library-insights/internal/analytics"
)

// Lookback windows are bounded so a bad parameter can never turn a monthly
// aggregate into a full table scan.
const (
	MinLookbackMonths = 3
	MaxLookbackMonths = 24
	queryTimeout      = 10 * time.Second
)

// MonthlyMetricPoint is one month of a single metric series.
type MonthlyMetricPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// HistoryService aggregates raw circulation rows into aligned monthly time
// series. It is read-only and holds no state between calls.
type HistoryService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(db *gorm.DB, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		db:     db,
		logger: logger.Named("history"),
	}
}

// BorrowingHistory returns monthly borrow counts over the trailing window.
func (s *HistoryService) BorrowingHistory(ctx context.Context, months int) []MonthlyMetricPoint {
	return s.fetchMonthly(ctx, "borrow_slips", "borrow_date", "COUNT(*)", months)
}

// RevenueHistory returns monthly penalty-revenue sums over the trailing
// window. Amounts are decimal in the store and float from here on.
func (s *HistoryService) RevenueHistory(ctx context.Context, months int) []MonthlyMetricPoint {
	return s.fetchMonthly(ctx, "penalties", "created_at", "COALESCE(SUM(amount), 0)", months)
}

// NewReaderHistory returns monthly new-member counts keyed by card start.
func (s *HistoryService) NewReaderHistory(ctx context.Context, months int) []MonthlyMetricPoint {
	return s.fetchMonthly(ctx, "readers", "card_start", "COUNT(*)", months)
}

// CombinedHistory outer-joins the three metric series on the month key,
// zero-filling metrics that are missing within a present month. Months
// absent from every series are not synthesized. An empty result means "no
// data" and callers must treat it as such.
func (s *HistoryService) CombinedHistory(ctx context.Context, months int) []analytics.HistoryPoint {
	months = clampLookback(months)

	borrowing := s.BorrowingHistory(ctx, months)
	revenue := s.RevenueHistory(ctx, months)
	readers := s.NewReaderHistory(ctx, months)

	keys := make(map[string]struct{})
	borrowByMonth := indexByMonth(borrowing, keys)
	revenueByMonth := indexByMonth(revenue, keys)
	readersByMonth := indexByMonth(readers, keys)

	if len(keys) == 0 {
		return nil
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	history := make([]analytics.HistoryPoint, 0, len(sorted))
	for _, month := range sorted {
		history = append(history, analytics.HistoryPoint{
			Month:          month,
			MonthDisplay:   displayLabel(month),
			BorrowingCount: borrowByMonth[month],
			Revenue:        revenueByMonth[month],
			NewReaders:     readersByMonth[month],
		})
	}

	s.logger.Info("combined monthly history",
		zap.Int("months_requested", months),
		zap.Int("months_present", len(history)))

	return history
}

// fetchMonthly runs one GROUP BY month aggregate. Query failures are
// logged and reported as an empty series; they never reach the caller as
// errors.
func (s *HistoryService) fetchMonthly(ctx context.Context, table, dateColumn, valueExpr string, months int) []MonthlyMetricPoint {
	months = clampLookback(months)
	since := time.Now().AddDate(0, -months, 0)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(
		`SELECT %s AS month, %s AS value FROM %s WHERE %s >= ? GROUP BY month ORDER BY month`,
		s.monthExpr(dateColumn), valueExpr, table, dateColumn,
	)

	var points []MonthlyMetricPoint
	if err := s.db.WithContext(ctx).Raw(query, since).Scan(&points).Error; err != nil {
		s.logger.Warn("monthly aggregate query failed",
			zap.String("table", table),
			zap.Error(err))
		return nil
	}

	return points
}

// monthExpr truncates a date column to "YYYY-MM". Production runs on
// postgres; tests run the same service against sqlite.
func (s *HistoryService) monthExpr(column string) string {
	if s.db.Dialector.Name() == "sqlite" {
		return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
	}
	return fmt.Sprintf("to_char(%s, 'YYYY-MM')", column)
}

func clampLookback(months int) int {
	if months < MinLookbackMonths {
		return MinLookbackMonths
	}
	if months > MaxLookbackMonths {
		return MaxLookbackMonths
	}
	return months
}

func indexByMonth(points []MonthlyMetricPoint, keys map[string]struct{}) map[string]float64 {
	byMonth := make(map[string]float64, len(points))
	for _, p := range points {
		byMonth[p.Month] = p.Value
		keys[p.Month] = struct{}{}
	}
	return byMonth
}

// displayLabel renders the Vietnamese-locale month label ("T01/2024")
// existing consumers expect for historical rows.
func displayLabel(monthKey string) string {
	parts := strings.SplitN(monthKey, "-", 2)
	if len(parts) != 2 {
		return monthKey
	}
	return "T" + parts[1] + "/" + parts[0]
}
