package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/thuvien-intelligence/library-insights/internal/analytics"
)

// Default forecast shape when callers do not specify one.
const (
	DefaultHistoryMonths  = 12
	DefaultForecastMonths = 6
	MaxForecastMonths     = 12
)

// HistoryStatistics summarizes the historical window behind a forecast.
type HistoryStatistics struct {
	AvgBorrowing    int64   `json:"avg_borrowing"`
	TotalRevenue    float64 `json:"total_revenue"`
	TotalNewReaders int64   `json:"total_new_users"`
	GrowthRatePct   float64 `json:"growth_rate"`
	DataPoints      int     `json:"data_points"`
}

// ModelInfo tags a forecast response with the model that produced it.
type ModelInfo struct {
	Type        string `json:"type"`
	Accuracy    string `json:"accuracy"`
	LastUpdated string `json:"last_updated"`
}

// ForecastResult is the envelope for the classic forecast endpoint.
type ForecastResult struct {
	Success    bool                      `json:"success"`
	Message    string                    `json:"message,omitempty"`
	Historical []analytics.HistoryPoint  `json:"historical"`
	Forecast   []analytics.ForecastPoint `json:"forecast"`
	Statistics *HistoryStatistics        `json:"statistics,omitempty"`
	ModelInfo  *ModelInfo                `json:"model_info,omitempty"`
}

// SmartForecastResult is the envelope for the multi-factor forecast.
type SmartForecastResult struct {
	Success            bool                      `json:"success"`
	Message            string                    `json:"message,omitempty"`
	Forecast           []analytics.ForecastPoint `json:"forecast"`
	HotCategoriesBoost float64                   `json:"hot_categories_boost"`
	ModelInfo          *ModelInfo                `json:"model_info,omitempty"`
}

// ForecastService turns combined history into forecast envelopes. All
// failures are converted to success:false responses here; callers never
// see an error value.
type ForecastService struct {
	history *HistoryService
	logger  *zap.Logger
}

// NewForecastService creates a new ForecastService.
func NewForecastService(history *HistoryService, logger *zap.Logger) *ForecastService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForecastService{
		history: history,
		logger:  logger.Named("forecast"),
	}
}

// ForecastData runs the classic forecast: fetch history, project, and
// return history + forecast + summary statistics in one payload.
func (s *ForecastService) ForecastData(ctx context.Context, historyMonths, forecastMonths int) ForecastResult {
	if forecastMonths <= 0 {
		forecastMonths = DefaultForecastMonths
	}
	if forecastMonths > MaxForecastMonths {
		forecastMonths = MaxForecastMonths
	}

	history := s.history.CombinedHistory(ctx, historyMonths)
	if len(history) == 0 {
		return ForecastResult{
			Success:    false,
			Message:    "no historical data",
			Historical: []analytics.HistoryPoint{},
			Forecast:   []analytics.ForecastPoint{},
		}
	}

	for i := range history {
		history[i].IsForecast = false
		history[i].Confidence = 100
	}

	forecast, err := analytics.GenerateForecast(history, forecastMonths)
	if err != nil {
		s.logger.Error("forecast generation failed", zap.Error(err))
		return ForecastResult{
			Success:    false,
			Message:    err.Error(),
			Historical: []analytics.HistoryPoint{},
			Forecast:   []analytics.ForecastPoint{},
		}
	}

	s.logger.Info("classic forecast generated",
		zap.Int("history_months", len(history)),
		zap.Int("forecast_months", len(forecast)))

	return ForecastResult{
		Success:    true,
		Historical: history,
		Forecast:   forecast,
		Statistics: summarize(history),
		ModelInfo: &ModelInfo{
			Type:        "Linear Trend + Seasonality",
			Accuracy:    "85-90%",
			LastUpdated: time.Now().Format("2006-01-02 15:04:05"),
		},
	}
}

// SmartForecast runs the multi-factor forecast. The hot-category count is
// supplied by the caller (the insight orchestrator) so this service stays
// free of entity-analysis concerns.
func (s *ForecastService) SmartForecast(ctx context.Context, periods, hotCategories int) SmartForecastResult {
	if periods <= 0 {
		periods = DefaultForecastMonths
	}
	if periods > MaxForecastMonths {
		periods = MaxForecastMonths
	}

	history := s.history.CombinedHistory(ctx, DefaultHistoryMonths)
	if len(history) == 0 {
		return SmartForecastResult{
			Success:  false,
			Message:  "no historical data",
			Forecast: []analytics.ForecastPoint{},
		}
	}

	forecast, err := analytics.GenerateSmartForecast(history, periods, hotCategories)
	if err != nil {
		s.logger.Error("smart forecast generation failed", zap.Error(err))
		return SmartForecastResult{
			Success:  false,
			Message:  err.Error(),
			Forecast: []analytics.ForecastPoint{},
		}
	}

	boost := analytics.HotCategoryBoost(hotCategories)
	s.logger.Info("smart forecast generated",
		zap.Int("periods", len(forecast)),
		zap.Int("hot_categories", hotCategories),
		zap.Float64("boost", boost))

	return SmartForecastResult{
		Success:            true,
		Forecast:           forecast,
		HotCategoriesBoost: boost,
		ModelInfo: &ModelInfo{
			Type:        "Multi-Factor Linear Model v2.0",
			Accuracy:    "85-90%",
			LastUpdated: time.Now().Format("2006-01-02 15:04:05"),
		},
	}
}

func summarize(history []analytics.HistoryPoint) *HistoryStatistics {
	if len(history) == 0 {
		return nil
	}

	var borrowSum, revenueSum, readerSum float64
	borrowSeries := make([]float64, len(history))
	for i, p := range history {
		borrowSum += p.BorrowingCount
		revenueSum += p.Revenue
		readerSum += p.NewReaders
		borrowSeries[i] = p.BorrowingCount
	}

	return &HistoryStatistics{
		AvgBorrowing:    int64(borrowSum / float64(len(history))),
		TotalRevenue:    revenueSum,
		TotalNewReaders: int64(readerSum),
		GrowthRatePct:   analytics.EstimateTrendRatio(borrowSeries) * 100,
		DataPoints:      len(history),
	}
}
