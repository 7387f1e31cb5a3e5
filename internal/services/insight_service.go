package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/thuvien-intelligence/library-insights/internal/eventbus"
)

const insightsGeneratedTopic = "insights.generated"

// ComprehensiveReport bundles every analysis section into one envelope.
// Sections carry their own success flags; a failed section never blocks
// the others.
type ComprehensiveReport struct {
	Success     bool                   `json:"success"`
	Message     string                 `json:"message,omitempty"`
	ReportID    string                 `json:"report_id,omitempty"`
	Categories  CategoryInsightResult  `json:"categories"`
	Authors     AuthorInsightResult    `json:"authors"`
	Publishers  PublisherInsightResult `json:"publishers"`
	BookAge     BookAgeResult          `json:"book_age"`
	Forecast    SmartForecastResult    `json:"forecast"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// InsightService orchestrates the entity analyzers and the forecast into
// composite reports, and notifies downstream consumers when one is built.
type InsightService struct {
	entities  *EntityInsightService
	forecasts *ForecastService
	bus       eventbus.EventBus
	logger    *zap.Logger
}

// NewInsightService creates a new InsightService. The event bus may be a
// no-op implementation when redis is not configured.
func NewInsightService(entities *EntityInsightService, forecasts *ForecastService, bus eventbus.EventBus, logger *zap.Logger) *InsightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightService{
		entities:  entities,
		forecasts: forecasts,
		bus:       bus,
		logger:    logger.Named("insights"),
	}
}

// SmartForecast runs the category analyzer to derive the hot-category
// boost, then projects. A failed category analysis degrades to a boost of
// zero hot categories rather than failing the forecast.
func (s *InsightService) SmartForecast(ctx context.Context, periods int) SmartForecastResult {
	ctx, span := otel.Tracer("library-insights").Start(ctx, "SmartForecast")
	defer span.End()

	hotCount := 0
	categories := s.entities.AnalyzeCategories(ctx)
	if categories.Success {
		hotCount = categories.HotCount
	} else {
		s.logger.Warn("category analysis unavailable for smart forecast",
			zap.String("reason", categories.Message))
	}

	result := s.forecasts.SmartForecast(ctx, periods, hotCount)

	span.SetAttributes(
		attribute.Bool("success", result.Success),
		attribute.Int("periods", len(result.Forecast)),
		attribute.Int("hot_categories", hotCount),
	)

	return result
}

// ComprehensiveReport runs every analyzer plus the smart forecast and
// nests their envelopes. Only a panic inside the orchestration itself
// produces a top-level failure.
func (s *InsightService) ComprehensiveReport(ctx context.Context) (report ComprehensiveReport) {
	ctx, span := otel.Tracer("library-insights").Start(ctx, "ComprehensiveReport")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("comprehensive report panicked", zap.Any("panic", r))
			report = ComprehensiveReport{
				Success:     false,
				Message:     "internal error while assembling report",
				GeneratedAt: time.Now(),
			}
		}
	}()

	report = ComprehensiveReport{
		Success:     true,
		ReportID:    uuid.New().String(),
		Categories:  s.entities.AnalyzeCategories(ctx),
		Authors:     s.entities.AnalyzeAuthors(ctx, DefaultTopN),
		Publishers:  s.entities.AnalyzePublishers(ctx, DefaultTopN),
		BookAge:     s.entities.AnalyzeBookAge(ctx),
		GeneratedAt: time.Now(),
	}

	hotCount := 0
	if report.Categories.Success {
		hotCount = report.Categories.HotCount
	}
	report.Forecast = s.forecasts.SmartForecast(ctx, DefaultForecastMonths, hotCount)

	span.SetAttributes(
		attribute.Int("hot_categories", hotCount),
		attribute.Bool("forecast_success", report.Forecast.Success),
	)

	s.publishGenerated(ctx, report)
	return report
}

// publishGenerated emits a notification event; delivery is best-effort
// and never affects the report itself.
func (s *InsightService) publishGenerated(ctx context.Context, report ComprehensiveReport) {
	if s.bus == nil {
		return
	}
	event := map[string]interface{}{
		"report_id":        report.ReportID,
		"generated_at":     report.GeneratedAt.Format(time.RFC3339),
		"hot_categories":   report.Categories.HotCount,
		"forecast_success": report.Forecast.Success,
	}
	if err := s.bus.Publish(ctx, insightsGeneratedTopic, event); err != nil {
		s.logger.Warn("failed to publish insight event", zap.Error(err))
	}
}
