package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/thuvien-intelligence/library-insights/internal/services"
)

// Handlers contains all the API handlers with their dependencies
type Handlers struct {
	forecastService *services.ForecastService
	entityService   *services.EntityInsightService
	insightService  *services.InsightService
	logger          *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	forecastService *services.ForecastService,
	entityService *services.EntityInsightService,
	insightService *services.InsightService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		forecastService: forecastService,
		entityService:   entityService,
		insightService:  insightService,
		logger:          logger,
	}
}

// GetForecast returns historical monthly activity plus the classic
// projection. Responds 200 with success=false when there is no data so
// dashboards can render an empty state.
func (h *Handlers) GetForecast(c *gin.Context) {
	historyMonths, ok := parseMonths(c, "history_months", services.DefaultHistoryMonths, services.MaxLookbackMonths)
	if !ok {
		return
	}
	forecastMonths, ok := parseMonths(c, "forecast_months", services.DefaultForecastMonths, services.MaxForecastMonths)
	if !ok {
		return
	}

	result := h.forecastService.ForecastData(c.Request.Context(), historyMonths, forecastMonths)
	c.JSON(http.StatusOK, result)
}

// GetSmartForecast returns the multi-factor projection.
func (h *Handlers) GetSmartForecast(c *gin.Context) {
	months, ok := parseMonths(c, "months", services.DefaultForecastMonths, services.MaxForecastMonths)
	if !ok {
		return
	}

	result := h.insightService.SmartForecast(c.Request.Context(), months)
	if !result.Success {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCategoryInsights returns demand analysis per book category.
func (h *Handlers) GetCategoryInsights(c *gin.Context) {
	result := h.entityService.AnalyzeCategories(c.Request.Context())
	if !result.Success {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetAuthorInsights returns the most-borrowed authors.
func (h *Handlers) GetAuthorInsights(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	result := h.entityService.AnalyzeAuthors(c.Request.Context(), limit)
	if !result.Success {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetPublisherInsights returns publisher catalog performance.
func (h *Handlers) GetPublisherInsights(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	result := h.entityService.AnalyzePublishers(c.Request.Context(), limit)
	if !result.Success {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBookAgeInsights returns borrowing demand by publication age.
func (h *Handlers) GetBookAgeInsights(c *gin.Context) {
	result := h.entityService.AnalyzeBookAge(c.Request.Context())
	if !result.Success {
		c.JSON(http.StatusNotFound, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetComprehensiveReport returns every analysis section in one payload.
func (h *Handlers) GetComprehensiveReport(c *gin.Context) {
	report := h.insightService.ComprehensiveReport(c.Request.Context())
	if !report.Success {
		c.JSON(http.StatusInternalServerError, report)
		return
	}
	c.JSON(http.StatusOK, report)
}

// parseMonths reads a bounded month-count query parameter. A missing
// parameter falls back to def; an unparseable or out-of-range one is a
// 400.
func parseMonths(c *gin.Context, name string, def, max int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	months, err := strconv.Atoi(raw)
	if err != nil || months < 1 || months > max {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   name + " must be an integer between 1 and " + strconv.Itoa(max),
		})
		return 0, false
	}
	return months, true
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return services.DefaultTopN, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "limit must be an integer between 1 and 100",
		})
		return 0, false
	}
	return limit, true
}
