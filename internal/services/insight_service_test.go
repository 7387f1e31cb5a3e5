package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/thuvien-intelligence/library-insights/internal/eventbus"
)

// captureBus records published events for assertions.
type captureBus struct {
	mu     sync.Mutex
	topics []string
	events []interface{}
}

func (c *captureBus) Publish(ctx context.Context, topic string, event interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics = append(c.topics, topic)
	c.events = append(c.events, event)
	return nil
}

func (c *captureBus) Close() error { return nil }

func newInsightService(t *testing.T, bus eventbus.EventBus) (*InsightService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	logger := zap.NewNop()
	entities := NewEntityInsightService(db, logger)
	forecasts := NewForecastService(NewHistoryService(db, logger), logger)
	return NewInsightService(entities, forecasts, bus, logger), db
}

func TestComprehensiveReportEmptyStore(t *testing.T) {
	service, _ := newInsightService(t, eventbus.Nop{})

	report := service.ComprehensiveReport(context.Background())

	assert.True(t, report.Success, "an empty library is not an orchestration failure")
	assert.NotEmpty(t, report.ReportID)
	assert.False(t, report.GeneratedAt.IsZero())

	assert.False(t, report.Categories.Success)
	assert.False(t, report.Authors.Success)
	assert.False(t, report.Publishers.Success)
	assert.False(t, report.BookAge.Success)
	assert.False(t, report.Forecast.Success)
}

func TestComprehensiveReportWithData(t *testing.T) {
	bus := &captureBus{}
	service, db := newInsightService(t, bus)

	seedCategoryWithBorrows(t, db, "Fiction", 1, 9)
	seedCategoryWithBorrows(t, db, "Science", 8, 1)
	seedBorrowSlips(t, db, "book_rep_1", midMonth(3), 4)
	seedBorrowSlips(t, db, "book_rep_2", midMonth(2), 5)

	report := service.ComprehensiveReport(context.Background())

	require.True(t, report.Success)
	assert.True(t, report.Categories.Success)
	assert.Equal(t, 1, report.Categories.HotCount)
	assert.True(t, report.BookAge.Success)
	assert.True(t, report.Forecast.Success)
	assert.InDelta(t, 1.05, report.Forecast.HotCategoriesBoost, 0.0001)

	require.Len(t, bus.topics, 1)
	assert.Equal(t, "insights.generated", bus.topics[0])
	event, ok := bus.events[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, report.ReportID, event["report_id"])
}

func TestSmartForecastDegradesWithoutCategoryData(t *testing.T) {
	service, db := newInsightService(t, eventbus.Nop{})

	// Borrow history exists but no catalog rows, so the category analysis
	// fails and the boost falls back to zero hot categories.
	seedBorrowSlips(t, db, "book_rep_3", midMonth(3), 3)
	seedBorrowSlips(t, db, "book_rep_4", midMonth(2), 4)
	seedBorrowSlips(t, db, "book_rep_5", midMonth(1), 5)

	result := service.SmartForecast(context.Background(), 4)

	require.True(t, result.Success)
	assert.Len(t, result.Forecast, 4)
	assert.InDelta(t, 1.0, result.HotCategoriesBoost, 0.0001)
	for _, p := range result.Forecast {
		require.NotNil(t, p.Factors)
		assert.Zero(t, p.Factors.HotBoostPct)
	}
}
