package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(50), 100)))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "library-insights",
			"version": "2.0.0",
			"status":  "running",
		})
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	ai := router.Group("/api/ai")
	{
		ai.GET("/forecast", handlers.GetForecast)
		ai.GET("/forecast-smart", handlers.GetSmartForecast)

		insights := ai.Group("/insights")
		{
			insights.GET("/categories", handlers.GetCategoryInsights)
			insights.GET("/authors", handlers.GetAuthorInsights)
			insights.GET("/publishers", handlers.GetPublisherInsights)
			insights.GET("/book-age", handlers.GetBookAgeInsights)
			insights.GET("/comprehensive", handlers.GetComprehensiveReport)
		}
	}

	return router
}

// rateLimitMiddleware sheds load once the shared limiter is exhausted.
// The analysis queries are heavy enough that unbounded concurrency would
// let one dashboard refresh storm take down the database.
func rateLimitMiddleware(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
