// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/vendacerta/backend-go/internal/api/handlers"
	"github.com/andresuchdata/vendacerta/backend-go/internal/api/middleware"
)

type Services struct {
	Forecast       handlers.ForecastService
	Recommendation handlers.RecommendationService
	Sales          handlers.SalesService
	Holidays       handlers.HolidayLister
	DefaultHorizon int
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.Metrics())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Forecast != nil && services.Recommendation != nil {
			forecastHandler := handlers.NewForecastHandler(services.Forecast, services.Recommendation, services.DefaultHorizon)
			apiGroup.GET("/predict", forecastHandler.Predict)
			apiGroup.GET("/recommendation", forecastHandler.Recommendation)
			apiGroup.GET("/forecasts", forecastHandler.Latest)
		}

		if services.Sales != nil {
			salesHandler := handlers.NewSalesHandler(services.Sales, services.Holidays)
			apiGroup.GET("/products", salesHandler.Products)
			salesGroup := apiGroup.Group("/sales")
			{
				salesGroup.GET("/history", salesHandler.History)
				salesGroup.GET("/aggregate", salesHandler.Aggregate)
			}
			if services.Holidays != nil {
				apiGroup.GET("/holidays", salesHandler.Holidays)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
