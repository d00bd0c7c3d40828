// backend-go/cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/vendacerta/backend-go/internal/api"
	"github.com/andresuchdata/vendacerta/backend-go/internal/cache"
	"github.com/andresuchdata/vendacerta/backend-go/internal/calendar"
	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/forecast"
	"github.com/andresuchdata/vendacerta/backend-go/internal/service"
	"github.com/andresuchdata/vendacerta/backend-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
		logger.UseJSON(os.Stdout)
	}

	historyStart, err := time.Parse(domain.DateLayout, cfg.Forecast.HistoryStart)
	if err != nil {
		log.Fatalf("Invalid FORECAST_HISTORY_START %q: %v", cfg.Forecast.HistoryStart, err)
	}

	ctx := context.Background()

	repos, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer repos.Close()

	holidayCache, err := cache.NewHolidayCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis unavailable, holiday cache disabled")
		holidayCache = cache.NewNoopHolidayCache()
	}
	yearLRU := cache.NewYearLRU(cfg.Calendar.LRUSize, time.Duration(cfg.Calendar.LRUTTLSeconds)*time.Second)
	holidays := calendar.NewProvider(calendar.NewBrasilAPISource(cfg.Calendar), yearLRU, holidayCache).
		WithLoadTimeout(2 * cfg.Calendar.Timeout())

	engine := forecast.NewEngine(forecast.Options{
		IntervalWidth: cfg.Forecast.IntervalWidth,
		Timeout:       cfg.Forecast.Timeout(),
	})

	// Initialize services
	forecastService := service.NewForecastService(repos.sales, repos.products, repos.forecasts, holidays, engine, historyStart)
	recommendationService := service.NewRecommendationService(repos.sales, repos.products, repos.forecasts, historyStart)
	salesService := service.NewSalesService(repos.sales, repos.products)

	router := api.NewRouter(&api.Services{
		Forecast:       forecastService,
		Recommendation: recommendationService,
		Sales:          salesService,
		Holidays:       holidays,
		DefaultHorizon: cfg.Forecast.DefaultHorizon,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("backend", repos.backend).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// In-flight forecasts get 5 seconds to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
