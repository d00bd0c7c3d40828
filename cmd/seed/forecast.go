package main

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/vendacerta/backend-go/internal/batch"
	"github.com/andresuchdata/vendacerta/backend-go/internal/cache"
	"github.com/andresuchdata/vendacerta/backend-go/internal/calendar"
	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/forecast"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/vendacerta/backend-go/internal/service"
	"github.com/andresuchdata/vendacerta/backend-go/pkg/logger"
)

func runForecastAll(c *cli.Context) error {
	sqlDB, err := dbFrom(c)
	if err != nil {
		return err
	}
	cfg := config.Load()

	historyStart, err := time.Parse(domain.DateLayout, cfg.Forecast.HistoryStart)
	if err != nil {
		return fmt.Errorf("invalid FORECAST_HISTORY_START %q: %w", cfg.Forecast.HistoryStart, err)
	}

	db := postgres.Wrap(sqlx.NewDb(sqlDB, "pgx"), cfg.Database.MaxConcurrentTx)
	products := postgres.NewProductRepository(db.DB)

	holidays, err := newHolidayProvider(cfg, false)
	if err != nil {
		return err
	}

	forecasts := service.NewForecastService(
		postgres.NewSalesRepository(db.DB),
		products,
		postgres.NewForecastRepository(db),
		holidays,
		forecast.NewEngine(forecast.Options{
			IntervalWidth: cfg.Forecast.IntervalWidth,
			Timeout:       cfg.Forecast.Timeout(),
		}),
		historyStart,
	)

	summary, err := batch.NewRunner(forecasts, products, c.Int("workers")).Run(c.Context, c.Int("horizon"))
	if err != nil {
		return err
	}

	logger.Log.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("cancelled", summary.Cancelled).
		Int("points", summary.Points).
		Dur("duration", summary.Duration).
		Msg("Forecast refresh finished")

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d forecasts failed", summary.Failed, summary.Total)
	}
	return nil
}

// newHolidayProvider builds the calendar stack. When the Redis cache is
// required, a connection failure is returned instead of degrading to no cache.
func newHolidayProvider(cfg *config.Config, requireCache bool) (*calendar.Provider, error) {
	holidayCache, err := cache.NewHolidayCache(cfg.Cache)
	if err != nil {
		if requireCache {
			return nil, err
		}
		logger.Log.Warn().Err(err).Msg("Redis unavailable, holiday cache disabled")
		holidayCache = cache.NewNoopHolidayCache()
	}
	provider := calendar.NewProvider(
		calendar.NewBrasilAPISource(cfg.Calendar),
		cache.NewYearLRU(cfg.Calendar.LRUSize, time.Duration(cfg.Calendar.LRUTTLSeconds)*time.Second),
		holidayCache,
	)
	return provider.WithLoadTimeout(2 * cfg.Calendar.Timeout()), nil
}

func runHolidaysRefresh(c *cli.Context) error {
	cfg := config.Load()

	from := c.Int("from")
	if from == 0 {
		start, err := time.Parse(domain.DateLayout, cfg.Forecast.HistoryStart)
		if err != nil {
			return fmt.Errorf("invalid FORECAST_HISTORY_START %q: %w", cfg.Forecast.HistoryStart, err)
		}
		from = start.Year()
	}
	to := c.Int("to")
	if to == 0 {
		to = time.Now().Year() + 1
	}

	holidays, err := newHolidayProvider(cfg, true)
	if err != nil {
		return err
	}

	purged, err := holidays.Refresh(c.Context, from, to)
	if err != nil {
		return err
	}
	logger.Log.Info().
		Int("from", from).
		Int("to", to).
		Int("purged", purged).
		Msg("Holiday cache refreshed")
	return nil
}
