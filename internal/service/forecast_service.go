package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/forecast"
	"github.com/andresuchdata/vendacerta/backend-go/internal/metrics"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
)

// HolidayProvider supplies holiday dates for an inclusive range of years.
type HolidayProvider interface {
	HolidaysFor(ctx context.Context, fromYear, toYear int) domain.DateSet
}

type ForecastService struct {
	loader    *seriesLoader
	forecasts repository.ForecastRepository
	calendar  HolidayProvider
	engine    *forecast.Engine
}

func NewForecastService(
	sales repository.SalesRepository,
	products repository.ProductRepository,
	forecasts repository.ForecastRepository,
	calendar HolidayProvider,
	engine *forecast.Engine,
	historyStart time.Time,
) *ForecastService {
	return &ForecastService{
		loader: &seriesLoader{
			sales:        sales,
			products:     products,
			historyStart: historyStart,
			now:          time.Now,
		},
		forecasts: forecasts,
		calendar:  calendar,
		engine:    engine,
	}
}

// Forecast builds the scope's history, fits it and appends the future points
// to the store. When only the write fails, the computed result is returned
// together with an ErrPersistenceWrite error and Persisted set to false.
func (s *ForecastService) Forecast(ctx context.Context, scope domain.Scope, scopeID *string, horizon int) (*domain.ForecastResult, error) {
	id, err := domain.ValidateScope(scope, scopeID)
	if err != nil {
		return nil, err
	}
	if err := forecast.ValidateHorizon(horizon); err != nil {
		return nil, err
	}

	hist, err := s.loader.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	var holidays domain.DateSet
	if first, last, ok := span(hist); ok {
		holidays = s.calendar.HolidaysFor(ctx, first.Year(), last.AddDate(0, 0, horizon).Year())
	}

	start := time.Now()
	points, err := s.engine.Forecast(ctx, hist, holidays, horizon)
	metrics.ForecastFitDuration.WithLabelValues(string(scope)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ForecastRuns.WithLabelValues(string(scope), outcomeFor(err)).Inc()
		return nil, err
	}

	result := domain.NewForecastResult(scope, id, points)

	if err := s.forecasts.Save(ctx, points); err != nil {
		metrics.ForecastRuns.WithLabelValues(string(scope), outcomeFor(err)).Inc()
		log.Warn().Err(err).
			Str("scope", string(scope)).
			Str("scope_id", domain.StringValue(id)).
			Int("points", len(points)).
			Msg("forecast computed but not persisted")
		return result, err
	}

	result.Persisted = true
	metrics.ForecastPointsSaved.Add(float64(len(points)))
	metrics.ForecastRuns.WithLabelValues(string(scope), "ok").Inc()
	return result, nil
}

// Latest returns stored forecast points for a scope, newest date first.
func (s *ForecastService) Latest(ctx context.Context, scope domain.Scope, scopeID *string, limit int) ([]domain.ForecastPoint, error) {
	id, err := domain.ValidateScope(scope, scopeID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultPeriods
	}
	return s.forecasts.Latest(ctx, scope, id, limit)
}

func span(hist domain.HistoricalSeries) (time.Time, time.Time, bool) {
	if hist.Empty() {
		return time.Time{}, time.Time{}, false
	}
	last, _ := hist.LastDate()
	return hist.Points[0].Date, last, true
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, domain.ErrForecastTimeout):
		return "timeout"
	case errors.Is(err, domain.ErrPersistenceWrite):
		return "persist_error"
	default:
		return "error"
	}
}
