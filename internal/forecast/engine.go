package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

const (
	MinHorizon = 1
	MaxHorizon = 365

	DefaultIntervalWidth = 0.80
)

// Options configures an Engine. Zero values select the defaults.
type Options struct {
	// IntervalWidth is the confidence level of the lower/upper bounds, in (0, 1).
	IntervalWidth float64
	// Timeout bounds a single fit+predict. Zero means only the caller's context applies.
	Timeout time.Duration
	// NewModel builds a fresh model per call.
	NewModel func() Model
}

// Engine turns a historical series into future forecast points.
type Engine struct {
	width    float64
	z        float64
	timeout  time.Duration
	newModel func() Model
}

func NewEngine(opts Options) *Engine {
	width := opts.IntervalWidth
	if width <= 0 || width >= 1 {
		width = DefaultIntervalWidth
	}
	newModel := opts.NewModel
	if newModel == nil {
		newModel = func() Model { return NewAdditiveModel() }
	}
	return &Engine{
		width:    width,
		z:        distuv.UnitNormal.Quantile(0.5 + width/2),
		timeout:  opts.Timeout,
		newModel: newModel,
	}
}

// ValidateHorizon checks that horizon lies in [MinHorizon, MaxHorizon].
func ValidateHorizon(horizon int) error {
	if horizon < MinHorizon || horizon > MaxHorizon {
		return fmt.Errorf("%w: %d days, must be between %d and %d", domain.ErrInvalidHorizon, horizon, MinHorizon, MaxHorizon)
	}
	return nil
}

type outcome struct {
	points []domain.ForecastPoint
	err    error
}

// Forecast fits the series and returns exactly horizon points dated strictly
// after the last historical date. The fit runs under the engine timeout and
// fails with ErrForecastTimeout rather than returning a partial result.
func (e *Engine) Forecast(ctx context.Context, series domain.HistoricalSeries, holidays domain.DateSet, horizon int) ([]domain.ForecastPoint, error) {
	if err := ValidateHorizon(horizon); err != nil {
		return nil, err
	}
	if series.Len() < 2 {
		return nil, fmt.Errorf("%w: %d distinct dates, need at least 2", domain.ErrInsufficientData, series.Len())
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		points, err := e.run(series, holidays, horizon)
		done <- outcome{points: points, err: err}
	}()

	select {
	case res := <-done:
		return res.points, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", domain.ErrForecastTimeout, ctx.Err())
		}
		return nil, ctx.Err()
	}
}

func (e *Engine) run(series domain.HistoricalSeries, holidays domain.DateSet, horizon int) ([]domain.ForecastPoint, error) {
	model := e.newModel()
	if err := model.Fit(series, holidays); err != nil {
		return nil, err
	}

	estimates, err := model.Predict(horizon)
	if err != nil {
		return nil, err
	}
	if len(estimates) != horizon {
		return nil, fmt.Errorf("forecast: model returned %d estimates for horizon %d", len(estimates), horizon)
	}

	meta := model.Describe()
	meta.IntervalWidth = e.width

	last, _ := series.LastDate()
	points := make([]domain.ForecastPoint, 0, horizon)
	for _, est := range estimates {
		if !est.Date.After(last) {
			return nil, fmt.Errorf("forecast: model produced in-sample date %s", est.Date.Format(domain.DateLayout))
		}

		half := e.z * est.StdDev
		lower := est.Value - half
		upper := est.Value + half

		pointMeta := meta
		pointMeta.BoundsCrossed = crossed(est.Value, lower, upper)

		points = append(points, domain.ForecastPoint{
			Scope:          series.Scope,
			ScopeID:        series.ScopeID,
			Date:           est.Date,
			PredictedValue: est.Value,
			LowerBound:     lower,
			UpperBound:     upper,
			ModelMetadata:  pointMeta,
		})
	}
	return points, nil
}

func crossed(value, lower, upper float64) bool {
	for _, v := range []float64{value, lower, upper} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return lower > value || value > upper
}
