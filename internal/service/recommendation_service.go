package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/metrics"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
)

const (
	// StockMargin is the fixed safety margin applied to average demand (20%).
	StockMargin = 1.2

	// stockFloorTolerance absorbs floating-point noise from the model fit, so an
	// average that is exactly 7.5 in decimal but 7.4999999999999 in binary still
	// yields 9 rather than 8. Far below any meaningful unit of stock.
	stockFloorTolerance = 1e-9

	DefaultPeriods = 30
)

type RecommendationService struct {
	loader    *seriesLoader
	forecasts repository.ForecastRepository
}

func NewRecommendationService(
	sales repository.SalesRepository,
	products repository.ProductRepository,
	forecasts repository.ForecastRepository,
	historyStart time.Time,
) *RecommendationService {
	return &RecommendationService{
		loader: &seriesLoader{
			sales:        sales,
			products:     products,
			historyStart: historyStart,
			now:          time.Now,
		},
		forecasts: forecasts,
	}
}

// Recommend averages the latest stored forecasts for the scope, or the scope's
// daily sales history when none are stored, and applies StockMargin. The
// recommended stock is floored, never rounded.
func (s *RecommendationService) Recommend(ctx context.Context, scope domain.Scope, scopeID *string, periods int) (*domain.RecommendationResult, error) {
	id, err := domain.ValidateScope(scope, scopeID)
	if err != nil {
		return nil, err
	}
	if periods <= 0 {
		periods = DefaultPeriods
	}

	points, err := s.forecasts.Latest(ctx, scope, id, periods)
	if err != nil {
		return nil, fmt.Errorf("load latest forecasts: %w", err)
	}

	if len(points) > 0 {
		total := 0.0
		for _, p := range points {
			total += p.PredictedValue
		}
		metrics.Recommendations.WithLabelValues(string(domain.SourceForecasts)).Inc()
		return newRecommendation(scope, id, total/float64(len(points)), domain.SourceForecasts), nil
	}

	hist, err := s.loader.load(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if hist.Empty() {
		return nil, fmt.Errorf("%w: scope %s %s", domain.ErrNoData, scope, domain.StringValue(id))
	}

	metrics.Recommendations.WithLabelValues(string(domain.SourceHistoricalData)).Inc()
	return newRecommendation(scope, id, hist.MeanQuantity(), domain.SourceHistoricalData), nil
}

func newRecommendation(scope domain.Scope, scopeID *string, average float64, source domain.RecommendationSource) *domain.RecommendationResult {
	return &domain.RecommendationResult{
		Scope:            scope,
		ScopeID:          scopeID,
		AveragePredicted: average,
		RecommendedStock: RecommendedStock(average),
		Source:           source,
	}
}

// RecommendedStock returns floor(average * StockMargin), tolerant of
// representation error just below an integer.
func RecommendedStock(average float64) int {
	return int(math.Floor(average*StockMargin + stockFloorTolerance))
}
