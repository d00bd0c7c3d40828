package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
	"github.com/andresuchdata/vendacerta/backend-go/internal/series"
)

// seriesLoader reads the ledger window for a scope and aggregates it.
type seriesLoader struct {
	sales        repository.SalesRepository
	products     repository.ProductRepository
	historyStart time.Time
	now          func() time.Time
}

func (l *seriesLoader) load(ctx context.Context, scope domain.Scope, scopeID *string) (domain.HistoricalSeries, error) {
	id, err := domain.ValidateScope(scope, scopeID)
	if err != nil {
		return domain.HistoricalSeries{}, err
	}

	filter := domain.SalesFilter{
		Scope:     scope,
		ScopeID:   id,
		StartDate: l.historyStart,
		EndDate:   domain.TruncateDay(l.now()),
	}

	var catalog []domain.Product
	switch scope {
	case domain.ScopeProduct:
		filter.ProductID = *id
	case domain.ScopeCategory:
		filter.Category = *id
		ids, err := l.products.IDsByCategory(ctx, *id)
		if err != nil {
			return domain.HistoricalSeries{}, fmt.Errorf("load category members: %w", err)
		}
		catalog = make([]domain.Product, 0, len(ids))
		for _, productID := range ids {
			catalog = append(catalog, domain.Product{ID: productID, Category: *id})
		}
	}

	records, err := l.sales.History(ctx, filter)
	if err != nil {
		return domain.HistoricalSeries{}, fmt.Errorf("load sales history: %w", err)
	}

	return series.BuildSeries(records, catalog, scope, id)
}
