package service

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
	"github.com/andresuchdata/vendacerta/backend-go/internal/series"
)

type SalesService struct {
	sales    repository.SalesRepository
	products repository.ProductRepository
}

func NewSalesService(sales repository.SalesRepository, products repository.ProductRepository) *SalesService {
	return &SalesService{sales: sales, products: products}
}

func (s *SalesService) History(ctx context.Context, filter domain.SalesFilter) ([]domain.SaleRecord, error) {
	if err := checkWindow(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}
	return s.sales.History(ctx, filter)
}

// Aggregate sums sales in the filter window per day or month, optionally split
// by category or product.
func (s *SalesService) Aggregate(ctx context.Context, filter domain.SalesFilter, groupBy domain.Scope, period domain.AggregatePeriod) ([]domain.AggregateRow, error) {
	if err := checkWindow(filter.StartDate, filter.EndDate); err != nil {
		return nil, err
	}

	records, err := s.sales.History(ctx, filter)
	if err != nil {
		return nil, err
	}

	var catalog []domain.Product
	if groupBy == domain.ScopeCategory {
		catalog, err = s.products.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("load product catalog: %w", err)
		}
	}

	return series.Aggregate(records, catalog, groupBy, period)
}

func (s *SalesService) Products(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

func checkWindow(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("%w: end_date %s is before start_date %s", domain.ErrInvalidFilter,
			end.Format(domain.DateLayout), start.Format(domain.DateLayout))
	}
	return nil
}
