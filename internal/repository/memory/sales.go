package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/series"
)

// SalesStore is an in-process sales ledger and product catalog.
type SalesStore struct {
	mu       sync.RWMutex
	records  []domain.SaleRecord
	products []domain.Product
	nextID   int64
}

func NewSalesStore() *SalesStore {
	return &SalesStore{}
}

// AddProducts inserts or replaces catalog entries by id.
func (s *SalesStore) AddProducts(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index := make(map[string]int, len(s.products))
	for i, p := range s.products {
		index[p.ID] = i
	}
	for _, p := range products {
		if i, ok := index[p.ID]; ok {
			s.products[i] = p
			continue
		}
		index[p.ID] = len(s.products)
		s.products = append(s.products, p)
	}
}

// AddSales appends records to the ledger, assigning ids.
func (s *SalesStore) AddSales(records ...domain.SaleRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.nextID++
		r.ID = s.nextID
		r.Date = domain.TruncateDay(r.Date)
		s.records = append(s.records, r)
	}
}

func (s *SalesStore) History(ctx context.Context, filter domain.SalesFilter) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members map[string]struct{}
	if filter.Category != "" {
		members = series.CategoryMembers(s.products, filter.Category)
	}

	out := make([]domain.SaleRecord, 0)
	for _, r := range s.records {
		if filter.ProductID != "" && r.ProductID != filter.ProductID {
			continue
		}
		if members != nil {
			if _, ok := members[r.ProductID]; !ok {
				continue
			}
		}
		if !filter.StartDate.IsZero() && r.Date.Before(domain.TruncateDay(filter.StartDate)) {
			continue
		}
		if !filter.EndDate.IsZero() && r.Date.After(domain.TruncateDay(filter.EndDate)) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *SalesStore) List(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]domain.Product(nil), s.products...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *SalesStore) IDsByCategory(ctx context.Context, category string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0)
	for id := range series.CategoryMembers(s.products, category) {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *SalesStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range s.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}
