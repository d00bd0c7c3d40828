package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

// ForecastStore keeps forecast points in process. Saves are appended under a
// single lock so each call is all-or-nothing.
type ForecastStore struct {
	mu     sync.RWMutex
	points []domain.ForecastPoint
	nextID int64
	now    func() time.Time
}

func NewForecastStore() *ForecastStore {
	return &ForecastStore{now: time.Now}
}

func (s *ForecastStore) Save(ctx context.Context, points []domain.ForecastPoint) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceWrite, err)
	}
	for _, p := range points {
		if _, err := domain.ValidateScope(p.Scope, p.ScopeID); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPersistenceWrite, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now().UTC()
	for _, p := range points {
		s.nextID++
		p.ID = s.nextID
		p.CreatedAt = created
		s.points = append(s.points, p)
	}
	return nil
}

func (s *ForecastStore) Latest(ctx context.Context, scope domain.Scope, scopeID *string, limit int) ([]domain.ForecastPoint, error) {
	if limit <= 0 {
		return []domain.ForecastPoint{}, nil
	}

	s.mu.RLock()
	matched := make([]domain.ForecastPoint, 0)
	for _, p := range s.points {
		if p.Scope == scope && sameScopeID(p.ScopeID, scopeID) {
			matched = append(matched, p)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Len returns the number of stored points.
func (s *ForecastStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func sameScopeID(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
