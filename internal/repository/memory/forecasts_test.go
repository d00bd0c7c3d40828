package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func point(scope domain.Scope, id string, date string, value float64) domain.ForecastPoint {
	return domain.ForecastPoint{
		Scope:          scope,
		ScopeID:        domain.StringPtr(id),
		Date:           day(date),
		PredictedValue: value,
		LowerBound:     value - 1,
		UpperBound:     value + 1,
	}
}

func TestForecastStore_SaveThenLatest(t *testing.T) {
	ctx := context.Background()
	s := NewForecastStore()

	require.NoError(t, s.Save(ctx, []domain.ForecastPoint{
		point(domain.ScopeTotal, "", "2024-01-04", 8),
		point(domain.ScopeTotal, "", "2024-01-05", 7),
	}))

	got, err := s.Latest(ctx, domain.ScopeTotal, nil, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day("2024-01-05"), got[0].Date)
	assert.Equal(t, day("2024-01-04"), got[1].Date)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestForecastStore_AppendOnly(t *testing.T) {
	ctx := context.Background()
	s := NewForecastStore()

	require.NoError(t, s.Save(ctx, []domain.ForecastPoint{point(domain.ScopeProduct, "P1", "2024-02-01", 5)}))
	require.NoError(t, s.Save(ctx, []domain.ForecastPoint{point(domain.ScopeProduct, "P1", "2024-02-01", 9)}))

	got, err := s.Latest(ctx, domain.ScopeProduct, domain.StringPtr("P1"), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Same date: newest insert first.
	assert.Equal(t, 9.0, got[0].PredictedValue)
	assert.Equal(t, 5.0, got[1].PredictedValue)
	assert.Equal(t, 2, s.Len())
}

func TestForecastStore_LatestFiltersScope(t *testing.T) {
	ctx := context.Background()
	s := NewForecastStore()

	require.NoError(t, s.Save(ctx, []domain.ForecastPoint{
		point(domain.ScopeTotal, "", "2024-03-01", 1),
		point(domain.ScopeCategory, "Bebidas", "2024-03-01", 2),
		point(domain.ScopeCategory, "Laticínios", "2024-03-01", 3),
		point(domain.ScopeProduct, "Bebidas", "2024-03-01", 4),
	}))

	got, err := s.Latest(ctx, domain.ScopeCategory, domain.StringPtr("Bebidas"), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].PredictedValue)

	got, err = s.Latest(ctx, domain.ScopeTotal, nil, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].PredictedValue)

	got, err = s.Latest(ctx, domain.ScopeProduct, domain.StringPtr("missing"), 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestForecastStore_LatestLimit(t *testing.T) {
	ctx := context.Background()
	s := NewForecastStore()

	var points []domain.ForecastPoint
	for i := 1; i <= 10; i++ {
		points = append(points, point(domain.ScopeTotal, "", fmt.Sprintf("2024-04-%02d", i), float64(i)))
	}
	require.NoError(t, s.Save(ctx, points))

	got, err := s.Latest(ctx, domain.ScopeTotal, nil, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{10, 9, 8}, []float64{got[0].PredictedValue, got[1].PredictedValue, got[2].PredictedValue})

	got, err = s.Latest(ctx, domain.ScopeTotal, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestForecastStore_SaveIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := NewForecastStore()

	err := s.Save(ctx, []domain.ForecastPoint{
		point(domain.ScopeTotal, "", "2024-01-01", 1),
		point(domain.ScopeProduct, "", "2024-01-01", 1),
	})
	assert.ErrorIs(t, err, domain.ErrPersistenceWrite)
	assert.Zero(t, s.Len())
}

func TestForecastStore_ConcurrentSaves(t *testing.T) {
	ctx := context.Background()
	s := NewForecastStore()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			id := fmt.Sprintf("P%d", w%2)
			for i := 0; i < 25; i++ {
				assert.NoError(t, s.Save(ctx, []domain.ForecastPoint{
					point(domain.ScopeProduct, id, "2024-05-01", float64(i)),
					point(domain.ScopeProduct, id, "2024-05-02", float64(i)),
				}))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 8*25*2, s.Len())
	got, err := s.Latest(ctx, domain.ScopeProduct, domain.StringPtr("P0"), 1000)
	require.NoError(t, err)
	assert.Len(t, got, 4*25*2)
}
