//go:build integration

package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/repository/postgres
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := Open(dsn, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db.DB))
	_, err = db.ExecContext(ctx, `TRUNCATE forecasts, sales, products RESTART IDENTITY`)
	require.NoError(t, err)
	return db
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestForecastRepository_SaveLatest(t *testing.T) {
	db := openTestDB(t)
	repo := NewForecastRepository(db)
	ctx := context.Background()

	meta := domain.ModelMetadata{Model: "additive_ridge", IntervalWidth: 0.8}
	require.NoError(t, repo.Save(ctx, []domain.ForecastPoint{
		{Scope: domain.ScopeTotal, Date: day("2024-01-04"), PredictedValue: 8, LowerBound: 6, UpperBound: 10, ModelMetadata: meta},
		{Scope: domain.ScopeTotal, Date: day("2024-01-05"), PredictedValue: 7, LowerBound: 4, UpperBound: 10, ModelMetadata: meta},
	}))
	require.NoError(t, repo.Save(ctx, []domain.ForecastPoint{
		{Scope: domain.ScopeProduct, ScopeID: domain.StringPtr("P1"), Date: day("2024-01-05"), PredictedValue: 1, ModelMetadata: meta},
	}))

	got, err := repo.Latest(ctx, domain.ScopeTotal, nil, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, day("2024-01-05"), got[0].Date)
	assert.Equal(t, day("2024-01-04"), got[1].Date)
	assert.Nil(t, got[0].ScopeID)
	assert.Equal(t, "additive_ridge", got[0].ModelMetadata.Model)

	got, err = repo.Latest(ctx, domain.ScopeProduct, domain.StringPtr("P1"), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P1", *got[0].ScopeID)
}

func TestForecastRepository_AppendOnlyAndConcurrent(t *testing.T) {
	db := openTestDB(t)
	repo := NewForecastRepository(db)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			assert.NoError(t, repo.Save(ctx, []domain.ForecastPoint{
				{Scope: domain.ScopeCategory, ScopeID: domain.StringPtr("Bebidas"), Date: day("2024-02-01"), PredictedValue: v},
			}))
		}(float64(i))
	}
	wg.Wait()

	got, err := repo.Latest(ctx, domain.ScopeCategory, domain.StringPtr("Bebidas"), 100)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestSalesAndProductRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO products (id, name, category) VALUES ('P1','Água','Bebidas'), ('P2','Queijo','Laticínios')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO sales (product_id, date, quantity, revenue) VALUES
		('P1','2024-01-02',3,6.00), ('P2','2024-01-01',5,50.00), ('P1','2024-01-03',1,2.00)`)
	require.NoError(t, err)

	sales := NewSalesRepository(db.DB)
	records, err := sales.History(ctx, domain.SalesFilter{Category: "Bebidas"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, day("2024-01-02"), records[0].Date)
	assert.InDelta(t, 6.0, records[0].Revenue, 1e-9)

	records, err = sales.History(ctx, domain.SalesFilter{StartDate: day("2024-01-02"), EndDate: day("2024-01-02")})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	products := NewProductRepository(db.DB)
	ids, err := products.IDsByCategory(ctx, "Laticínios")
	require.NoError(t, err)
	assert.Equal(t, []string{"P2"}, ids)

	categories, err := products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bebidas", "Laticínios"}, categories)
}
