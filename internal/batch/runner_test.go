package batch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository/memory"
)

type recordingForecaster struct {
	mu   sync.Mutex
	seen []string
	fail map[string]error
}

func (f *recordingForecaster) Forecast(ctx context.Context, scope domain.Scope, scopeID *string, horizon int) (*domain.ForecastResult, error) {
	job := Job{Scope: scope, ScopeID: scopeID}.String()

	f.mu.Lock()
	f.seen = append(f.seen, job)
	f.mu.Unlock()

	if err := f.fail[job]; err != nil {
		return nil, err
	}
	return &domain.ForecastResult{Scope: scope, ScopeID: scopeID, Predictions: make([]domain.Prediction, horizon), Persisted: true}, nil
}

func catalog() *memory.SalesStore {
	s := memory.NewSalesStore()
	s.AddProducts(
		domain.Product{ID: "P1", Category: "Bebidas"},
		domain.Product{ID: "P2", Category: "Bebidas"},
		domain.Product{ID: "P3", Category: "Laticínios"},
	)
	return s
}

func TestRunner_Jobs(t *testing.T) {
	r := NewRunner(&recordingForecaster{}, catalog(), 2)

	jobs, err := r.Jobs(context.Background())
	require.NoError(t, err)

	var names []string
	for _, j := range jobs {
		names = append(names, j.String())
	}
	assert.Equal(t, []string{"total", "category:Bebidas", "category:Laticínios", "product:P1", "product:P2", "product:P3"}, names)
}

func TestRunner_Run(t *testing.T) {
	f := &recordingForecaster{fail: map[string]error{
		"product:P2":          domain.ErrInsufficientData,
		"category:Laticínios": errors.New("db down"),
	}}
	r := NewRunner(f, catalog(), 3)

	summary, err := r.Run(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 4, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 28, summary.Points)
	assert.Len(t, f.seen, 6)
}

func TestRunner_Cancelled(t *testing.T) {
	f := &recordingForecaster{}
	r := NewRunner(f, catalog(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := r.Run(ctx, 7)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 6, summary.Cancelled)
	assert.Empty(t, f.seen)
}

type cancellingForecaster struct {
	cancel context.CancelFunc
	calls  int
}

func (f *cancellingForecaster) Forecast(ctx context.Context, scope domain.Scope, scopeID *string, horizon int) (*domain.ForecastResult, error) {
	f.calls++
	f.cancel()
	return nil, ctx.Err()
}

func TestRunner_CancelledMidRunIsNotFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := &cancellingForecaster{cancel: cancel}
	r := NewRunner(f, catalog(), 1)

	summary, err := r.Run(ctx, 7)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, 6, summary.Total)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Succeeded)
	assert.Equal(t, 6, summary.Cancelled)
}
