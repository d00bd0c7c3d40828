package calendar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) *BrasilAPISource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBrasilAPISource(config.CalendarConfig{
		BaseURL:        srv.URL + "/",
		TimeoutMS:      500,
		BreakerTimeout: 60,
	})
}

func TestBrasilAPISource_Fetch(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/feriados/v1/2024", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2024-01-01","name":"Confraternização mundial","type":"national"},
			{"date":"2024-02-13","name":"Carnaval","type":"national"},
			{"date":"bogus","name":"Broken","type":"national"}
		]`))
	})

	holidays, err := src.Fetch(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), holidays[0].Date)
	assert.Equal(t, "Carnaval", holidays[1].Name)
	assert.Equal(t, "national", holidays[1].Type)
}

func TestBrasilAPISource_UpstreamError(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "year out of range", http.StatusNotFound)
	})

	_, err := src.Fetch(context.Background(), 1800)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestBrasilAPISource_Timeout(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})

	start := time.Now()
	_, err := src.Fetch(context.Background(), 2024)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestBrasilAPISource_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 8; i++ {
		_, err := src.Fetch(context.Background(), 2024)
		require.Error(t, err)
	}
	assert.Equal(t, int32(5), calls.Load())
}
