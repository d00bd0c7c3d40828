package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		label string
		want  Scope
		ok    bool
	}{
		{"total", ScopeTotal, true},
		{" Category ", ScopeCategory, true},
		{"PRODUCT", ScopeProduct, true},
		{"region", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ParseScope(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateScope(t *testing.T) {
	id, err := ValidateScope(ScopeTotal, StringPtr("ignored"))
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = ValidateScope(ScopeCategory, StringPtr("  Bebidas "))
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "Bebidas", *id)

	_, err = ValidateScope(ScopeProduct, nil)
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = ValidateScope(ScopeProduct, StringPtr("   "))
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = ValidateScope(Scope("region"), StringPtr("x"))
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestHistoricalSeriesHelpers(t *testing.T) {
	var empty HistoricalSeries
	assert.True(t, empty.Empty())
	_, ok := empty.LastDate()
	assert.False(t, ok)
	assert.Zero(t, empty.MeanQuantity())

	s := HistoricalSeries{Points: []SeriesPoint{
		{Date: mustDate(t, "2024-01-01"), Quantity: 10},
		{Date: mustDate(t, "2024-01-03"), Quantity: 20},
	}}
	last, ok := s.LastDate()
	require.True(t, ok)
	assert.Equal(t, mustDate(t, "2024-01-03"), last)
	assert.Equal(t, 30, s.TotalQuantity())
	assert.InDelta(t, 15.0, s.MeanQuantity(), 1e-9)
}

func TestNewForecastResult(t *testing.T) {
	points := []ForecastPoint{
		{Date: mustDate(t, "2024-02-01"), PredictedValue: 5, LowerBound: 4, UpperBound: 6},
		{Date: mustDate(t, "2024-02-02"), PredictedValue: 7, LowerBound: 7.5, UpperBound: 6.5, ModelMetadata: ModelMetadata{BoundsCrossed: true}},
	}
	res := NewForecastResult(ScopeTotal, nil, points)

	require.Len(t, res.Predictions, 2)
	assert.Equal(t, "2024-02-01", res.Predictions[0].Date)
	assert.False(t, res.Predictions[0].BoundsCrossed)
	assert.True(t, res.Predictions[1].BoundsCrossed)
	assert.False(t, res.Persisted)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	require.NoError(t, err)
	return d
}
