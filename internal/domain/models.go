// backend-go/internal/domain/models.go
package domain

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar-date format used on the wire and in CSV inputs.
const DateLayout = "2006-01-02"

// Product is a catalog entry. Only used to resolve category membership.
type Product struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category" db:"category"`
}

// SaleRecord is a single immutable sale event from the ledger.
type SaleRecord struct {
	ID        int64     `json:"id" db:"id"`
	ProductID string    `json:"product_id" db:"product_id"`
	Date      time.Time `json:"date" db:"date"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Revenue   float64   `json:"revenue" db:"revenue"`
}

// SeriesPoint is the summed quantity sold on one calendar day.
type SeriesPoint struct {
	Date     time.Time `json:"date"`
	Quantity int       `json:"quantity"`
}

// HistoricalSeries is an ordered daily series for a scope. Dates are strictly
// increasing and unique.
type HistoricalSeries struct {
	Scope   Scope         `json:"scope"`
	ScopeID *string       `json:"scope_id"`
	Points  []SeriesPoint `json:"points"`
}

// Len returns the number of distinct dates in the series.
func (s HistoricalSeries) Len() int {
	return len(s.Points)
}

// Empty reports whether the series holds no history.
func (s HistoricalSeries) Empty() bool {
	return len(s.Points) == 0
}

// LastDate returns the most recent date in the series.
func (s HistoricalSeries) LastDate() (time.Time, bool) {
	if len(s.Points) == 0 {
		return time.Time{}, false
	}
	return s.Points[len(s.Points)-1].Date, true
}

// TotalQuantity sums quantity over the whole series.
func (s HistoricalSeries) TotalQuantity() int {
	total := 0
	for _, p := range s.Points {
		total += p.Quantity
	}
	return total
}

// MeanQuantity returns the average daily quantity over the days present.
func (s HistoricalSeries) MeanQuantity() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return float64(s.TotalQuantity()) / float64(len(s.Points))
}

// Holiday is a named calendar event.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
	Type string    `json:"type,omitempty"`
}

// ModelMetadata describes the model configuration that produced a forecast point.
type ModelMetadata struct {
	Model             string  `json:"model"`
	Trend             string  `json:"trend"`
	WeeklySeasonality bool    `json:"weekly_seasonality"`
	YearlySeasonality bool    `json:"yearly_seasonality"`
	HolidayCount      int     `json:"holiday_count"`
	IntervalWidth     float64 `json:"interval_width"`
	TrainingPoints    int     `json:"training_points"`
	BoundsCrossed     bool    `json:"bounds_crossed"`
}

// JSON encodes the metadata for storage in a text/jsonb column.
func (m ModelMetadata) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// ForecastPoint is one predicted day. Points are append-only once saved.
type ForecastPoint struct {
	ID             int64         `json:"id,omitempty"`
	Scope          Scope         `json:"scope"`
	ScopeID        *string       `json:"scope_id"`
	Date           time.Time     `json:"date"`
	PredictedValue float64       `json:"predicted_value"`
	LowerBound     float64       `json:"lower_bound"`
	UpperBound     float64       `json:"upper_bound"`
	ModelMetadata  ModelMetadata `json:"model_metadata"`
	CreatedAt      time.Time     `json:"created_at,omitempty"`
}

// Prediction is the caller-facing projection of a ForecastPoint.
type Prediction struct {
	Date           string  `json:"date"`
	PredictedValue float64 `json:"predicted_value"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
	BoundsCrossed  bool    `json:"bounds_crossed,omitempty"`
}

// ForecastResult is returned to whoever asked for a forecast.
type ForecastResult struct {
	Scope       Scope        `json:"scope"`
	ScopeID     *string      `json:"scope_id"`
	Predictions []Prediction `json:"predictions"`
	Persisted   bool         `json:"persisted"`
}

// NewForecastResult projects forecast points into the response shape.
func NewForecastResult(scope Scope, scopeID *string, points []ForecastPoint) *ForecastResult {
	predictions := make([]Prediction, 0, len(points))
	for _, p := range points {
		predictions = append(predictions, Prediction{
			Date:           p.Date.Format(DateLayout),
			PredictedValue: p.PredictedValue,
			LowerBound:     p.LowerBound,
			UpperBound:     p.UpperBound,
			BoundsCrossed:  p.ModelMetadata.BoundsCrossed,
		})
	}
	return &ForecastResult{
		Scope:       scope,
		ScopeID:     scopeID,
		Predictions: predictions,
	}
}

// RecommendationSource records which computation path produced a recommendation.
type RecommendationSource string

const (
	SourceForecasts      RecommendationSource = "forecasts"
	SourceHistoricalData RecommendationSource = "historical_data"
)

// RecommendationResult is derived on demand and never persisted.
type RecommendationResult struct {
	Scope            Scope                `json:"scope"`
	ScopeID          *string              `json:"scope_id"`
	AveragePredicted float64              `json:"average_predicted"`
	RecommendedStock int                  `json:"recommended_stock"`
	Source           RecommendationSource `json:"source"`
}

// SalesFilter narrows a ledger query. Zero dates are open bounds.
type SalesFilter struct {
	Scope     Scope
	ScopeID   *string
	ProductID string
	Category  string
	StartDate time.Time
	EndDate   time.Time
}

// AggregatePeriod is the calendar bucket used by sales aggregation.
type AggregatePeriod string

const (
	PeriodDaily   AggregatePeriod = "daily"
	PeriodMonthly AggregatePeriod = "monthly"
)

// AggregateRow is one bucket of summed sales.
type AggregateRow struct {
	Bucket        string `json:"-"`
	Date          string `json:"date,omitempty"`
	Month         string `json:"month,omitempty"`
	Category      string `json:"category,omitempty"`
	ProductID     string `json:"product_id,omitempty"`
	TotalQuantity int    `json:"total_quantity"`
}

// StringPtr returns nil for an empty string, otherwise a pointer to a copy.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, treating nil as empty.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TruncateDay drops the time-of-day component and normalises to UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
