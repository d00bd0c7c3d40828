package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendacerta_http_requests_total",
			Help: "HTTP requests handled, by route and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendacerta_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// ForecastRuns counts forecast invocations by scope and outcome.
	ForecastRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendacerta_forecast_runs_total",
			Help: "Forecast runs by scope and outcome (ok, insufficient_data, timeout, persist_error, error)",
		},
		[]string{"scope", "outcome"},
	)

	ForecastFitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vendacerta_forecast_fit_duration_seconds",
			Help:    "Time spent fitting and predicting a forecast model",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"scope"},
	)

	ForecastPointsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vendacerta_forecast_points_saved_total",
			Help: "Forecast points appended to the store",
		},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendacerta_recommendations_total",
			Help: "Stock recommendations by source",
		},
		[]string{"source"},
	)

	// CalendarLookups counts holiday lookups per year by where they were served from.
	CalendarLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendacerta_calendar_lookups_total",
			Help: "Holiday year lookups by result (lru_hit, cache_hit, fetched, degraded)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vendacerta_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendacerta_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	BatchJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendacerta_batch_jobs_total",
			Help: "Batch forecast jobs by outcome",
		},
		[]string{"outcome"},
	)

	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vendacerta_ingest_rows_total",
			Help: "Rows processed by the CSV importer, by table and result",
		},
		[]string{"table", "result"},
	)
)
