package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/metrics"
	"github.com/andresuchdata/vendacerta/backend-go/internal/repository"
)

// Forecaster runs and persists one scope's forecast.
type Forecaster interface {
	Forecast(ctx context.Context, scope domain.Scope, scopeID *string, horizon int) (*domain.ForecastResult, error)
}

// Job is one scope to refresh.
type Job struct {
	Scope   domain.Scope
	ScopeID *string
}

func (j Job) String() string {
	if j.ScopeID == nil {
		return string(j.Scope)
	}
	return fmt.Sprintf("%s:%s", j.Scope, *j.ScopeID)
}

// Summary counts job outcomes. Skipped jobs had too little history to fit;
// cancelled jobs were cut short or never started because ctx ended.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Cancelled int           `json:"cancelled"`
	Points    int           `json:"points"`
	Duration  time.Duration `json:"duration"`
}

// Runner refreshes forecasts for every scope using a fixed pool of workers.
type Runner struct {
	forecaster Forecaster
	products   repository.ProductRepository
	workers    int
}

func NewRunner(forecaster Forecaster, products repository.ProductRepository, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{forecaster: forecaster, products: products, workers: workers}
}

// Jobs lists the total scope, then every category, then every product.
func (r *Runner) Jobs(ctx context.Context) ([]Job, error) {
	categories, err := r.products.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	products, err := r.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	jobs := make([]Job, 0, 1+len(categories)+len(products))
	jobs = append(jobs, Job{Scope: domain.ScopeTotal})
	for _, c := range categories {
		jobs = append(jobs, Job{Scope: domain.ScopeCategory, ScopeID: domain.StringPtr(c)})
	}
	for _, p := range products {
		jobs = append(jobs, Job{Scope: domain.ScopeProduct, ScopeID: domain.StringPtr(p.ID)})
	}
	return jobs, nil
}

// Run forecasts every job. Individual job failures are counted, not returned;
// an error is returned only when the job list cannot be built or ctx ends.
func (r *Runner) Run(ctx context.Context, horizon int) (Summary, error) {
	start := time.Now()

	jobs, err := r.Jobs(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := r.process(ctx, jobs, horizon)
	summary.Duration = time.Since(start)

	log.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("cancelled", summary.Cancelled).
		Int("points", summary.Points).
		Dur("duration", summary.Duration).
		Msg("batch forecast completed")

	return summary, ctx.Err()
}

func (r *Runner) process(ctx context.Context, jobs []Job, horizon int) Summary {
	jobChan := make(chan Job, len(jobs))
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		summary = Summary{Total: len(jobs)}
	)

	// Start workers
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for job := range jobChan {
				points, outcome := r.runJob(ctx, workerID, job, horizon)

				mu.Lock()
				switch outcome {
				case "ok":
					summary.Succeeded++
					summary.Points += points
				case "skipped":
					summary.Skipped++
				case "cancelled":
					summary.Cancelled++
				default:
					summary.Failed++
				}
				mu.Unlock()
				metrics.BatchJobs.WithLabelValues(outcome).Inc()
			}
		}(i)
	}

	// Enqueue jobs
enqueue:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break enqueue
		case jobChan <- job:
		}
	}
	close(jobChan)

	wg.Wait()

	// Jobs left in the queue when ctx ended never reached a worker.
	summary.Cancelled = summary.Total - summary.Succeeded - summary.Skipped - summary.Failed
	return summary
}

func (r *Runner) runJob(ctx context.Context, workerID int, job Job, horizon int) (int, string) {
	if ctx.Err() != nil {
		return 0, "cancelled"
	}

	result, err := r.forecaster.Forecast(ctx, job.Scope, job.ScopeID, horizon)
	switch {
	case err == nil:
		return len(result.Predictions), "ok"
	case ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		return 0, "cancelled"
	case errors.Is(err, domain.ErrInsufficientData):
		log.Debug().Int("worker", workerID).Str("job", job.String()).Msg("skipping scope with insufficient history")
		return 0, "skipped"
	default:
		log.Warn().Err(err).Int("worker", workerID).Str("job", job.String()).Msg("batch forecast failed")
		return 0, "failed"
	}
}
