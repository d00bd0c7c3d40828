package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/metrics"
	"github.com/andresuchdata/vendacerta/backend-go/pkg/logger"
)

// Source fetches the holidays of one civil year from an upstream service.
type Source interface {
	Fetch(ctx context.Context, year int) ([]domain.Holiday, error)
}

const breakerName = "brasilapi-holidays"

// BrasilAPISource reads national holidays from BrasilAPI
// (GET {base}/api/feriados/v1/{year}).
type BrasilAPISource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]domain.Holiday]
}

type brasilAPIHoliday struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func NewBrasilAPISource(cfg config.CalendarConfig) *BrasilAPISource {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	breakerTimeout := time.Duration(cfg.BreakerTimeout) * time.Second
	if breakerTimeout <= 0 {
		breakerTimeout = time.Minute
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]domain.Holiday](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Log.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BrasilAPISource{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
		cb:      cb,
	}
}

func (s *BrasilAPISource) Fetch(ctx context.Context, year int) ([]domain.Holiday, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("holiday rate limit: %w", err)
	}

	holidays, err := s.cb.Execute(func() ([]domain.Holiday, error) {
		return s.fetch(ctx, year)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return holidays, nil
}

func (s *BrasilAPISource) fetch(ctx context.Context, year int) ([]domain.Holiday, error) {
	url := fmt.Sprintf("%s/api/feriados/v1/%d", s.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch holidays %d: %w", year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch holidays %d: unexpected status %d: %s", year, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw []brasilAPIHoliday
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode holidays %d: %w", year, err)
	}

	holidays := make([]domain.Holiday, 0, len(raw))
	for _, h := range raw {
		date, err := time.Parse(domain.DateLayout, h.Date)
		if err != nil {
			logger.Log.Warn().Str("date", h.Date).Int("year", year).Msg("skipping holiday with malformed date")
			continue
		}
		holidays = append(holidays, domain.Holiday{Date: date, Name: h.Name, Type: h.Type})
	}
	return holidays, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
