package calendar

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/andresuchdata/vendacerta/backend-go/internal/cache"
	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
	"github.com/andresuchdata/vendacerta/backend-go/internal/metrics"
)

const (
	maxYearSpan        = 50
	maxParallelFetches = 4
	defaultLoadTimeout = 10 * time.Second
)

// Provider resolves holidays per civil year. Results are cached per year in
// process (LRU) and optionally in Redis. Failed lookups are never cached.
type Provider struct {
	source Source
	lru    *cache.YearLRU
	remote cache.HolidayCache
	group  singleflight.Group

	loadTimeout time.Duration
}

func NewProvider(source Source, lru *cache.YearLRU, remote cache.HolidayCache) *Provider {
	if lru == nil {
		lru = cache.NewYearLRU(0, 0)
	}
	if remote == nil {
		remote = cache.NewNoopHolidayCache()
	}
	return &Provider{source: source, lru: lru, remote: remote, loadTimeout: defaultLoadTimeout}
}

// WithLoadTimeout bounds a shared year load, which outlives the request that
// started it.
func (p *Provider) WithLoadTimeout(d time.Duration) *Provider {
	if d > 0 {
		p.loadTimeout = d
	}
	return p
}

// HolidaysFor returns the holiday dates of every year in [fromYear, toYear].
// A year whose lookup fails contributes no dates; the failure is only logged.
func (p *Provider) HolidaysFor(ctx context.Context, fromYear, toYear int) domain.DateSet {
	if fromYear > toYear {
		fromYear, toYear = toYear, fromYear
	}
	if toYear-fromYear >= maxYearSpan {
		fromYear = toYear - maxYearSpan + 1
	}

	results := make([][]domain.Holiday, toYear-fromYear+1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for year := fromYear; year <= toYear; year++ {
		year := year
		g.Go(func() error {
			holidays, err := p.Year(gctx, year)
			if err != nil {
				metrics.CalendarLookups.WithLabelValues("degraded").Inc()
				log.Warn().Err(err).Int("year", year).Msg("holiday lookup failed, continuing without holidays for year")
				return nil
			}
			results[year-fromYear] = holidays
			return nil
		})
	}
	_ = g.Wait()

	set := make(domain.DateSet)
	for _, holidays := range results {
		for _, h := range holidays {
			set.Add(h.Date)
		}
	}
	return set
}

// Year returns the holidays of a single year, consulting the caches first.
func (p *Provider) Year(ctx context.Context, year int) ([]domain.Holiday, error) {
	if holidays, ok := p.lru.Get(year); ok {
		metrics.CalendarLookups.WithLabelValues("lru_hit").Inc()
		return holidays, nil
	}

	// Callers share one load per year, so it must not inherit any single
	// caller's cancellation.
	ch := p.group.DoChan(strconv.Itoa(year), func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.loadTimeout)
		defer cancel()
		return p.load(loadCtx, year)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Holiday), nil
	}
}

// Refresh drops every cached year, in process and in Redis, then reloads
// [fromYear, toYear] from the source. Unlike HolidaysFor it fails on the first
// year the source cannot serve. It returns the number of remote entries dropped.
func (p *Provider) Refresh(ctx context.Context, fromYear, toYear int) (int, error) {
	if fromYear > toYear {
		fromYear, toYear = toYear, fromYear
	}
	if toYear-fromYear >= maxYearSpan {
		return 0, fmt.Errorf("%w: refresh spans more than %d years", domain.ErrInvalidFilter, maxYearSpan)
	}

	purged, err := p.remote.InvalidateAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("invalidate holiday cache: %w", err)
	}
	p.lru.Purge()

	for year := fromYear; year <= toYear; year++ {
		holidays, err := p.Year(ctx, year)
		if err != nil {
			return purged, err
		}
		log.Info().Int("year", year).Int("holidays", len(holidays)).Msg("holidays refreshed")
	}
	return purged, nil
}

func (p *Provider) load(ctx context.Context, year int) ([]domain.Holiday, error) {
	holidays, ok, err := p.remote.GetYear(ctx, year)
	if err != nil {
		log.Warn().Err(err).Int("year", year).Msg("holiday cache read failed")
	}
	if ok {
		metrics.CalendarLookups.WithLabelValues("cache_hit").Inc()
		p.lru.Set(year, holidays)
		return holidays, nil
	}

	holidays, err = p.source.Fetch(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("%w: year %d: %v", domain.ErrCalendarUnavailable, year, err)
	}
	metrics.CalendarLookups.WithLabelValues("fetched").Inc()

	p.lru.Set(year, holidays)
	if err := p.remote.SetYear(ctx, year, holidays); err != nil {
		log.Warn().Err(err).Int("year", year).Msg("holiday cache write failed")
	}
	return holidays, nil
}
