package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

const (
	holidayKeyPrefix     = "calendar:holidays"
	holidayScanBatchSize = 100
)

// HolidayCache stores the holiday list of a civil year.
type HolidayCache interface {
	GetYear(ctx context.Context, year int) ([]domain.Holiday, bool, error)
	SetYear(ctx context.Context, year int, holidays []domain.Holiday) error
	// InvalidateAll drops every cached year and reports how many were removed.
	InvalidateAll(ctx context.Context) (int, error)
}

type redisHolidayCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopHolidayCache struct{}

func NewHolidayCache(cfg config.CacheConfig) (HolidayCache, error) {
	if !cfg.Enabled {
		return &noopHolidayCache{}, nil
	}

	client, err := dialRedis(cfg)
	if err != nil {
		return nil, err
	}

	return NewRedisHolidayCache(client, holidayTTL(cfg)), nil
}

// NewRedisHolidayCache wraps an existing client.
func NewRedisHolidayCache(client *redis.Client, ttl time.Duration) HolidayCache {
	if ttl <= 0 {
		ttl = defaultHolidayTTL
	}
	return &redisHolidayCache{client: client, ttl: ttl}
}

func NewNoopHolidayCache() HolidayCache {
	return &noopHolidayCache{}
}

type cachedHoliday struct {
	Date string `json:"date"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

func (c *redisHolidayCache) GetYear(ctx context.Context, year int) ([]domain.Holiday, bool, error) {
	payload, err := c.client.Get(ctx, holidayKey(year)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var cached []cachedHoliday
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, false, fmt.Errorf("decode holiday cache: %w", err)
	}

	holidays := make([]domain.Holiday, 0, len(cached))
	for _, h := range cached {
		date, err := time.Parse(domain.DateLayout, h.Date)
		if err != nil {
			return nil, false, fmt.Errorf("decode holiday cache date %q: %w", h.Date, err)
		}
		holidays = append(holidays, domain.Holiday{Date: date, Name: h.Name, Type: h.Type})
	}

	return holidays, true, nil
}

func (c *redisHolidayCache) SetYear(ctx context.Context, year int, holidays []domain.Holiday) error {
	cached := make([]cachedHoliday, 0, len(holidays))
	for _, h := range holidays {
		cached = append(cached, cachedHoliday{Date: h.Date.Format(domain.DateLayout), Name: h.Name, Type: h.Type})
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encode holiday cache: %w", err)
	}

	if err := c.client.Set(ctx, holidayKey(year), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisHolidayCache) InvalidateAll(ctx context.Context) (int, error) {
	return purgeKeys(ctx, c.client, holidayKeyPrefix+":*", holidayScanBatchSize)
}

func (n *noopHolidayCache) GetYear(ctx context.Context, year int) ([]domain.Holiday, bool, error) {
	return nil, false, nil
}

func (n *noopHolidayCache) SetYear(ctx context.Context, year int, holidays []domain.Holiday) error {
	return nil
}

func (n *noopHolidayCache) InvalidateAll(ctx context.Context) (int, error) {
	return 0, nil
}

func holidayKey(year int) string {
	return fmt.Sprintf("%s:%d", holidayKeyPrefix, year)
}
