package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/andresuchdata/vendacerta/backend-go/internal/domain"
)

const defaultYearLRUSize = 64

// YearLRU is a size-bounded, TTL-expiring in-process cache of holidays per year.
// Safe for concurrent use.
type YearLRU struct {
	lru *expirable.LRU[int, []domain.Holiday]
}

// NewYearLRU creates the cache. A ttl of zero disables expiry.
func NewYearLRU(size int, ttl time.Duration) *YearLRU {
	if size <= 0 {
		size = defaultYearLRUSize
	}
	return &YearLRU{lru: expirable.NewLRU[int, []domain.Holiday](size, nil, ttl)}
}

// Get returns the holidays for year if present and not expired.
func (c *YearLRU) Get(year int) ([]domain.Holiday, bool) {
	return c.lru.Get(year)
}

// Set stores a copy of holidays for year.
func (c *YearLRU) Set(year int, holidays []domain.Holiday) {
	c.lru.Add(year, append([]domain.Holiday(nil), holidays...))
}

// Len returns the number of cached years.
func (c *YearLRU) Len() int {
	return c.lru.Len()
}

// Purge drops every cached year.
func (c *YearLRU) Purge() {
	c.lru.Purge()
}
