package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/vendacerta/backend-go/internal/config"
)

const (
	defaultHolidayTTL = 7 * 24 * time.Hour
	redisDialTimeout  = 5 * time.Second
)

// dialRedis connects and pings, so a misconfigured cache fails at startup
// rather than on the first forecast.
func dialRedis(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(orDefault(cfg.RedisHost, "127.0.0.1"), orDefault(cfg.RedisPort, "6379")),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func holidayTTL(cfg config.CacheConfig) time.Duration {
	if cfg.HolidayTTLSeconds <= 0 {
		return defaultHolidayTTL
	}
	return time.Duration(cfg.HolidayTTLSeconds) * time.Second
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// purgeKeys unlinks every key matching pattern one SCAN page at a time and
// returns how many were removed.
func purgeKeys(ctx context.Context, client *redis.Client, pattern string, pageSize int64) (int, error) {
	removed := 0
	page := make([]string, 0, pageSize)

	flush := func() error {
		if len(page) == 0 {
			return nil
		}
		n, err := client.Unlink(ctx, page...).Result()
		if err != nil {
			return fmt.Errorf("redis unlink: %w", err)
		}
		removed += int(n)
		page = page[:0]
		return nil
	}

	iter := client.Scan(ctx, 0, pattern, pageSize).Iterator()
	for iter.Next(ctx) {
		page = append(page, iter.Val())
		if int64(len(page)) >= pageSize {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return removed, err
	}
	return removed, nil
}
