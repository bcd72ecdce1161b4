package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"AlgoSentinel/internal/model"
)

// RedisConfig configures the series cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// CachedFetcher stores fetched series in Redis under a key derived from the
// symbol and date range. Cache failures never fail a fetch.
type CachedFetcher struct {
	next   Fetcher
	client *goredis.Client
	ttl    time.Duration
}

// NewCachedFetcher connects to Redis and pings the server.
func NewCachedFetcher(next Fetcher, cfg RedisConfig) (*CachedFetcher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	log.Info().Str("addr", cfg.Addr).Dur("ttl", ttl).Msg("price cache connected")
	return &CachedFetcher{next: next, client: client, ttl: ttl}, nil
}

func (c *CachedFetcher) Name() string { return "cache(" + c.next.Name() + ")" }

func cacheKey(symbol string, start, end time.Time) string {
	return fmt.Sprintf("algosentinel:series:%s:%s:%s", symbol, start.Format("20060102"), end.Format("20060102"))
}

func (c *CachedFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) (*model.PriceSeries, error) {
	key := cacheKey(symbol, start, end)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var series model.PriceSeries
		if err := json.Unmarshal(data, &series); err == nil {
			log.Debug().Str("symbol", symbol).Msg("price cache hit")
			return &series, nil
		}
		log.Warn().Str("symbol", symbol).Err(err).Msg("corrupt cache entry, refetching")
	case !errors.Is(err, goredis.Nil):
		log.Warn().Str("symbol", symbol).Err(err).Msg("price cache read failed")
	}

	series, err := c.next.FetchDaily(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(series); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			log.Warn().Str("symbol", symbol).Err(err).Msg("price cache write failed")
		}
	}
	return series, nil
}

// Close releases the Redis connection.
func (c *CachedFetcher) Close() error {
	return c.client.Close()
}
