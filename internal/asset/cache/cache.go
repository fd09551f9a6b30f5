// Package cache keeps public serial verification results in Redis.
//
// Entries are written on read and invalidated by the asset and deal services
// after every committed status or ownership change. Redis failures degrade to
// a direct load; they never fail a verification.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	keyPrefix  = "provenance:verify:"
	defaultTTL = 5 * time.Minute
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "provenance_verification_cache_lookups_total",
	Help: "Serial verification cache lookups by result",
}, []string{"result"})

// Verification is the public view of a serial number.
type Verification struct {
	Name     string `json:"name"`
	Serial   string `json:"serial"`
	Brand    string `json:"brand"`
	Category string `json:"category"`
	Status   string `json:"status"`
	CanSell  bool   `json:"can_sell"`
}

// Loader computes a verification from the system of record.
type Loader func(ctx context.Context) (*Verification, error)

// Cache is a read-through verification cache. A nil *Cache always loads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{client: client, ttl: defaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached verification for serial or calls load. Concurrent
// misses for one serial share a single load. Load errors are not cached.
func (c *Cache) Get(ctx context.Context, serial string, load Loader) (*Verification, error) {
	if c == nil || c.client == nil {
		return load(ctx)
	}

	key := keyPrefix + serial
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v Verification
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			lookups.WithLabelValues("hit").Inc()
			return &v, nil
		}
		c.logger.WarnContext(ctx, "discarding corrupt verification cache entry", "serial", serial)
	case errors.Is(err, redis.Nil):
	default:
		lookups.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "verification cache read failed", "error", err)
		return load(ctx)
	}
	lookups.WithLabelValues("miss").Inc()

	result, err, _ := c.group.Do(serial, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(v); err == nil {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.WarnContext(ctx, "verification cache write failed", "error", err)
			}
		}
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Verification), nil
}

// Invalidate drops the entries for serials.
func (c *Cache) Invalidate(ctx context.Context, serials ...string) {
	if c == nil || c.client == nil || len(serials) == 0 {
		return
	}
	keys := make([]string, len(serials))
	for i, serial := range serials {
		keys[i] = keyPrefix + serial
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "verification cache invalidation failed",
			"serials", serials,
			"error", err,
		)
	}
}
