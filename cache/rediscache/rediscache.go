// Package rediscache implements jwks.Cache on Redis, so every process that
// validates tokens for the same identity provider shares one key set.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/tradepost/marketauth/cache/rediscache"

// Cmdable is the subset of go-redis used by Cache.
type Cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

var _ Cmdable = (*redis.Client)(nil)

// Config holds the connection settings used by New.
type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Validate checks that the configuration can produce a client.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("redis address is required")
	}
	if c.DB < 0 {
		return errors.New("redis db cannot be negative")
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return errors.New("redis timeouts cannot be negative")
	}
	return nil
}

// Cache stores JSON documents in Redis with a per-key TTL. Expiry is left
// entirely to Redis.
type Cache struct {
	cmdable Cmdable
	client  *redis.Client
	tracer  trace.Tracer
	dbIndex int
}

// New connects to Redis and verifies connectivity with a ping. The caller
// must Close the cache when done.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rediscache: invalid configuration: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rediscache: failed to connect to %s: %w", cfg.Addr, err)
	}

	c := NewFromClient(client)
	c.client = client
	c.dbIndex = cfg.DB
	return c, nil
}

// NewFromClient wraps an existing client. Closing the returned Cache does
// not close cmdable.
func NewFromClient(cmdable Cmdable) *Cache {
	return &Cache{
		cmdable: cmdable,
		tracer:  otel.Tracer(tracerName),
	}
}

// GetJSON implements jwks.Cache.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	ctx, span := c.startSpan(ctx, "GetJSON", key)

	data, err := c.cmdable.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		finishSpan(span, nil)
		return false, nil
	}
	if err != nil {
		finishSpan(span, err)
		return false, fmt.Errorf("rediscache: get %s: %w", key, err)
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	if err := json.Unmarshal(data, dst); err != nil {
		finishSpan(span, err)
		return false, fmt.Errorf("rediscache: decode %s: %w", key, err)
	}

	finishSpan(span, nil)
	return true, nil
}

// SetJSON implements jwks.Cache.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	ctx, span := c.startSpan(ctx, "SetJSON", key)

	data, err := json.Marshal(value)
	if err != nil {
		finishSpan(span, err)
		return fmt.Errorf("rediscache: encode %s: %w", key, err)
	}

	span.SetAttributes(attribute.Int64("cache.ttl_seconds", int64(ttl/time.Second)))
	err = c.cmdable.Set(ctx, key, data, ttl).Err()
	finishSpan(span, err)
	if err != nil {
		return fmt.Errorf("rediscache: set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.cmdable.Ping(ctx).Err()
}

// Close releases the connection pool opened by New.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Cache) startSpan(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "rediscache."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.Int("db.redis.database_index", c.dbIndex),
		attribute.String("cache.key", key),
	)
	return ctx, span
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
