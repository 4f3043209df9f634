// Package kgcache wraps a shared InfoRes rewrite catalog and compiled
// prefix-priority table in Redis so a fleet of concurrent pipeline
// runs mints consistent identifiers.
package kgcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultTTL = 24 * time.Hour

// Client is an optional accelerator: internal/transform falls back to
// an in-memory catalog when no Client is configured.
type Client struct {
	rdb    *redis.Client
	logger *logrus.Logger
	ttl    time.Duration
}

// New connects to redisURL (a redis:// or rediss:// connection string)
// and verifies connectivity before returning.
func New(ctx context.Context, redisURL string, ttl time.Duration, logger *logrus.Logger) (*Client, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("kgcache: redis url missing")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("kgcache: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("kgcache: connect to redis at %s: %w", opts.Addr, err)
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithField("addr", opts.Addr).Debug("kgcache client connected")
	return &Client{rdb: rdb, logger: logger, ttl: ttl}, nil
}

func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		return fmt.Errorf("kgcache: close: %w", err)
	}
	return nil
}

func inforesKey(original string) string { return "kgxchange:infores:" + original }

// LookupInfoRes returns a previously minted infores CURIE for an
// original free-text source name, if any pipeline run has minted one.
func (c *Client) LookupInfoRes(ctx context.Context, original string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, inforesKey(original)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kgcache: lookup infores: %w", err)
	}
	return val, true, nil
}

// StoreInfoRes records original -> minted for other runs to reuse.
func (c *Client) StoreInfoRes(ctx context.Context, original, minted string) error {
	if err := c.rdb.Set(ctx, inforesKey(original), minted, c.ttl).Err(); err != nil {
		return fmt.Errorf("kgcache: store infores: %w", err)
	}
	return nil
}

const prefixPriorityKey = "kgxchange:prefix_priority"

// LoadPrefixPriority fetches the compiled prefix -> rank table, if any
// run has published one.
func (c *Client) LoadPrefixPriority(ctx context.Context) (map[string]int, bool, error) {
	val, err := c.rdb.Get(ctx, prefixPriorityKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kgcache: load prefix priority: %w", err)
	}
	var table map[string]int
	if err := json.Unmarshal([]byte(val), &table); err != nil {
		return nil, false, fmt.Errorf("kgcache: unmarshal prefix priority: %w", err)
	}
	return table, true, nil
}

// StorePrefixPriority publishes a compiled prefix -> rank table for
// other runs to reuse.
func (c *Client) StorePrefixPriority(ctx context.Context, table map[string]int) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("kgcache: marshal prefix priority: %w", err)
	}
	if err := c.rdb.Set(ctx, prefixPriorityKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("kgcache: store prefix priority: %w", err)
	}
	return nil
}
