package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for rating snapshots and notifications.
type Client struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// Config holds Redis connection configuration.
type Config struct {
	URL         string        `yaml:"url"          validate:"omitempty,url"`
	Password    string        `yaml:"password"`
	Prefix      string        `yaml:"prefix"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// WithDefaults fills unset fields.
func (c Config) WithDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = "feedwatch"
	}
	if c.SnapshotTTL == 0 {
		c.SnapshotTTL = 24 * time.Hour
	}
	return c
}

// Enabled reports whether Redis is configured.
func (c Config) Enabled() bool {
	return c.URL != ""
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.WithDefaults()
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, prefix: cfg.Prefix, ttl: cfg.SnapshotTTL}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Key helpers
func (c *Client) ratingsKey() string {
	return fmt.Sprintf("%s:ratings", c.prefix)
}

func (c *Client) notificationsChannel() string {
	return fmt.Sprintf("%s:notifications", c.prefix)
}

func (c *Client) onceKey(name string) string {
	return fmt.Sprintf("%s:once:%s", c.prefix, name)
}

// AcquireOnce reports whether this caller is the first to claim name within ttl.
func (c *Client) AcquireOnce(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, c.onceKey(name), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}
