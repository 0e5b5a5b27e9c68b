package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/unlock.lua
var unlockScript string

type Client struct {
	rdb    *redis.Client
	unlock *redis.Script
}

// NewClient creates a new Redis client with the unlock script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:    rdb,
		unlock: redis.NewScript(unlockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CacheLookup stores a remote catalog lookup result for a scan code
func (c *Client) CacheLookup(ctx context.Context, scanCode, name string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("lookup:%s", scanCode), name, ttl).Err()
}

// GetCachedLookup retrieves a cached catalog lookup result
func (c *Client) GetCachedLookup(ctx context.Context, scanCode string) (string, bool, error) {
	name, err := c.rdb.Get(ctx, fmt.Sprintf("lookup:%s", scanCode)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// AcquireLock acquires a per-product reconcile lock. The token must be
// presented again to release it.
func (c *Client) AcquireLock(ctx context.Context, lockKey, token string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), token, ttl).Result()
}

// ReleaseLock releases a lock only if it still holds the given token,
// so an expired lock taken over by another holder is never deleted.
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	_, err := c.unlock.Run(ctx, c.rdb, []string{fmt.Sprintf("lock:%s", lockKey)}, token).Result()
	if err != nil {
		return fmt.Errorf("unlock script failed: %w", err)
	}
	return nil
}
