// Package cache keeps derived inventory reports in Redis between mutations.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	inventoryValueKey      = "reports:inventory-value"
	inventoryGenerationKey = "reports:inventory-value:generation"
)

// ReportCache is a Redis-backed store for report results.
type ReportCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New creates a new ReportCache. Keys are namespaced by prefix and expire
// after ttl.
func New(client *redis.Client, prefix string, ttl time.Duration) *ReportCache {
	return &ReportCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// GetInventoryValue returns the cached valuation, or nil on a miss.
func (c *ReportCache) GetInventoryValue(ctx context.Context) (*models.InventoryValue, error) {
	var value models.InventoryValue
	found, err := c.get(ctx, inventoryValueKey, &value)
	if err != nil || !found {
		return nil, err
	}
	return &value, nil
}

// InventoryValueGeneration returns the number of invalidations so far.
func (c *ReportCache) InventoryValueGeneration(ctx context.Context) (int64, error) {
	generation, err := c.client.Get(ctx, c.prefix+inventoryGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("cache get error: %w", err)
	}
	return generation, nil
}

// SetInventoryValue caches value for the configured TTL, unless the valuation
// was invalidated after generation was read. A skipped write is not an error.
func (c *ReportCache) SetInventoryValue(ctx context.Context, value models.InventoryValue, generation int64) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	genKey := c.prefix + inventoryGenerationKey
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.prefix+inventoryValueKey, data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// InvalidateInventoryValue drops the cached valuation and advances the
// generation.
func (c *ReportCache) InvalidateInventoryValue(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.prefix+inventoryGenerationKey)
		pipe.Del(ctx, c.prefix+inventoryValueKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}
	return nil
}

func (c *ReportCache) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get error: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return true, nil
}

// Ping checks if the Redis connection is healthy.
func (c *ReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *ReportCache) Close() error {
	return c.client.Close()
}
