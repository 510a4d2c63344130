// Package cache holds Redis-backed accounting collaborators.
package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clientCountKeyPrefix = "directory:clients:"

// redisCounterCmd is the slice of the Redis client used by the counter,
// narrowed for testability.
type redisCounterCmd interface {
	IncrBy(ctx context.Context, key string, value int64) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisClientCounter keeps a per-tenant running client count in Redis.
// Ingestion reports create/delete deltas after they commit; quota and
// billing read the totals from here instead of counting rows.
type RedisClientCounter struct {
	client    redisCounterCmd
	keyPrefix string
}

// NewRedisClientCounter creates a counter sharing an existing Redis client
func NewRedisClientCounter(client *redis.Client) *RedisClientCounter {
	return newRedisClientCounter(client)
}

func newRedisClientCounter(client redisCounterCmd) *RedisClientCounter {
	return &RedisClientCounter{client: client, keyPrefix: clientCountKeyPrefix}
}

// AddClients applies a client-count delta for a tenant
func (c *RedisClientCounter) AddClients(ctx context.Context, tenantID uuid.UUID, delta int) error {
	if delta == 0 {
		return nil
	}
	key := c.keyPrefix + tenantID.String()
	if err := c.client.IncrBy(ctx, key, int64(delta)).Err(); err != nil {
		return fmt.Errorf("failed to update client count: %w", err)
	}
	return nil
}

// ClientCount returns the tenant's current count. A missing key reads as zero.
func (c *RedisClientCounter) ClientCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	key := c.keyPrefix + tenantID.String()
	count, err := c.client.Get(ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read client count: %w", err)
	}
	return count, nil
}
