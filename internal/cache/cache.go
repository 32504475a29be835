package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/partiu085-web/internal/backend"
	"github.com/neexbeast/partiu085-web/internal/destination"
)

const (
	defaultTTL       = time.Hour
	defaultStatusTTL = 5 * time.Minute

	destinationsKey = "partiu085:destinos"
	statusKey       = "partiu085:agendador:status"
)

// Cache wraps a Redis client and stores the destination reference list and
// the last scheduler status snapshot as JSON.
type Cache struct {
	client    *redis.Client
	ttl       time.Duration
	statusTTL time.Duration
}

// NewCache constructs a Cache with a 1-hour TTL for destinations and a
// 5-minute TTL for status snapshots.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: defaultTTL, statusTTL: defaultStatusTTL}
}

// GetDestinations returns the cached destination list.
// Returns nil, nil on a cache miss (not an error).
func (c *Cache) GetDestinations(ctx context.Context) ([]destination.Destination, error) {
	var list []destination.Destination
	found, err := c.getJSON(ctx, destinationsKey, &list)
	if err != nil || !found {
		return nil, err
	}
	return list, nil
}

// SetDestinations stores the destination list with the configured TTL.
// An empty list is not stored.
func (c *Cache) SetDestinations(ctx context.Context, list []destination.Destination) error {
	if len(list) == 0 {
		return nil
	}
	return c.setJSON(ctx, destinationsKey, list, c.ttl)
}

// DeleteDestinations drops the cached list so the next load hits the backend.
func (c *Cache) DeleteDestinations(ctx context.Context) error {
	if err := c.client.Del(ctx, destinationsKey).Err(); err != nil {
		return fmt.Errorf("cache delete for %s: %w", destinationsKey, err)
	}
	return nil
}

// GetStatus returns the last stored scheduler status.
// Returns nil, nil on a cache miss.
func (c *Cache) GetStatus(ctx context.Context) (*backend.SchedulerStatus, error) {
	var st backend.SchedulerStatus
	found, err := c.getJSON(ctx, statusKey, &st)
	if err != nil || !found {
		return nil, err
	}
	return &st, nil
}

// SetStatus stores a scheduler status snapshot. Failed polls are not stored
// so a stale good snapshot is preferred over a fresh failure.
func (c *Cache) SetStatus(ctx context.Context, st backend.SchedulerStatus) error {
	if !st.Success {
		return nil
	}
	return c.setJSON(ctx, statusKey, st, c.statusTTL)
}

func (c *Cache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get for %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), dst); err != nil {
		return false, fmt.Errorf("unmarshaling cached %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("cache set for %s: %w", key, err)
	}
	return nil
}
