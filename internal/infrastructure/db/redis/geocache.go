package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const geocodeTTL = 7 * 24 * time.Hour

// GeocodeCache caches reverse-geocoded addresses in Redis, keyed by
// coordinates rounded to four decimals (~11 m), so nearby report submissions
// reuse one lookup instead of hammering the external service.
// Key format: geo:<lat>:<lng>
type GeocodeCache struct {
	client *redis.Client
}

// NewGeocodeCache creates a GeocodeCache wrapping the given Redis client.
func NewGeocodeCache(client *redis.Client) *GeocodeCache {
	return &GeocodeCache{client: client}
}

// Get returns the cached address for the coordinates, if any.
func (c *GeocodeCache) Get(ctx context.Context, lat, lng float64) (string, bool, error) {
	address, err := c.client.Get(ctx, c.key(lat, lng)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("geocode cache get: %w", err)
	}
	return address, true, nil
}

// Set stores the resolved address (expires after geocodeTTL).
func (c *GeocodeCache) Set(ctx context.Context, lat, lng float64, address string) error {
	return c.client.Set(ctx, c.key(lat, lng), address, geocodeTTL).Err()
}

func (c *GeocodeCache) key(lat, lng float64) string {
	return fmt.Sprintf("geo:%.4f:%.4f", lat, lng)
}
