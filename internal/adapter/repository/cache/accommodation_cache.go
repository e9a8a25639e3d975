package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/5olen-tripshare/accommodation-api/internal/accommodation/domain"
)

const accommodationCacheTTL = 1 * time.Hour

// AccommodationCache is a Redis read-through cache for fetch-by-id lookups.
type AccommodationCache struct {
	client *redis.Client
}

func NewAccommodationCache(addr string) (*AccommodationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &AccommodationCache{client: client}, nil
}

// GetAccommodation returns the cached record, or nil on a cache miss.
func (c *AccommodationCache) GetAccommodation(ctx context.Context, id string) (*domain.Accommodation, error) {
	data, err := c.client.Get(ctx, "accommodation:"+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var acc domain.Accommodation
	if err := json.Unmarshal(data, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *AccommodationCache) SetAccommodation(ctx context.Context, acc *domain.Accommodation) error {
	data, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "accommodation:"+acc.ID.Hex(), data, accommodationCacheTTL).Err()
}

func (c *AccommodationCache) DeleteAccommodation(ctx context.Context, id string) error {
	return c.client.Del(ctx, "accommodation:"+id).Err()
}
