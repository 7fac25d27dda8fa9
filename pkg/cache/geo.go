package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type GeoCacheInterface interface {
	Get(ctx context.Context, ip string) (*GeoEntry, error)
	Upsert(ctx context.Context, ip, country string) error
}

type GeoCache struct {
	client *redis.Client
}

// GeoEntry is the cached geo resolution for one IP. At most one entry per
// IP; upserts replace the previous value wholesale.
type GeoEntry struct {
	Country  string    `json:"country"`
	LastSeen time.Time `json:"last_seen"`
}

func NewGeoCache(client *redis.Client) *GeoCache {
	return &GeoCache{client: client}
}

func (c *GeoCache) Get(ctx context.Context, ip string) (*GeoEntry, error) {
	key := "geo:" + ip
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry GeoEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

// Upsert stores the resolution with no TTL. IP-to-country mapping is treated
// as stable, so entries never expire.
func (c *GeoCache) Upsert(ctx context.Context, ip, country string) error {
	key := "geo:" + ip
	data, err := json.Marshal(&GeoEntry{Country: country, LastSeen: time.Now()})
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, 0).Err()
}
