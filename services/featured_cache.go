package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	featuredKey = "notes:featured"
	FeaturedTTL = 60 * time.Second
)

// FeaturedCache holds the rendered featured-notes payload. Any note mutation
// invalidates it.
type FeaturedCache struct {
	Client redis.UniversalClient
	TTL    time.Duration
}

func NewFeaturedCache(client redis.UniversalClient) *FeaturedCache {
	return &FeaturedCache{Client: client, TTL: FeaturedTTL}
}

// Get decodes the cached payload into dst. The bool is false on a miss.
func (fc *FeaturedCache) Get(ctx context.Context, dst interface{}) (bool, error) {
	data, err := fc.Client.Get(ctx, featuredKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "reading featured cache")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrap(err, "decoding featured cache")
	}
	return true, nil
}

func (fc *FeaturedCache) Set(ctx context.Context, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding featured cache")
	}
	if err := fc.Client.Set(ctx, featuredKey, data, fc.TTL).Err(); err != nil {
		return errors.Wrap(err, "writing featured cache")
	}
	return nil
}

func (fc *FeaturedCache) Invalidate(ctx context.Context) error {
	if err := fc.Client.Del(ctx, featuredKey).Err(); err != nil {
		return errors.Wrap(err, "invalidating featured cache")
	}
	return nil
}
