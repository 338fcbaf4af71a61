package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	imageCachePrefix = "images:"
	imageCacheTTL    = 30 * time.Minute
)

type CachedImage struct {
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// ImageCache maps stored image paths to resolved display URLs with TTL
// eviction. Injected wherever product images are served.
type ImageCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewImageCache(redisClient *redis.Client) *ImageCache {
	return &ImageCache{redis: redisClient, ttl: imageCacheTTL}
}

func (c *ImageCache) Get(ctx context.Context, path string) (*CachedImage, error) {
	data, err := c.redis.Get(ctx, imageCachePrefix+path).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var img CachedImage
	if err := json.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("corrupt image cache entry for %s: %w", path, err)
	}
	return &img, nil
}

func (c *ImageCache) Set(ctx context.Context, path, url string) error {
	data, err := json.Marshal(CachedImage{URL: url, Timestamp: time.Now()})
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, imageCachePrefix+path, data, c.ttl).Err()
}

func (c *ImageCache) Invalidate(ctx context.Context, paths ...string) {
	for _, path := range paths {
		_ = c.redis.Del(ctx, imageCachePrefix+path)
	}
}
