package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"streamsalvage/internal/domain"
)

// CacheResolution stores a url -> resolution memo with the given TTL.
func (s *Store) CacheResolution(ctx context.Context, url string, result *domain.ResolutionResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal resolution: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if err := s.client.Set(ctx, ResolutionKey(url), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache resolution: %w", err)
	}
	return nil
}

// GetCachedResolution retrieves a cached resolution. A miss (or an entry
// past its TTL) returns (nil, nil).
func (s *Store) GetCachedResolution(ctx context.Context, url string) (*domain.ResolutionResult, error) {
	data, err := s.client.Get(ctx, ResolutionKey(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // cache miss
		}
		return nil, fmt.Errorf("failed to get cached resolution: %w", err)
	}

	var result domain.ResolutionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached resolution: %w", err)
	}
	return &result, nil
}

// InvalidateResolution removes a cached resolution.
func (s *Store) InvalidateResolution(ctx context.Context, url string) error {
	if err := s.client.Del(ctx, ResolutionKey(url)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached resolution: %w", err)
	}
	return nil
}

// FlushResolutions removes all cached resolutions.
func (s *Store) FlushResolutions(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixResolution+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush resolution cache: %w", err)
	}
	return nil
}
