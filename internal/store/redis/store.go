package redis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultCacheTTL is the fallback TTL for cached resolutions.
	// Minutes-scale on purpose: a winning route is only trusted for
	// about one viewing session.
	DefaultCacheTTL = 10 * time.Minute
)

// Store handles Redis operations: the short-TTL resolution cache and the
// channel online/offline status map.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}
