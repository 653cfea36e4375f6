package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ReconciledCache implements ports.ReconciledCache. It holds the serialized
// payment for correlation tokens that are already PAID so repeated webhook
// deliveries skip the database.
type ReconciledCache struct {
	client goredis.UniversalClient
	prefix string
}

// NewReconciledCache creates a Redis-backed cache of reconciled payments.
func NewReconciledCache(client goredis.UniversalClient) *ReconciledCache {
	return &ReconciledCache{
		client: client,
		prefix: "reconciled:",
	}
}

// Get returns the cached payment JSON, or nil, nil on a miss.
func (c *ReconciledCache) Get(ctx context.Context, token string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+token).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis reconciled get: %w", err)
	}
	return val, nil
}

// Set stores the payment JSON under token for ttl.
func (c *ReconciledCache) Set(ctx context.Context, token string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+token, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis reconciled set: %w", err)
	}
	return nil
}
