package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/teamspace/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	identityCachePrefix = "identity:"
	defaultIdentityTTL  = 30 * time.Second
)

// IdentityCache keeps short-lived copies of the user records that role
// resolution reads on every request
type IdentityCache struct {
	client *Client
	ttl    time.Duration
}

// NewIdentityCache creates a new identity cache
func NewIdentityCache(client *Client, ttl time.Duration) *IdentityCache {
	if ttl <= 0 {
		ttl = defaultIdentityTTL
	}
	return &IdentityCache{client: client, ttl: ttl}
}

func identityKey(id uuid.UUID) string {
	return identityCachePrefix + id.String()
}

// Get retrieves a cached user. A miss returns nil, nil.
func (c *IdentityCache) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	data, err := c.client.rdb.Get(ctx, identityKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read identity: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal identity: %w", err)
	}

	return &user, nil
}

// Set caches a user
func (c *IdentityCache) Set(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}

	return c.client.rdb.Set(ctx, identityKey(user.ID), data, c.ttl).Err()
}

// Invalidate removes a cached user
func (c *IdentityCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	return c.client.rdb.Del(ctx, identityKey(id)).Err()
}
