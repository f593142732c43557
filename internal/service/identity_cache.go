package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const identityCachePrefix = "identity:"

// Identity is the authenticated caller as resolved from a bearer token
type Identity struct {
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	RoleID   int       `json:"role_id"`
	TokenID  string    `json:"token_id"`
	CachedAt time.Time `json:"cached_at"`
}

// IdentityCache remembers resolved identities per token for a bounded time
type IdentityCache interface {
	Get(ctx context.Context, token string) (*Identity, bool)
	Set(ctx context.Context, token string, identity *Identity, expiresAt time.Time)
	Delete(ctx context.Context, token string)
}

type redisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
	now    func() time.Time
}

func NewRedisIdentityCache(client *redis.Client, ttl time.Duration, log *logrus.Logger) IdentityCache {
	return &redisIdentityCache{
		client: client,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// identityKey hashes the token so raw credentials never land in Redis
func identityKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return identityCachePrefix + hex.EncodeToString(sum[:])
}

func (c *redisIdentityCache) Get(ctx context.Context, token string) (*Identity, bool) {
	raw, err := c.client.Get(ctx, identityKey(token)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnf("Failed to read identity cache: %+v", err)
		}
		return nil, false
	}

	var identity Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		c.log.Warnf("Failed to decode cached identity: %+v", err)
		return nil, false
	}
	if c.now().Sub(identity.CachedAt) > c.ttl {
		return nil, false
	}
	return &identity, true
}

// Set stores identity until the cache TTL or the token expiry, whichever comes first
func (c *redisIdentityCache) Set(ctx context.Context, token string, identity *Identity, expiresAt time.Time) {
	now := c.now()
	ttl := c.entryTTL(now, expiresAt)
	if ttl <= 0 {
		return
	}

	entry := *identity
	entry.CachedAt = now
	raw, err := json.Marshal(entry)
	if err != nil {
		c.log.Warnf("Failed to encode identity: %+v", err)
		return
	}
	if err := c.client.Set(ctx, identityKey(token), raw, ttl).Err(); err != nil {
		c.log.Warnf("Failed to write identity cache: %+v", err)
	}
}

func (c *redisIdentityCache) entryTTL(now, expiresAt time.Time) time.Duration {
	if remaining := expiresAt.Sub(now); remaining < c.ttl {
		return remaining
	}
	return c.ttl
}

func (c *redisIdentityCache) Delete(ctx context.Context, token string) {
	if err := c.client.Del(ctx, identityKey(token)).Err(); err != nil {
		c.log.Warnf("Failed to evict identity cache: %+v", err)
	}
}
