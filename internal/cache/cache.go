package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jamsesh/internal/middleware"
	"jamsesh/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	PostKeyPrefix        = "post:v%d:%d"
	ProfileKeyPrefix     = "profile:%d"
	FeedKeyPrefix        = "feed:v%d:%s"
	FeedVersionKey       = "feed:version"
	TokenBlacklistPrefix = "blacklist:"
)

const (
	PostTTL    = 30 * time.Minute
	ProfileTTL = 5 * time.Minute
	FeedTTL    = 2 * time.Minute
)

// Cache is a thin cache-aside layer over Redis. A Cache built from a nil
// client is valid: reads always miss and writes are no-ops.
type Cache struct {
	rdb *redis.Client
}

// New wraps rdb, which may be nil.
func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Client returns the underlying Redis client, or nil.
func (c *Cache) Client() *redis.Client {
	if c == nil {
		return nil
	}
	return c.rdb
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil
}

// PostKey names a cached post detail. The detail embeds the author's
// username, so it shares the feed generation and a profile change retires it.
func PostKey(version int64, postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, version, postID)
}

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

// FeedKey names one cached feed page. location "" is the unfiltered feed.
// Locations match exactly, so the key keeps their case.
func FeedKey(version int64, location string) string {
	if location == "" {
		location = "*"
	}
	return fmt.Sprintf(FeedKeyPrefix, version, location)
}

// GetJSON loads key into dest. It reports false on a miss.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// SetJSON stores v under key for ttl.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, ttl).Err()
}

// Aside serves key from cache into dest, or runs fetch (which must fill dest)
// and stores the result. Cache failures never fail the call.
func (c *Cache) Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	keyspace := strings.SplitN(key, ":", 2)[0]

	hit, err := c.GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues(keyspace, "error").Inc()
		middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	case hit:
		observability.CacheLookups.WithLabelValues(keyspace, "hit").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues(keyspace, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}
	if err := c.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}

// Invalidate deletes keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidate failed", "keys", keys, "error", err)
	}
}

// FeedVersion returns the current feed generation. Feed keys embed it so a
// single INCR retires every cached page.
func (c *Cache) FeedVersion(ctx context.Context) int64 {
	if !c.Enabled() {
		return 0
	}
	v, err := c.rdb.Get(ctx, FeedVersionKey).Int64()
	if err != nil {
		return 0
	}
	return v
}

// InvalidateFeed retires all cached feed pages.
func (c *Cache) InvalidateFeed(ctx context.Context) {
	if !c.Enabled() {
		return
	}
	if err := c.rdb.Incr(ctx, FeedVersionKey).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "feed invalidate failed", "error", err)
	}
}

// InvalidatePost drops the cached post and every feed page.
func (c *Cache) InvalidatePost(ctx context.Context, postID uint) {
	c.Invalidate(ctx, PostKey(c.FeedVersion(ctx), postID))
	c.InvalidateFeed(ctx)
}

// RevokeToken blacklists a JWT ID until ttl elapses.
func (c *Cache) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if !c.Enabled() {
		return errors.New("token revocation requires redis")
	}
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, TokenBlacklistPrefix+jti, "1", ttl).Err()
}

// IsRevoked reports whether jti was revoked. Lookup failures count as not revoked.
func (c *Cache) IsRevoked(ctx context.Context, jti string) bool {
	if !c.Enabled() || jti == "" {
		return false
	}
	n, err := c.rdb.Exists(ctx, TokenBlacklistPrefix+jti).Result()
	return err == nil && n > 0
}
