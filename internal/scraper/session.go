package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrSessionExpired means a cached webmail session is no longer valid and
// the caller should re-authenticate.
var ErrSessionExpired = errors.New("webmail session expired")

// SessionCache keeps authenticated webmail sessions in Redis so repeated
// scrape cycles don't log in every time. Cache failures are fail-open: when
// Redis is down we just re-authenticate.
type SessionCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewSessionCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionCache {
	return &SessionCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *SessionCache) key(username string) string {
	return fmt.Sprintf("mailsession:%s", username)
}

// Get returns the cached session for a user, or "" on miss or cache error.
func (c *SessionCache) Get(ctx context.Context, username string) string {
	session, err := c.rdb.Get(ctx, c.key(username)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logger != nil {
			// Redis 挂了？继续走重新登录，不阻塞抓取
			c.logger.Warn("Session cache read failed, falling back to re-auth",
				zap.String("username", username),
				zap.Error(err),
			)
		}
		return ""
	}
	return session
}

// Put stores a fresh session with the configured TTL.
func (c *SessionCache) Put(ctx context.Context, username, session string) {
	if err := c.rdb.Set(ctx, c.key(username), session, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Warn("Session cache write failed",
			zap.String("username", username),
			zap.Error(err),
		)
	}
}

// Drop evicts a session known to be expired.
func (c *SessionCache) Drop(ctx context.Context, username string) {
	if err := c.rdb.Del(ctx, c.key(username)).Err(); err != nil && c.logger != nil {
		c.logger.Warn("Session cache delete failed",
			zap.String("username", username),
			zap.Error(err),
		)
	}
}
