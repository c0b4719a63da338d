package websearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"ghostwriter-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "ghostwriter:websearch:"

// Logger is the subset of the application logger used here.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// CachedSearcher serves repeated queries from redis. Only successful results are cached.
type CachedSearcher struct {
	next   Searcher
	redis  redis.Cmdable
	ttl    time.Duration
	logger Logger
}

func NewCachedSearcher(next Searcher, rdb redis.Cmdable, ttl time.Duration, log Logger) *CachedSearcher {
	return &CachedSearcher{next: next, redis: rdb, ttl: ttl, logger: log}
}

func (c *CachedSearcher) Search(ctx context.Context, query string) ([]models.SearchSnippet, error) {
	key := CacheKey(query)

	cached, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var snippets []models.SearchSnippet
		if jsonErr := json.Unmarshal([]byte(cached), &snippets); jsonErr == nil {
			return snippets, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("search cache read failed", map[string]interface{}{"error": err.Error()})
	}

	snippets, err := c.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(snippets); jsonErr == nil {
		if setErr := c.redis.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn("search cache write failed", map[string]interface{}{"error": setErr.Error()})
		}
	}
	return snippets, nil
}

// CacheKey derives the redis key for a query.
func CacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
