package websearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSearcher struct {
	calls   int
	results []models.SearchSnippet
	err     error
}

func (c *countingSearcher) Search(ctx context.Context, query string) ([]models.SearchSnippet, error) {
	c.calls++
	return c.results, c.err
}

func TestCachedSearcher_ServesRepeatsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := &countingSearcher{results: []models.SearchSnippet{{Title: "t", URL: "u", Snippet: "s"}}}
	cached := NewCachedSearcher(next, rdb, time.Hour, logger.NewTestLogger(t))

	first, err := cached.Search(context.Background(), "query")
	require.NoError(t, err)
	second, err := cached.Search(context.Background(), "query")
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists(CacheKey("query")))
	assert.Equal(t, time.Hour, mr.TTL(CacheKey("query")))
}

func TestCachedSearcher_DoesNotCacheErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := &countingSearcher{err: errors.New("quota exceeded")}
	cached := NewCachedSearcher(next, rdb, time.Hour, logger.NewTestLogger(t))

	_, err := cached.Search(context.Background(), "query")
	require.Error(t, err)
	_, err = cached.Search(context.Background(), "query")
	require.Error(t, err)

	assert.Equal(t, 2, next.calls)
	assert.False(t, mr.Exists(CacheKey("query")))
}

func TestCachedSearcher_RedisFailureFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	key := CacheKey("query")
	mock.ExpectGet(key).SetErr(errors.New("connection reset"))
	mock.Regexp().ExpectSet(key, `.*`, time.Hour).SetErr(errors.New("connection reset"))

	next := &countingSearcher{results: []models.SearchSnippet{{Title: "t"}}}
	cached := NewCachedSearcher(next, rdb, time.Hour, logger.NewTestLogger(t))

	results, err := cached.Search(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
