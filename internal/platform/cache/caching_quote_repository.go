// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"eva_exchange/internal/feature/stocks/domain/entity"
	"eva_exchange/internal/feature/stocks/usecase"
)

// DefaultQuoteTTL bounds how long a cached quote may outlive a lost publish.
const DefaultQuoteTTL = 5 * time.Minute

// Observer receives cache outcomes. *metrics.Registry satisfies it.
type Observer interface {
	QuoteCacheHit()
	QuoteCacheMiss()
	QuoteCacheError(op string)
}

// setIfNewer stores "id:rate" only when no entry exists or the stored id is not newer.
// A reader filling from an older snapshot can therefore never overwrite a fresher publish.
var setIfNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local id = tonumber(string.match(cur, '^(%d+):'))
  if id and id > tonumber(ARGV[1]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1] .. ':' .. ARGV[2], 'PX', ARGV[3])
return 1
`)

// CachingQuoteRepository decorates a QuoteReader with a Redis read-through cache
// and doubles as the QuotePublisher fed by committed rate changes.
type CachingQuoteRepository struct {
	inner     usecase.QuoteReader
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	observer  Observer
}

var (
	_ usecase.QuoteReader    = (*CachingQuoteRepository)(nil)
	_ usecase.QuotePublisher = (*CachingQuoteRepository)(nil)
)

// NewCachingQuoteRepository decorates inner with Redis caching.
// A nil rdb disables the cache. If ttl is 0, it defaults to DefaultQuoteTTL.
// If namespace is empty, it uses "quotes".
func NewCachingQuoteRepository(rdb *redis.Client, ttl time.Duration, inner usecase.QuoteReader, namespace string, observer Observer) *CachingQuoteRepository {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	if namespace == "" {
		namespace = "quotes"
	}
	return &CachingQuoteRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		observer:  observer,
	}
}

// LatestQuote returns the cached quote or falls back to the inner reader.
// Redis failures never fail the read.
func (c *CachingQuoteRepository) LatestQuote(ctx context.Context, symbol string) (entity.Quote, error) {
	if c.rdb == nil {
		return c.inner.LatestQuote(ctx, symbol)
	}

	key := c.cacheKey(symbol)
	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if q, ok := decodeQuote(symbol, raw); ok {
			c.hit()
			return q, nil
		}
		slog.Warn("corrupted quote cache entry", "key", key)
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			c.fail("del", key, err)
		}
	case errors.Is(err, redis.Nil):
	default:
		c.fail("get", key, err)
	}
	c.miss()

	q, err := c.inner.LatestQuote(ctx, symbol)
	if err != nil {
		return entity.Quote{}, err
	}
	// Absent rates are not cached so the first publish is visible at once.
	if q.RateLogID != 0 {
		if err := c.store(ctx, key, q); err != nil {
			c.fail("fill", key, err)
		}
	}
	return q, nil
}

// Publish writes a committed quote. If the write fails the entry is dropped
// so readers go back to the database instead of serving a stale rate.
func (c *CachingQuoteRepository) Publish(ctx context.Context, q entity.Quote) {
	if c.rdb == nil || q.RateLogID == 0 {
		return
	}
	key := c.cacheKey(q.Symbol)
	if err := c.store(ctx, key, q); err != nil {
		c.fail("publish", key, err)
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			c.fail("del", key, err)
		}
	}
}

func (c *CachingQuoteRepository) store(ctx context.Context, key string, q entity.Quote) error {
	return setIfNewer.Run(ctx, c.rdb, []string{key},
		strconv.FormatUint(uint64(q.RateLogID), 10),
		q.Rate.String(),
		c.ttl.Milliseconds(),
	).Err()
}

// cacheKey generates a cache key for a symbol.
func (c *CachingQuoteRepository) cacheKey(symbol string) string {
	return fmt.Sprintf("%s:%s", c.namespace, symbol)
}

func (c *CachingQuoteRepository) hit() {
	if c.observer != nil {
		c.observer.QuoteCacheHit()
	}
}

func (c *CachingQuoteRepository) miss() {
	if c.observer != nil {
		c.observer.QuoteCacheMiss()
	}
}

func (c *CachingQuoteRepository) fail(op, key string, err error) {
	slog.Warn("quote cache operation failed", "op", op, "key", key, "error", err)
	if c.observer != nil {
		c.observer.QuoteCacheError(op)
	}
}

// decodeQuote parses an "id:rate" cache value.
func decodeQuote(symbol, raw string) (entity.Quote, bool) {
	idPart, ratePart, ok := strings.Cut(raw, ":")
	if !ok {
		return entity.Quote{}, false
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || id == 0 {
		return entity.Quote{}, false
	}
	rate, err := decimal.NewFromString(ratePart)
	if err != nil {
		return entity.Quote{}, false
	}
	return entity.Quote{Symbol: symbol, Rate: rate, RateLogID: uint(id)}, true
}
