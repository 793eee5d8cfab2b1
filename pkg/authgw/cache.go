package authgw

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rcrowley/go-metrics"
	"go.od2.network/bearergw/pkg/cachegc"
	"go.od2.network/bearergw/pkg/token"
)

// Cache is a local in-memory caching layer in front of a Backend.
// Only found records are cached. Entries are invalidated through a Pub/Sub mechanism.
type Cache struct {
	Backend Backend
	Cache   *cachegc.Cache

	hits   metrics.Counter
	misses metrics.Counter
}

// NewCache creates a new caching layer that keeps the number of entries specified.
func NewCache(backend Backend, cacheSize int, ttl time.Duration) (*Cache, error) {
	cache, err := cachegc.New(cacheSize, ttl)
	if err != nil {
		return nil, err
	}
	return &Cache{
		Backend: backend,
		Cache:   cache,
		hits:    metrics.GetOrRegisterCounter("authgw_cache_hits", metrics.DefaultRegistry),
		misses:  metrics.GetOrRegisterCounter("authgw_cache_misses", metrics.DefaultRegistry),
	}, nil
}

// LookupToken consults the in-memory cache for a token.
// If the cache is missed, it falls back to LookupSlow.
func (c *Cache) LookupToken(ctx context.Context, tok string) (*TokenInfo, error) {
	if entry, ok := c.Cache.Get(token.Hash(tok)); ok {
		c.hits.Inc(1)
		info := entry.(TokenInfo)
		return &info, nil
	}
	c.misses.Inc(1)
	return c.LookupSlow(ctx, tok)
}

// LookupSlow reads from the underlying backend, writes to the cache and returns.
func (c *Cache) LookupSlow(ctx context.Context, tok string) (*TokenInfo, error) {
	res, err := c.Backend.LookupToken(ctx, tok)
	if err != nil {
		return nil, err
	}
	if res != nil {
		c.Cache.Add(token.Hash(tok), *res)
	}
	return res, nil
}

// Invalidate drops a token from the cache.
func (c *Cache) Invalidate(f token.Fingerprint) bool {
	return c.Cache.Remove(f)
}

// Assert Cache implements Backend.
var _ Backend = (*Cache)(nil)

// CacheInvalidation watches Redis for auth cache invalidations.
type CacheInvalidation struct {
	Cache *Cache
	Redis *redis.Client

	StreamKey string // Redis key
	Backlog   int64  // Number of invalidations to keep

	streamID string // ID of last message
}

// streamField is the stream message field holding the token fingerprint.
const streamField = "fingerprint"

// Run applies cache invalidations from Redis Streams until ctx is cancelled.
func (i *CacheInvalidation) Run(ctx context.Context) error {
	for {
		if err := i.read(ctx); errors.Is(err, context.Canceled) {
			return nil
		} else if err != nil {
			return err
		}
	}
}

func (i *CacheInvalidation) read(ctx context.Context) error {
	if i.streamID == "" {
		i.streamID = "0"
	}
	streams, err := i.Redis.XRead(ctx, &redis.XReadArgs{
		Streams: []string{i.StreamKey, i.streamID},
		Count:   128,
		Block:   time.Second,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	} else if err != nil {
		return err
	}
	if len(streams) < 1 {
		return nil
	}
	for _, msg := range streams[0].Messages {
		i.streamID = msg.ID
		str, ok := msg.Values[streamField].(string)
		if !ok {
			continue
		}
		f, err := token.ParseFingerprint(str)
		if err != nil {
			continue
		}
		i.Cache.Invalidate(f)
	}
	return nil
}

// Add commits another cache invalidation.
func (i *CacheInvalidation) Add(ctx context.Context, f token.Fingerprint) error {
	return i.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream:       i.StreamKey,
		MaxLenApprox: i.Backlog,
		ID:           "*",
		Values:       []string{streamField, f.String()},
	}).Err()
}
