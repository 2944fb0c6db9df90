// Package hitcache caches search hits in a key-value store.
package hitcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/seqclass/internal/db"
	"github.com/kailas-cloud/seqclass/internal/domain/database"
	"github.com/kailas-cloud/seqclass/internal/domain/hit"
	"github.com/kailas-cloud/seqclass/internal/domain/sequence"
)

// DefaultKeyPrefix namespaces cache keys.
const DefaultKeyPrefix = "seqclass:"

// schemaVersion is bumped when the encoded entry layout changes.
const schemaVersion = 1

// searcher is the decorated search backend.
type searcher interface {
	Search(ctx context.Context, q sequence.Record, db database.Database) ([]hit.Hit, error)
	Fingerprint(db database.Database) string
}

// store is the consumer interface for the hit cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
}

// Config holds cache settings.
type Config struct {
	KeyPrefix string
	TTL       time.Duration
}

// CachedSearcher returns cached hits for sequences already searched with
// identical settings. Cache failures degrade to a direct search.
type CachedSearcher struct {
	inner      searcher
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(inner searcher, s store, cfg Config, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *CachedSearcher {
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSearcher{
		inner:      inner,
		store:      s,
		prefix:     prefix,
		ttl:        cfg.TTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Fingerprint delegates to the wrapped searcher.
func (c *CachedSearcher) Fingerprint(d database.Database) string {
	return c.inner.Fingerprint(d)
}

// Search returns cached hits or runs the inner search and caches its result.
// Empty results are cached too.
func (c *CachedSearcher) Search(ctx context.Context, q sequence.Record, d database.Database) ([]hit.Hit, error) {
	key := c.cacheKey(q, d)

	if hits, ok := c.getFromCache(ctx, key, d.Name); ok {
		c.incCache("hit")
		return hits, nil
	}
	c.incCache("miss")

	hits, err := c.inner.Search(ctx, q, d)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", d.Name, err)
	}

	c.putToCache(ctx, key, hits)
	return hits, nil
}

// Purge deletes every cached entry for the named database and returns the count.
func (c *CachedSearcher) Purge(ctx context.Context, dbName string) (int, error) {
	if dbName == "" || strings.ContainsAny(dbName, database.ReservedNameChars) {
		return 0, fmt.Errorf("purge: invalid database name %q", dbName)
	}
	keys, err := c.store.Scan(ctx, c.dbPrefix(dbName)+"*")
	if err != nil {
		return 0, fmt.Errorf("scan cache: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		return 0, fmt.Errorf("delete cache entries: %w", err)
	}
	c.logger.Info("Purged cached hits", zap.String("database", dbName), zap.Int("keys", len(keys)))
	return len(keys), nil
}

func (c *CachedSearcher) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedSearcher) dbPrefix(dbName string) string {
	return c.prefix + "hits:" + dbName + ":"
}

func (c *CachedSearcher) cacheKey(q sequence.Record, d database.Database) string {
	h := sha256.New()
	h.Write([]byte(c.inner.Fingerprint(d)))
	h.Write([]byte{'|'})
	h.Write(q.Seq)
	return c.dbPrefix(d.Name) + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedSearcher) getFromCache(ctx context.Context, key, dbName string) ([]hit.Hit, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached hits", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	hits, err := decode(data, dbName)
	if err != nil {
		c.logger.Warn("Failed to parse cached hits", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return hits, true
}

func (c *CachedSearcher) putToCache(ctx context.Context, key string, hits []hit.Hit) {
	data, err := encode(hits)
	if err != nil {
		c.logger.Warn("Failed to encode hits", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache hits", zap.String("key", key), zap.Error(err))
	}
}
