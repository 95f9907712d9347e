package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/metrics"
)

const keyPrefix = "vitrin:"

func tenantKey(slug string) string  { return keyPrefix + "tenant:" + slug }
func catalogKey(slug string) string { return keyPrefix + "catalog:" + slug }

// SnapshotCache is a read-through Redis cache in front of a tenant.Source.
// Redis failures fall through to the source.
type SnapshotCache struct {
	source tenant.Source
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache wraps source. ttl bounds how stale a cached record may be.
func NewSnapshotCache(source tenant.Source, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotCache{source: source, rdb: rdb, ttl: ttl, logger: logger}
}

// FetchTenant implements tenant.Source.
func (c *SnapshotCache) FetchTenant(ctx context.Context, slug string) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if c.load(ctx, "tenant", tenantKey(slug), &t) {
		return &t, nil
	}

	fetched, err := c.source.FetchTenant(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tenantKey(slug), fetched)
	return fetched, nil
}

// FetchCatalog implements tenant.Source.
func (c *SnapshotCache) FetchCatalog(ctx context.Context, slug string) (*catalog.Raw, error) {
	var raw catalog.Raw
	if c.load(ctx, "catalog", catalogKey(slug), &raw) {
		return &raw, nil
	}

	fetched, err := c.source.FetchCatalog(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.store(ctx, catalogKey(slug), fetched)
	return fetched, nil
}

// Invalidate drops both cached records of slug.
func (c *SnapshotCache) Invalidate(ctx context.Context, slug string) error {
	if err := c.rdb.Del(ctx, tenantKey(slug), catalogKey(slug)).Err(); err != nil {
		c.logger.Warn("Failed to invalidate snapshot cache", zap.String("slug", slug), zap.Error(err))
		return err
	}
	return nil
}

func (c *SnapshotCache) load(ctx context.Context, kind, key string, dst interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Snapshot cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.RecordCacheLookup(kind, false)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.rdb.Del(ctx, key)
		metrics.RecordCacheLookup(kind, false)
		return false
	}
	metrics.RecordCacheLookup(kind, true)
	return true
}

func (c *SnapshotCache) store(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Snapshot cache write failed", zap.String("key", key), zap.Error(err))
	}
}
