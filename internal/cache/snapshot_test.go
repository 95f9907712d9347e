package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/tenant"
)

type countingSource struct {
	tenantCalls  int
	catalogCalls int
}

func (s *countingSource) FetchTenant(ctx context.Context, slug string) (*tenant.Tenant, error) {
	s.tenantCalls++
	if slug != "cafe-x" {
		return nil, apperr.NotFound("test", "site not found")
	}
	return &tenant.Tenant{
		ID: 1, Slug: slug, Name: "Cafe X", ThemeID: "minimal-cafe",
		Settings:       tenant.DefaultSettings(),
		EnabledPlugins: []string{"menu", "order"},
	}, nil
}

func (s *countingSource) FetchCatalog(ctx context.Context, slug string) (*catalog.Raw, error) {
	s.catalogCalls++
	price := int64(90000)
	return &catalog.Raw{
		Categories: []catalog.RawCategory{{ID: 1, Name: "Coffee"}},
		Products: []catalog.RawProduct{{
			ID: 1, Category: 1, Title: "Latte", Price: &price,
			Tags: []catalog.RawTag{{ID: 2, Name: "hot"}},
		}},
	}, nil
}

func setup(t *testing.T) (*SnapshotCache, *countingSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	src := &countingSource{}
	return NewSnapshotCache(src, rdb, time.Minute, zap.NewNop()), src, mr
}

func TestTenantReadThrough(t *testing.T) {
	c, src, mr := setup(t)
	ctx := context.Background()

	first, err := c.FetchTenant(ctx, "cafe-x")
	require.NoError(t, err)
	second, err := c.FetchTenant(ctx, "cafe-x")
	require.NoError(t, err)

	assert.Equal(t, 1, src.tenantCalls)
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("vitrin:tenant:cafe-x"))
	assert.Equal(t, time.Minute, mr.TTL("vitrin:tenant:cafe-x"))
}

func TestCatalogReadThrough(t *testing.T) {
	c, src, _ := setup(t)
	ctx := context.Background()

	_, err := c.FetchCatalog(ctx, "cafe-x")
	require.NoError(t, err)
	raw, err := c.FetchCatalog(ctx, "cafe-x")
	require.NoError(t, err)

	assert.Equal(t, 1, src.catalogCalls)
	require.Len(t, raw.Products, 1)
	assert.Equal(t, int64(90000), *raw.Products[0].Price)
	assert.Equal(t, "hot", raw.Products[0].Tags[0].Name)
}

func TestNotFoundIsNotCached(t *testing.T) {
	c, src, mr := setup(t)
	ctx := context.Background()

	_, err := c.FetchTenant(ctx, "cafe-missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, _ = c.FetchTenant(ctx, "cafe-missing")

	assert.Equal(t, 2, src.tenantCalls)
	assert.False(t, mr.Exists("vitrin:tenant:cafe-missing"))
}

func TestInvalidate(t *testing.T) {
	c, src, mr := setup(t)
	ctx := context.Background()

	_, _ = c.FetchTenant(ctx, "cafe-x")
	_, _ = c.FetchCatalog(ctx, "cafe-x")
	require.NoError(t, c.Invalidate(ctx, "cafe-x"))

	assert.False(t, mr.Exists("vitrin:tenant:cafe-x"))
	assert.False(t, mr.Exists("vitrin:catalog:cafe-x"))

	_, _ = c.FetchTenant(ctx, "cafe-x")
	assert.Equal(t, 2, src.tenantCalls)
}

func TestRedisDownFallsThrough(t *testing.T) {
	c, src, mr := setup(t)
	mr.Close()

	got, err := c.FetchTenant(context.Background(), "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, "Cafe X", got.Name)
	assert.Equal(t, 1, src.tenantCalls)
}

func TestCorruptEntryIsDropped(t *testing.T) {
	c, src, mr := setup(t)
	require.NoError(t, mr.Set("vitrin:tenant:cafe-x", "{not json"))

	got, err := c.FetchTenant(context.Background(), "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, "cafe-x", got.Slug)
	assert.Equal(t, 1, src.tenantCalls)
}
