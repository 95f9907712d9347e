package tenant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/catalog"
)

type fakeSource struct {
	tenants    map[string]*Tenant
	catalogs   map[string]*catalog.Raw
	tenantErr  error
	catalogErr error
	wait       time.Duration
}

func (f *fakeSource) FetchTenant(ctx context.Context, slug string) (*Tenant, error) {
	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.tenantErr != nil {
		return nil, f.tenantErr
	}
	t, ok := f.tenants[slug]
	if !ok {
		return nil, apperr.NotFound("fake.FetchTenant", "site not found")
	}
	return t, nil
}

func (f *fakeSource) FetchCatalog(ctx context.Context, slug string) (*catalog.Raw, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return f.catalogs[slug], nil
}

func int64p(v int64) *int64 { return &v }

func newFakeSource() *fakeSource {
	return &fakeSource{
		tenants: map[string]*Tenant{
			"cafe-x": {ID: 1, Slug: "cafe-x", Name: "Cafe X", ThemeID: "minimal-cafe"},
		},
		catalogs: map[string]*catalog.Raw{
			"cafe-x": {
				Categories: []catalog.RawCategory{{ID: 1, Name: "Coffee"}},
				Products: []catalog.RawProduct{
					{ID: 1, Category: 1, Title: "Latte", Price: int64p(90000)},
					{ID: 2, Category: 1, Title: "Broken"},
				},
			},
		},
	}
}

func TestResolveReady(t *testing.T) {
	r := NewResolver(newFakeSource(), zap.NewNop(), time.Second)

	snap, err := r.Resolve(context.Background(), "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, "Cafe X", snap.Tenant.Name)
	assert.Len(t, snap.Catalog.Products, 1)
	require.Len(t, snap.Anomalies, 1)
	assert.Equal(t, uint(2), snap.Anomalies[0].ID)
}

func TestResolveNotFound(t *testing.T) {
	r := NewResolver(newFakeSource(), zap.NewNop(), 0)

	_, err := r.Resolve(context.Background(), "cafe-missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = r.Resolve(context.Background(), "Not A Slug")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveTenantFailureIsUnavailable(t *testing.T) {
	src := newFakeSource()
	src.tenantErr = errors.New("connection refused")
	r := NewResolver(src, zap.NewNop(), 0)

	_, err := r.Resolve(context.Background(), "cafe-x")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.True(t, appErr.Retryable())
}

func TestResolveTimeoutIsUnavailable(t *testing.T) {
	src := newFakeSource()
	src.wait = time.Second
	r := NewResolver(src, zap.NewNop(), 20*time.Millisecond)

	_, err := r.Resolve(context.Background(), "cafe-x")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestResolveCatalogFailureDegrades(t *testing.T) {
	src := newFakeSource()
	src.catalogErr = errors.New("menu service down")
	r := NewResolver(src, zap.NewNop(), 0)

	snap, err := r.Resolve(context.Background(), "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, StateCatalogUnavailable, snap.State)
	assert.Equal(t, "cafe-x", snap.Tenant.Slug)
	assert.Empty(t, snap.Catalog.Products)
}
