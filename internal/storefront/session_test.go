package storefront

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/pricing"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/internal/theme"
)

func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }

type fakeResolver struct {
	mu      sync.Mutex
	tenants map[string]*tenant.Tenant
	raw     *catalog.Raw
	calls   map[string]int
	block   chan struct{}
}

func (f *fakeResolver) Resolve(ctx context.Context, slug string) (*tenant.Snapshot, error) {
	f.mu.Lock()
	f.calls[slug]++
	t, ok := f.tenants[slug]
	block := f.block
	f.mu.Unlock()

	if block != nil && slug == "slow-cafe" {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, apperr.NotFound("fake.Resolve", "site not found")
	}
	cat, _ := catalog.Normalize(f.raw)
	return &tenant.Snapshot{Tenant: t.Clone(), Catalog: cat, State: tenant.StateReady}, nil
}

func (f *fakeResolver) setPlugins(slug string, plugins ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants[slug].EnabledPlugins = plugins
}

func (f *fakeResolver) callsFor(slug string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[slug]
}

func newFakeResolver() *fakeResolver {
	settings := tenant.DefaultSettings()
	return &fakeResolver{
		calls: map[string]int{},
		tenants: map[string]*tenant.Tenant{
			"cafe-x":    {ID: 1, Slug: "cafe-x", Name: "Cafe X", ThemeID: theme.ModernRestaurant, Settings: settings, EnabledPlugins: []string{"menu", "shopping_cart"}},
			"cafe-y":    {ID: 2, Slug: "cafe-y", Name: "Cafe Y", ThemeID: theme.ModernRestaurant, Settings: settings, EnabledPlugins: []string{"menu", "shopping_cart"}},
			"slow-cafe": {ID: 3, Slug: "slow-cafe", Name: "Slow", ThemeID: theme.ModernRestaurant, Settings: settings, EnabledPlugins: []string{"menu"}},
		},
		raw: &catalog.Raw{
			Categories: []catalog.RawCategory{
				{ID: 1, Name: "Coffee", Order: 1},
				{ID: 2, Name: "Hidden", Order: 2, IsActive: boolp(false)},
			},
			Products: []catalog.RawProduct{
				{ID: 10, Category: 1, Title: "Latte", Price: int64p(100000), DiscountPercentage: 20},
				{ID: 11, Category: 1, Title: "Mocha", Price: int64p(60000), IsAvailable: boolp(false)},
				{ID: 12, Category: 2, Title: "Secret", Price: int64p(50000)},
			},
		},
	}
}

type fakeGateway struct {
	result cart.Result
	err    error
	orders []cart.Order
}

func (g *fakeGateway) Submit(_ context.Context, order cart.Order) (cart.Result, error) {
	g.orders = append(g.orders, order)
	return g.result, g.err
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestEngine(t *testing.T, res *fakeResolver, gw cart.Gateway) (*Engine, *clock) {
	t.Helper()
	themes := theme.NewResolver(zap.NewNop())
	e := NewEngine(Options{
		Resolver: res,
		Registry: capability.NewRegistry(themes),
		Themes:   themes,
		Pages:    theme.NewBuilder(pricing.NewEngine(zap.NewNop(), "en")),
		Gateway:  gw,
		Logger:   zap.NewNop(),
	})
	c := &clock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	e.now = c.Now
	return e, c
}

func TestEnterReusesFreshSnapshot(t *testing.T) {
	res := newFakeResolver()
	e, c := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)
	ctx := context.Background()

	_, err := s.Enter(ctx, "cafe-x")
	require.NoError(t, err)
	_, err = s.Enter(ctx, "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, 1, res.callsFor("cafe-x"))

	c.Advance(DefaultSnapshotMaxAge + time.Second)
	_, err = s.Enter(ctx, "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, 2, res.callsFor("cafe-x"))
}

func TestTenantSwitchClearsCart(t *testing.T) {
	res := newFakeResolver()
	e, _ := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)
	ctx := context.Background()

	state, err := s.AddItem(ctx, "cafe-x", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Count)
	assert.Equal(t, int64(80000), state.Total)

	page, _, err := s.Page(ctx, "cafe-y", catalog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Cart.Count)

	got, err := s.Cart()
	require.NoError(t, err)
	assert.Equal(t, "cafe-y", got.Tenant)
	assert.Empty(t, got.Items)
}

func TestCapabilityRefreshKeepsItems(t *testing.T) {
	res := newFakeResolver()
	e, c := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "cafe-x", 10)
	require.NoError(t, err)

	res.setPlugins("cafe-x", "menu")
	c.Advance(DefaultSnapshotMaxAge + time.Second)

	_, err = s.AddItem(ctx, "cafe-x", 10)
	assert.ErrorIs(t, err, cart.ErrDisabled)

	state, err := s.Cart()
	require.NoError(t, err)
	assert.False(t, state.Enabled)
	assert.Equal(t, 1, state.Count)

	state, err = s.RemoveItem(ctx, "cafe-x", 10)
	require.NoError(t, err)
	assert.Equal(t, cart.Empty.String(), state.State)
}

func TestAddItemRejectsNonPublicProducts(t *testing.T) {
	res := newFakeResolver()
	e, _ := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "cafe-x", 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.AddItem(ctx, "cafe-x", 12)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "product of an inactive category")

	_, err = s.AddItem(ctx, "cafe-x", 11)
	assert.ErrorIs(t, err, apperr.ErrValidationFailed, "unavailable product")
}

func TestUnknownTenant(t *testing.T) {
	res := newFakeResolver()
	e, _ := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)

	_, _, err := s.Page(context.Background(), "no-such-cafe", catalog.Filter{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.Cart()
	assert.ErrorIs(t, err, ErrNoTenant)
}

func TestUpdateItem(t *testing.T) {
	res := newFakeResolver()
	e, _ := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "cafe-x", 10)
	require.NoError(t, err)

	state, err := s.UpdateItem(ctx, "cafe-x", 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Count)

	state, err = s.UpdateItem(ctx, "cafe-x", 10, -3)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Count)

	_, err = s.UpdateItem(ctx, "cafe-x", 10, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCheckout(t *testing.T) {
	res := newFakeResolver()
	gw := &fakeGateway{result: cart.Result{Outcome: cart.OutcomeSucceeded}}
	e, _ := newTestEngine(t, res, gw)
	s := newSession("s1", e)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "cafe-x", 10)
	require.NoError(t, err)
	_, err = s.UpdateItem(ctx, "cafe-x", 10, 1)
	require.NoError(t, err)

	result, state, err := s.Checkout(ctx, "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, cart.OutcomeSucceeded, result.Outcome)
	assert.Equal(t, 0, state.Count)
	require.Len(t, gw.orders, 1)
	assert.Equal(t, "cafe-x", gw.orders[0].Tenant)
	assert.Equal(t, int64(160000), gw.orders[0].Total)
}

func TestCheckoutGatewayDown(t *testing.T) {
	res := newFakeResolver()
	gw := &fakeGateway{err: errors.New("connection refused")}
	e, _ := newTestEngine(t, res, gw)
	s := newSession("s1", e)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "cafe-x", 10)
	require.NoError(t, err)

	_, state, err := s.Checkout(ctx, "cafe-x")
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.Equal(t, 1, state.Count)
}

func TestNoticeShownOnce(t *testing.T) {
	res := newFakeResolver()
	e, _ := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)
	ctx := context.Background()

	s.Flash("Added to your order")
	page, variant, err := s.Page(ctx, "cafe-x", catalog.Filter{})
	require.NoError(t, err)
	assert.Equal(t, theme.ModernRestaurant, variant.Key())
	assert.Equal(t, "Added to your order", page.Notice)

	page, _, err = s.Page(ctx, "cafe-x", catalog.Filter{})
	require.NoError(t, err)
	assert.Empty(t, page.Notice)
}

func TestLateFetchIsDiscarded(t *testing.T) {
	res := newFakeResolver()
	res.block = make(chan struct{})
	e, _ := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)
	ctx := context.Background()

	slowErr := make(chan error, 1)
	go func() {
		_, err := s.Enter(ctx, "slow-cafe")
		slowErr <- err
	}()
	require.Eventually(t, func() bool { return res.callsFor("slow-cafe") == 1 }, time.Second, time.Millisecond)

	snap, err := s.Enter(ctx, "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, "cafe-x", snap.Tenant.Slug)
	close(res.block)

	err = <-slowErr
	assert.ErrorIs(t, err, tenant.ErrStale)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	state, err := s.Cart()
	require.NoError(t, err)
	assert.Equal(t, "cafe-x", state.Tenant)
}

func TestReturningToActiveTenantDiscardsPendingFetch(t *testing.T) {
	res := newFakeResolver()
	e, _ := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)
	ctx := context.Background()

	_, err := s.AddItem(ctx, "cafe-x", 10)
	require.NoError(t, err)

	res.mu.Lock()
	res.block = make(chan struct{})
	res.mu.Unlock()

	slowErr := make(chan error, 1)
	go func() {
		_, err := s.Enter(ctx, "slow-cafe")
		slowErr <- err
	}()
	require.Eventually(t, func() bool { return res.callsFor("slow-cafe") == 1 }, time.Second, time.Millisecond)

	snap, err := s.Enter(ctx, "cafe-x")
	require.NoError(t, err)
	assert.Equal(t, "cafe-x", snap.Tenant.Slug)
	assert.Equal(t, 1, res.callsFor("cafe-x"), "fresh snapshot is reused")
	close(res.block)

	assert.ErrorIs(t, <-slowErr, tenant.ErrStale)

	state, err := s.Cart()
	require.NoError(t, err)
	assert.Equal(t, "cafe-x", state.Tenant)
	assert.Equal(t, 1, state.Count)
}

func TestLeave(t *testing.T) {
	res := newFakeResolver()
	e, _ := newTestEngine(t, res, &fakeGateway{})
	s := newSession("s1", e)

	_, err := s.AddItem(context.Background(), "cafe-x", 10)
	require.NoError(t, err)
	s.Leave()

	_, err = s.Cart()
	assert.ErrorIs(t, err, ErrNoTenant)
}
