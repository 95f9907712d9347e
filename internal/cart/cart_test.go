package cart

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/pricing"
)

var (
	latte    = catalog.Product{ID: 1, Title: "Latte", Price: 100000, Discount: 20, Available: true}
	espresso = catalog.Product{ID: 2, Title: "Espresso", Price: 55555, Discount: 10, Available: true}
	soldOut  = catalog.Product{ID: 3, Title: "Cheesecake", Price: 70000}
)

// switchableGate lets a test turn the cart capability off mid-session.
type switchableGate struct{ on bool }

func (g *switchableGate) IsEnabled(key string) bool {
	return g.on && key == capability.ShoppingCart
}

func TestAddIncrementsAndSnapshots(t *testing.T) {
	c := New("cafe-x", capability.AllowAll)
	assert.Equal(t, Empty, c.State())

	require.NoError(t, c.Add("cafe-x", latte))
	require.NoError(t, c.Add("cafe-x", latte))
	require.NoError(t, c.Add("cafe-x", espresso))

	assert.Equal(t, HasItems, c.State())
	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(80000), items[0].EffectivePrice)
	assert.Equal(t, int64(50000), items[1].EffectivePrice)
	assert.Equal(t, int64(2*80000+50000), c.Total())
	assert.Equal(t, 3, c.Count())
}

func TestSnapshotSurvivesPriceChange(t *testing.T) {
	c := New("cafe-x", capability.AllowAll)
	require.NoError(t, c.Add("cafe-x", latte))

	repriced := latte
	repriced.Price = 200000
	require.NoError(t, c.Add("cafe-x", repriced))

	assert.Equal(t, int64(160000), c.Total())
}

func TestAddThenRemoveRestoresTotal(t *testing.T) {
	c := New("cafe-x", capability.AllowAll)
	require.NoError(t, c.Add("cafe-x", espresso))
	before := c.Total()

	require.NoError(t, c.Add("cafe-x", latte))
	require.NoError(t, c.UpdateQuantity("cafe-x", latte.ID, -1))
	assert.Equal(t, before, c.Total())

	require.NoError(t, c.Add("cafe-x", latte))
	require.NoError(t, c.Remove("cafe-x", latte.ID))
	assert.Equal(t, before, c.Total())
}

func TestAddRejectedWithoutCapability(t *testing.T) {
	c := New("cafe-x", capability.GateFunc(func(key string) bool { return key == capability.Menu }))

	err := c.Add("cafe-x", latte)
	assert.ErrorIs(t, err, ErrDisabled)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Equal(t, Empty, c.State())
	assert.Equal(t, int64(0), c.Total())
}

func TestEcommerceAlsoGrantsCart(t *testing.T) {
	c := New("cafe-x", capability.GateFunc(func(key string) bool { return key == capability.Ecommerce }))
	assert.NoError(t, c.Add("cafe-x", latte))
}

func TestAddRejectsUnavailableProduct(t *testing.T) {
	c := New("cafe-x", capability.AllowAll)
	err := c.Add("cafe-x", soldOut)
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Equal(t, Empty, c.State())
}

func TestDisablingCapabilityKeepsItems(t *testing.T) {
	gate := &switchableGate{on: true}
	c := New("cafe-x", gate)
	require.NoError(t, c.Add("cafe-x", latte))
	require.NoError(t, c.Add("cafe-x", latte))

	gate.on = false

	assert.Len(t, c.Items(), 1, "items stay visible")
	assert.ErrorIs(t, c.Add("cafe-x", espresso), ErrDisabled)
	assert.ErrorIs(t, c.UpdateQuantity("cafe-x", latte.ID, 1), ErrDisabled)
	assert.Equal(t, 2, c.Count())

	require.NoError(t, c.UpdateQuantity("cafe-x", latte.ID, -1))
	assert.Equal(t, 1, c.Count())
	require.NoError(t, c.Remove("cafe-x", latte.ID))
	assert.Equal(t, Empty, c.State())
}

func TestUpdateQuantityClampsAtZero(t *testing.T) {
	c := New("cafe-x", capability.AllowAll)
	require.NoError(t, c.Add("cafe-x", latte))
	require.NoError(t, c.UpdateQuantity("cafe-x", latte.ID, 4))
	assert.Equal(t, 5, c.Count())

	require.NoError(t, c.UpdateQuantity("cafe-x", latte.ID, -10))
	assert.Equal(t, Empty, c.State())

	err := c.UpdateQuantity("cafe-x", latte.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, c.Remove("cafe-x", 99))
}

func TestUpdateQuantityBounds(t *testing.T) {
	tests := []struct {
		name      string
		delta     int
		wantErr   error
		wantItems int
		wantQty   int
	}{
		{name: "up to the limit", delta: MaxQuantity - 2, wantItems: 1, wantQty: MaxQuantity},
		{name: "past the limit", delta: MaxQuantity - 1, wantErr: ErrQuantityLimit, wantItems: 1, wantQty: 2},
		{name: "max int", delta: math.MaxInt, wantErr: ErrQuantityLimit, wantItems: 1, wantQty: 2},
		{name: "huge increment", delta: 1 << 50, wantErr: ErrQuantityLimit, wantItems: 1, wantQty: 2},
		{name: "min int removes", delta: math.MinInt, wantItems: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New("cafe-x", capability.AllowAll)
			require.NoError(t, c.Add("cafe-x", latte))
			require.NoError(t, c.Add("cafe-x", latte))

			err := c.UpdateQuantity("cafe-x", latte.ID, tt.delta)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, apperr.ErrValidationFailed)
			} else {
				assert.NoError(t, err)
			}

			items := c.Items()
			require.Len(t, items, tt.wantItems)
			if tt.wantItems > 0 {
				assert.Equal(t, tt.wantQty, items[0].Quantity)
			}
			assert.GreaterOrEqual(t, c.Total(), int64(0))
		})
	}
}

func TestAddStopsAtQuantityLimit(t *testing.T) {
	c := New("cafe-x", capability.AllowAll)
	for i := 0; i < MaxQuantity; i++ {
		require.NoError(t, c.Add("cafe-x", latte))
	}
	assert.ErrorIs(t, c.Add("cafe-x", latte), ErrQuantityLimit)
	assert.Equal(t, MaxQuantity, c.Count())
	assert.Equal(t, int64(MaxQuantity*80000), c.Total())
}

func TestTotalNeverGoesNegative(t *testing.T) {
	pricey := catalog.Product{ID: 9, Title: "Caviar", Price: math.MaxInt64 / 2, Available: true}
	c := New("cafe-x", capability.AllowAll)
	for i := 0; i < 5; i++ {
		require.NoError(t, c.Add("cafe-x", pricey))
	}
	assert.Equal(t, pricing.MaxAmount, c.Total())
}

func TestTenantMismatchResets(t *testing.T) {
	c := New("cafe-x", capability.AllowAll)
	require.NoError(t, c.Add("cafe-x", latte))

	err := c.Add("cafe-y", espresso)
	assert.ErrorIs(t, err, ErrTenantMismatch)
	assert.Equal(t, "cafe-y", c.Tenant())
	assert.Equal(t, Empty, c.State())

	assert.ErrorIs(t, c.Add("cafe-y", espresso), ErrDisabled, "reset cart has no gate until rebound")
	c.SetGate(capability.AllowAll)
	assert.NoError(t, c.Add("cafe-y", espresso))
}

type fakeGateway struct {
	result Result
	err    error
	orders []Order
}

func (f *fakeGateway) Submit(ctx context.Context, order Order) (Result, error) {
	f.orders = append(f.orders, order)
	return f.result, f.err
}

func TestCheckout(t *testing.T) {
	testCases := []struct {
		name      string
		result    Result
		err       error
		kind      apperr.Kind
		outcome   Outcome
		keepsCart bool
	}{
		{name: "succeeded clears", result: Result{Outcome: OutcomeSucceeded}, outcome: OutcomeSucceeded},
		{name: "redirect clears", result: Result{Outcome: OutcomeRedirect, RedirectURL: "https://pay.example/1"}, outcome: OutcomeRedirect},
		{name: "declined keeps", result: Result{Outcome: OutcomeFailed, Reason: "card declined"}, outcome: OutcomeFailed, keepsCart: true},
		{name: "unknown outcome is failure", result: Result{Outcome: "weird"}, outcome: OutcomeFailed, keepsCart: true},
		{name: "transport error keeps", err: errors.New("connection reset"), kind: apperr.KindUnavailable, keepsCart: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := New("cafe-x", capability.AllowAll)
			require.NoError(t, c.Add("cafe-x", latte))
			gw := &fakeGateway{result: tc.result, err: tc.err}

			res, err := c.Checkout(context.Background(), "cafe-x", gw)
			if tc.kind != "" {
				assert.Equal(t, tc.kind, apperr.KindOf(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.outcome, res.Outcome)
			}
			require.Len(t, gw.orders, 1)
			assert.Equal(t, int64(80000), gw.orders[0].Total)
			assert.Equal(t, "cafe-x", gw.orders[0].Tenant)
			assert.Equal(t, tc.keepsCart, c.State() == HasItems)
		})
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	c := New("cafe-x", capability.AllowAll)
	gw := &fakeGateway{}
	_, err := c.Checkout(context.Background(), "cafe-x", gw)
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Empty(t, gw.orders)
}
