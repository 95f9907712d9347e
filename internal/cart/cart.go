package cart

import (
	"fmt"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/pricing"
	"github.com/suteetoe/vitrin/metrics"
)

// State of a cart.
type State int

const (
	Empty State = iota
	HasItems
)

func (s State) String() string {
	if s == HasItems {
		return "has_items"
	}
	return "empty"
}

// Item is a product line with prices captured when it was first added.
type Item struct {
	ProductID      uint   `json:"product_id"`
	Title          string `json:"title"`
	Price          int64  `json:"price"`
	Discount       int    `json:"discount"`
	EffectivePrice int64  `json:"effective_price"`
	Image          string `json:"image,omitempty"`
	Quantity       int    `json:"quantity"`
}

// LineTotal is the snapshot price times quantity.
func (i Item) LineTotal() int64 {
	return pricing.LineTotal(i.EffectivePrice, i.Quantity)
}

// MaxQuantity is the most units a single line may hold.
const MaxQuantity = 99

var (
	// ErrTenantMismatch is returned when a mutation names another tenant. The
	// cart has already been reset for that tenant.
	ErrTenantMismatch = apperr.Forbidden("cart", "your cart was reset because you switched sites")
	// ErrDisabled is returned when the tenant has no cart capability.
	ErrDisabled = apperr.Forbidden("cart", "ordering is not available for this site")
	// ErrQuantityLimit is returned when a line would exceed MaxQuantity.
	ErrQuantityLimit = apperr.Validation("cart", fmt.Sprintf("you can order at most %d of one item", MaxQuantity))
)

// Cart holds the items of one visitor for one tenant. It is not safe for
// concurrent use; the owning session serializes access.
type Cart struct {
	tenant string
	gate   capability.Gate
	items  []Item
}

// New creates an empty cart scoped to tenant. gate decides whether items may
// be added.
func New(tenant string, gate capability.Gate) *Cart {
	return &Cart{tenant: tenant, gate: gate}
}

// Tenant is the slug the cart is scoped to.
func (c *Cart) Tenant() string {
	return c.tenant
}

// SetGate replaces the capability gate after a toggle. Existing items are kept.
func (c *Cart) SetGate(gate capability.Gate) {
	c.gate = gate
}

// Enabled reports whether the cart currently accepts new items.
func (c *Cart) Enabled() bool {
	return capability.CartEnabled(c.gate)
}

func (c *Cart) State() State {
	if len(c.items) == 0 {
		return Empty
	}
	return HasItems
}

// guard resets the cart when scope differs from its tenant.
func (c *Cart) guard(scope string) error {
	if scope == c.tenant {
		return nil
	}
	c.tenant = scope
	c.gate = nil
	c.items = nil
	metrics.RecordCartRejection("tenant_mismatch")
	return ErrTenantMismatch
}

// Add puts one unit of p in the cart, incrementing an existing line.
func (c *Cart) Add(scope string, p catalog.Product) error {
	if err := c.guard(scope); err != nil {
		return err
	}
	if !c.Enabled() {
		metrics.RecordCartRejection("capability_disabled")
		return ErrDisabled
	}
	if !p.Available {
		metrics.RecordCartRejection("product_unavailable")
		return apperr.Validation("cart.Add", p.Title+" is currently unavailable")
	}

	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			if c.items[i].Quantity >= MaxQuantity {
				metrics.RecordCartRejection("quantity_limit")
				return ErrQuantityLimit
			}
			c.items[i].Quantity++
			return nil
		}
	}
	c.items = append(c.items, Item{
		ProductID:      p.ID,
		Title:          p.Title,
		Price:          p.Price,
		Discount:       p.Discount,
		EffectivePrice: pricing.EffectivePrice(p.Price, p.Discount),
		Image:          p.Image,
		Quantity:       1,
	})
	return nil
}

// UpdateQuantity changes a line by delta. A result of zero or less removes the
// line. Increments are refused while the cart capability is disabled, and
// when they would take the line past MaxQuantity.
func (c *Cart) UpdateQuantity(scope string, productID uint, delta int) error {
	if err := c.guard(scope); err != nil {
		return err
	}
	idx := c.index(productID)
	if idx < 0 {
		return apperr.NotFound("cart.UpdateQuantity", "item is not in your cart")
	}
	if delta == 0 {
		return nil
	}
	if delta > 0 && !c.Enabled() {
		metrics.RecordCartRejection("capability_disabled")
		return ErrDisabled
	}

	current := c.items[idx].Quantity
	if delta > MaxQuantity-current {
		metrics.RecordCartRejection("quantity_limit")
		return ErrQuantityLimit
	}
	// current is at least 1, so a negative delta cannot overflow
	q := current + delta
	if q <= 0 {
		c.removeAt(idx)
		return nil
	}
	c.items[idx].Quantity = q
	return nil
}

// Remove drops a line regardless of capabilities. Removing a missing line is
// not an error.
func (c *Cart) Remove(scope string, productID uint) error {
	if err := c.guard(scope); err != nil {
		return err
	}
	if idx := c.index(productID); idx >= 0 {
		c.removeAt(idx)
	}
	return nil
}

// Clear empties the cart without changing its tenant.
func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Total is the sum of snapshot line totals, saturating at pricing.MaxAmount.
func (c *Cart) Total() int64 {
	lines := make([]int64, len(c.items))
	for i, it := range c.items {
		lines[i] = it.LineTotal()
	}
	return pricing.Sum(lines...)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) index(productID uint) int {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}
