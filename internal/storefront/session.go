package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/internal/theme"
)

// ErrNoTenant is returned by cart access before any tenant was entered.
var ErrNoTenant = apperr.New(apperr.KindUnavailable, "storefront", "open a site first")

// Session is the storefront state of one visitor: the active tenant and the
// cart bound to it. Entering another tenant tears the cart down.
type Session struct {
	ID string

	engine *Engine
	loader *tenant.Loader

	mu       sync.Mutex
	snapshot *tenant.Snapshot
	loadedAt time.Time
	cart     *cart.Cart
	notice   string
	lastSeen time.Time
}

func newSession(id string, engine *Engine) *Session {
	return &Session{
		ID:       id,
		engine:   engine,
		loader:   tenant.NewLoader(),
		lastSeen: engine.now(),
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.engine.now()
	s.mu.Unlock()
}

// Enter makes slug the active tenant, reusing a fresh snapshot when the
// tenant is already active. The fetch runs outside the session lock.
func (s *Session) Enter(ctx context.Context, slug string) (*tenant.Snapshot, error) {
	const op = "storefront.Enter"
	s.touch()

	s.mu.Lock()
	if s.snapshot != nil && s.snapshot.Tenant.Slug == slug && s.engine.now().Sub(s.loadedAt) < s.engine.maxAge {
		snap := s.snapshot
		// coming back while another tenant is loading supersedes that fetch
		if current, _, applied, _ := s.loader.Current(); current != slug || applied != snap {
			s.loader.Adopt(slug, snap)
		}
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	snap, err := s.loader.Load(ctx, slug, s.engine.resolver)
	if err != nil {
		if errors.Is(err, tenant.ErrStale) {
			s.engine.logger.Info("Discarded stale tenant fetch",
				zap.String("session_id", s.ID),
				zap.String("slug", slug))
			return nil, apperr.Wrap(apperr.KindUnavailable, op, "this page is out of date, please reload", err)
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// a newer Enter may have been applied while this one waited on the lock
	if current, _, applied, _ := s.loader.Current(); current != slug || applied != snap {
		return nil, apperr.Wrap(apperr.KindUnavailable, op, "this page is out of date, please reload", tenant.ErrStale)
	}
	s.bind(snap)
	return snap, nil
}

// bind applies snap. A different tenant gets a fresh cart; the same tenant
// keeps its items and only refreshes the capability gate.
func (s *Session) bind(snap *tenant.Snapshot) {
	gate := s.engine.registry.Gate(snap.Tenant)
	switch {
	case s.cart == nil || s.cart.Tenant() != snap.Tenant.Slug:
		if s.cart != nil && s.cart.State() == cart.HasItems {
			s.engine.logger.Info("Tenant switched, cart cleared",
				zap.String("session_id", s.ID),
				zap.String("from", s.cart.Tenant()),
				zap.String("to", snap.Tenant.Slug))
		}
		s.cart = cart.New(snap.Tenant.Slug, gate)
	default:
		s.cart.SetGate(gate)
	}
	s.snapshot = snap
	s.loadedAt = s.engine.now()
}

// Leave drops the active tenant and its cart.
func (s *Session) Leave() {
	s.loader.Reset()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.cart = nil
	s.notice = ""
}

// Page resolves slug and builds its storefront page with the session cart.
func (s *Session) Page(ctx context.Context, slug string, filter catalog.Filter) (*theme.Page, theme.Variant, error) {
	snap, err := s.Enter(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resolution := s.engine.themes.Resolve(snap.Tenant.ThemeID)
	page := s.engine.pages.Build(theme.PageInput{
		Snapshot: snap,
		ThemeKey: resolution.Variant.Key(),
		Gate:     s.engine.registry.Gate(snap.Tenant),
		Cart:     s.cart,
		Filter:   filter,
		Notice:   s.notice,
	})
	s.notice = ""
	return page, resolution.Variant, nil
}

// Flash stores a notice shown once on the next page.
func (s *Session) Flash(notice string) {
	s.mu.Lock()
	s.notice = notice
	s.mu.Unlock()
}

// Cart returns a copy of the state of the active cart.
func (s *Session) Cart() (CartState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return CartState{}, ErrNoTenant
	}
	return stateOf(s.cart), nil
}

// CartState is a read-only view of a cart.
type CartState struct {
	Tenant  string      `json:"site"`
	State   string      `json:"state"`
	Enabled bool        `json:"enabled"`
	Items   []cart.Item `json:"items"`
	Count   int         `json:"count"`
	Total   int64       `json:"total"`
}

func stateOf(c *cart.Cart) CartState {
	return CartState{
		Tenant:  c.Tenant(),
		State:   c.State().String(),
		Enabled: c.Enabled(),
		Items:   c.Items(),
		Count:   c.Count(),
		Total:   c.Total(),
	}
}

// mutate enters slug and runs fn on its cart under the session lock.
func (s *Session) mutate(ctx context.Context, slug string, fn func(snap *tenant.Snapshot, c *cart.Cart) error) (CartState, error) {
	snap, err := s.Enter(ctx, slug)
	if err != nil {
		return CartState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return CartState{}, ErrNoTenant
	}
	err = fn(snap, s.cart)
	return stateOf(s.cart), err
}

// AddItem adds one unit of a public product of slug.
func (s *Session) AddItem(ctx context.Context, slug string, productID uint) (CartState, error) {
	return s.mutate(ctx, slug, func(snap *tenant.Snapshot, c *cart.Cart) error {
		p, ok := snap.Catalog.Storefront().Product(productID)
		if !ok {
			return apperr.NotFound("storefront.AddItem", "this item is no longer on the menu")
		}
		return c.Add(slug, p)
	})
}

// UpdateItem changes the quantity of a cart line by delta.
func (s *Session) UpdateItem(ctx context.Context, slug string, productID uint, delta int) (CartState, error) {
	return s.mutate(ctx, slug, func(_ *tenant.Snapshot, c *cart.Cart) error {
		return c.UpdateQuantity(slug, productID, delta)
	})
}

// RemoveItem drops a cart line.
func (s *Session) RemoveItem(ctx context.Context, slug string, productID uint) (CartState, error) {
	return s.mutate(ctx, slug, func(_ *tenant.Snapshot, c *cart.Cart) error {
		return c.Remove(slug, productID)
	})
}

// ClearCart empties the cart of slug.
func (s *Session) ClearCart(ctx context.Context, slug string) (CartState, error) {
	return s.mutate(ctx, slug, func(_ *tenant.Snapshot, c *cart.Cart) error {
		c.Clear()
		return nil
	})
}

// Checkout submits the cart of slug through the engine's gateway.
func (s *Session) Checkout(ctx context.Context, slug string) (cart.Result, CartState, error) {
	var res cart.Result
	state, err := s.mutate(ctx, slug, func(_ *tenant.Snapshot, c *cart.Cart) error {
		var err error
		res, err = c.Checkout(ctx, slug, s.engine.gateway)
		return err
	})
	if err == nil {
		s.engine.logger.Info("Checkout submitted",
			zap.String("session_id", s.ID),
			zap.String("slug", slug),
			zap.String("outcome", string(res.Outcome)))
	}
	return res, state, err
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
