package storefront

import (
	"time"

	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/internal/theme"
)

// DefaultSnapshotMaxAge bounds how long a session reuses a resolved tenant
// before fetching it again.
const DefaultSnapshotMaxAge = 30 * time.Second

// Engine holds the collaborators shared by every session.
type Engine struct {
	resolver tenant.Resolving
	registry *capability.Registry
	themes   *theme.Resolver
	pages    *theme.Builder
	gateway  cart.Gateway
	logger   *zap.Logger
	maxAge   time.Duration
	now      func() time.Time
}

// Options configures NewEngine.
type Options struct {
	Resolver       tenant.Resolving
	Registry       *capability.Registry
	Themes         *theme.Resolver
	Pages          *theme.Builder
	Gateway        cart.Gateway
	Logger         *zap.Logger
	SnapshotMaxAge time.Duration
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		resolver: opts.Resolver,
		registry: opts.Registry,
		themes:   opts.Themes,
		pages:    opts.Pages,
		gateway:  opts.Gateway,
		logger:   opts.Logger,
		maxAge:   opts.SnapshotMaxAge,
		now:      time.Now,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.maxAge <= 0 {
		e.maxAge = DefaultSnapshotMaxAge
	}
	return e
}

// Themes exposes the theme resolver, for callers rendering pages.
func (e *Engine) Themes() *theme.Resolver {
	return e.themes
}
