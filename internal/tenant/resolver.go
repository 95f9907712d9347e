package tenant

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/metrics"
)

// Source is the backend boundary for tenant data. Implementations return
// apperr errors; anything unclassified is treated as a transient failure.
type Source interface {
	FetchTenant(ctx context.Context, slug string) (*Tenant, error)
	FetchCatalog(ctx context.Context, slug string) (*catalog.Raw, error)
}

// State is the load state of a tenant in a session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateCatalogUnavailable
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateCatalogUnavailable:
		return "catalog_unavailable"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Snapshot is a tenant with its normalized catalog, applied as one unit.
type Snapshot struct {
	Tenant    *Tenant
	Catalog   catalog.Catalog
	Anomalies []catalog.Anomaly
	State     State
}

// Resolver fetches a tenant and its catalog concurrently.
type Resolver struct {
	source  Source
	log     *zap.Logger
	timeout time.Duration
}

// NewResolver creates a resolver. A zero timeout leaves deadlines to the caller.
func NewResolver(source Source, log *zap.Logger, timeout time.Duration) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{source: source, log: log, timeout: timeout}
}

// Resolve returns the snapshot for slug. A missing tenant is NotFound; a
// failing tenant fetch is Unavailable. A failing catalog fetch still yields
// a snapshot in StateCatalogUnavailable with an empty catalog.
func (r *Resolver) Resolve(ctx context.Context, slug string) (*Snapshot, error) {
	const op = "tenant.Resolve"

	if err := ValidateSlug(slug); err != nil {
		return nil, apperr.Wrap(apperr.KindNotFound, op, "site not found", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var (
		t          *Tenant
		raw        *catalog.Raw
		catalogErr error
	)

	// only the tenant fetch may cancel the group; a catalog failure degrades
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		t, err = r.source.FetchTenant(gctx, slug)
		return err
	})
	g.Go(func() error {
		raw, catalogErr = r.source.FetchCatalog(gctx, slug)
		return nil
	})

	if err := g.Wait(); err != nil {
		err = classify(op, err)
		r.log.Warn("Tenant fetch failed",
			zap.String("slug", slug),
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err))
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound(op, "site not found")
	}

	snap := &Snapshot{Tenant: t, Catalog: catalog.Empty(), State: StateReady}
	if catalogErr != nil {
		r.log.Warn("Catalog fetch failed, rendering without catalog",
			zap.String("slug", slug),
			zap.Error(catalogErr))
		snap.State = StateCatalogUnavailable
		return snap, nil
	}

	snap.Catalog, snap.Anomalies = catalog.Normalize(raw)
	for _, a := range snap.Anomalies {
		metrics.RecordCatalogAnomaly(a.Entity)
		r.log.Warn("Catalog record anomaly",
			zap.String("slug", slug),
			zap.String("entity", a.Entity),
			zap.Uint("id", a.ID),
			zap.String("reason", a.Reason))
	}
	return snap, nil
}

func classify(op string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Unavailable(op, err)
}
