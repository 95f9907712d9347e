package capability

import (
	"context"

	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/metrics"
)

// Persister stores a plugin toggle and returns the enabled set the backend
// now holds for the site.
type Persister interface {
	SetPlugin(ctx context.Context, slug, key string, enabled bool) ([]string, error)
}

// Invalidator drops cached tenant data after a successful change.
type Invalidator interface {
	Invalidate(ctx context.Context, slug string) error
}

// Service applies capability toggles through the backend.
type Service struct {
	registry    *Registry
	persister   Persister
	invalidator Invalidator
	log         *zap.Logger
}

// NewService creates the toggle service. invalidator may be nil.
func NewService(registry *Registry, persister Persister, invalidator Invalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		registry:    registry,
		persister:   persister,
		invalidator: invalidator,
		log:         log,
	}
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// SetEnabled validates and persists a toggle. On success it returns a copy of
// t carrying the backend's enabled set; on any failure t is left as it was
// and should keep being used.
func (s *Service) SetEnabled(ctx context.Context, t *tenant.Tenant, key string, enabled bool) (*tenant.Tenant, error) {
	const op = "capability.SetEnabled"

	change, err := s.registry.Toggle(t, key, enabled)
	if err != nil {
		metrics.RecordCapabilityToggle(key, string(apperr.KindOf(err)))
		s.log.Info("Plugin toggle rejected",
			zap.String("slug", slugOf(t)),
			zap.String("plugin_key", key),
			zap.Bool("enabled", enabled),
			zap.Error(err))
		return t, err
	}
	if change.NoOp {
		metrics.RecordCapabilityToggle(key, "noop")
		return t, nil
	}

	stored, err := s.persister.SetPlugin(ctx, t.Slug, key, enabled)
	if err != nil {
		metrics.RecordCapabilityToggle(key, "persist_failed")
		s.log.Error("Failed to persist plugin toggle",
			zap.String("slug", t.Slug),
			zap.String("plugin_key", key),
			zap.Error(err))
		if apperr.KindOf(err) == apperr.KindInternal {
			return t, apperr.Wrap(apperr.KindUnavailable, op, "could not save the change, please retry", err)
		}
		return t, err
	}

	updated := t.Clone()
	updated.EnabledPlugins = stored
	if stored == nil {
		updated.EnabledPlugins = change.Plugins
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, t.Slug); err != nil {
			s.log.Warn("Failed to invalidate tenant cache",
				zap.String("slug", t.Slug),
				zap.Error(err))
		}
	}

	metrics.RecordCapabilityToggle(key, "applied")
	s.log.Info("Plugin toggled",
		zap.String("slug", t.Slug),
		zap.String("plugin_key", key),
		zap.Bool("enabled", enabled))
	return updated, nil
}

func slugOf(t *tenant.Tenant) string {
	if t == nil {
		return ""
	}
	return t.Slug
}
