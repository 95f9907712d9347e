package theme

import (
	"context"

	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/tenant"
)

// Persister stores the active theme of a site.
type Persister interface {
	SetTheme(ctx context.Context, slug, themeID string) error
}

// Invalidator drops cached tenant data after a successful change.
type Invalidator interface {
	Invalidate(ctx context.Context, slug string) error
}

// Service switches site themes through the backend.
type Service struct {
	resolver    *Resolver
	persister   Persister
	invalidator Invalidator
	log         *zap.Logger
}

func NewService(resolver *Resolver, persister Persister, invalidator Invalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{resolver: resolver, persister: persister, invalidator: invalidator, log: log}
}

// Apply validates and persists a theme switch. The returned tenant carries the
// new theme; on failure the original tenant is returned unchanged.
func (s *Service) Apply(ctx context.Context, t *tenant.Tenant, themeID string) (*tenant.Tenant, error) {
	const op = "theme.Apply"

	updated, err := s.resolver.ChangeTheme(t, themeID)
	if err != nil {
		return t, err
	}
	if updated.ThemeID == t.ThemeID {
		return t, nil
	}

	if err := s.persister.SetTheme(ctx, t.Slug, themeID); err != nil {
		s.log.Error("Failed to persist theme change",
			zap.String("slug", t.Slug),
			zap.String("theme_id", themeID),
			zap.Error(err))
		if apperr.KindOf(err) == apperr.KindInternal {
			return t, apperr.Wrap(apperr.KindUnavailable, op, "could not save the theme, please retry", err)
		}
		return t, err
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, t.Slug); err != nil {
			s.log.Warn("Failed to invalidate tenant cache", zap.String("slug", t.Slug), zap.Error(err))
		}
	}

	s.log.Info("Theme changed",
		zap.String("slug", t.Slug),
		zap.String("from", t.ThemeID),
		zap.String("to", themeID))
	return updated, nil
}
