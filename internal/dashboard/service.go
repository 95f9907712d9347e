package dashboard

import (
	"context"

	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/navigation"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/internal/theme"
)

// TenantSource loads the current record of a site.
type TenantSource interface {
	FetchTenant(ctx context.Context, slug string) (*tenant.Tenant, error)
}

// Service backs the site owner's dashboard.
type Service struct {
	tenants      TenantSource
	registry     *capability.Registry
	capabilities *capability.Service
	themes       *theme.Resolver
	themeService *theme.Service
	creator      tenant.Creator
	log          *zap.Logger
}

// Deps collects the collaborators of the dashboard.
type Deps struct {
	Tenants      TenantSource
	Capabilities *capability.Service
	Themes       *theme.Resolver
	ThemeService *theme.Service
	Creator      tenant.Creator
	Logger       *zap.Logger
}

func NewService(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		tenants:      d.Tenants,
		registry:     d.Capabilities.Registry(),
		capabilities: d.Capabilities,
		themes:       d.Themes,
		themeService: d.ThemeService,
		creator:      d.Creator,
		log:          log,
	}
}

// Overview is everything the dashboard home shows for a selection.
type Overview struct {
	Site       *tenant.Tenant          `json:"site,omitempty"`
	Navigation []navigation.Section    `json:"navigation"`
	Plugins    []capability.Descriptor `json:"plugins,omitempty"`
	Themes     []theme.Descriptor      `json:"themes,omitempty"`
	Status     *tenant.Subscription    `json:"subscription,omitempty"`
}

func (s *Service) site(ctx context.Context, slug string) (*tenant.Tenant, error) {
	if err := tenant.ValidateSlug(slug); err != nil {
		return nil, apperr.NotFound("dashboard.site", "site not found")
	}
	return s.tenants.FetchTenant(ctx, slug)
}

// Overview builds the dashboard home. An empty slug means no site is
// selected and only global sections are listed.
func (s *Service) Overview(ctx context.Context, slug string) (Overview, error) {
	if slug == "" {
		return Overview{Navigation: navigation.Visible(navigation.Sections, navigation.Selection{}, s.registry)}, nil
	}
	t, err := s.site(ctx, slug)
	if err != nil {
		return Overview{}, err
	}
	sub := t.Subscription
	return Overview{
		Site:       t,
		Navigation: navigation.Visible(navigation.Sections, navigation.Selection{Tenant: t}, s.registry),
		Plugins:    s.registry.Describe(t),
		Themes:     s.themes.ThemesFor(t.Category),
		Status:     &sub,
	}, nil
}

// Navigation lists the sidebar sections visible for slug.
func (s *Service) Navigation(ctx context.Context, slug string) ([]navigation.Section, error) {
	o, err := s.Overview(ctx, slug)
	if err != nil {
		return nil, err
	}
	return o.Navigation, nil
}

// CanOpen reports whether a dashboard path may be opened for slug.
func (s *Service) CanOpen(ctx context.Context, slug, path string) (bool, error) {
	sel := navigation.Selection{}
	if slug != "" {
		t, err := s.site(ctx, slug)
		if err != nil {
			return false, err
		}
		sel.Tenant = t
	}
	return navigation.Allowed(path, sel, s.registry), nil
}

// Plugins lists every plugin with its state for slug.
func (s *Service) Plugins(ctx context.Context, slug string) ([]capability.Descriptor, error) {
	t, err := s.site(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.registry.Describe(t), nil
}

// SetPlugin toggles a plugin and returns the refreshed plugin list.
func (s *Service) SetPlugin(ctx context.Context, slug, key string, enabled bool) ([]capability.Descriptor, error) {
	t, err := s.site(ctx, slug)
	if err != nil {
		return nil, err
	}
	updated, err := s.capabilities.SetEnabled(ctx, t, key, enabled)
	if err != nil {
		return s.registry.Describe(t), err
	}
	return s.registry.Describe(updated), nil
}

// Themes lists the themes offered for the category of slug.
func (s *Service) Themes(ctx context.Context, slug string) ([]theme.Descriptor, error) {
	t, err := s.site(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.themes.ThemesFor(t.Category), nil
}

// SetTheme switches the theme of slug.
func (s *Service) SetTheme(ctx context.Context, slug, themeID string) (*tenant.Tenant, error) {
	t, err := s.site(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.themeService.Apply(ctx, t, themeID)
}

// CreateSite validates a new site, picks its theme, and activates the core
// plugins plus whatever that theme requires.
func (s *Service) CreateSite(ctx context.Context, in tenant.NewSite) (*tenant.Tenant, error) {
	const op = "dashboard.CreateSite"

	site, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	if site.ThemeID == "" {
		site.ThemeID = theme.Default
		if offered := s.themes.ThemesFor(site.Category); len(offered) > 0 {
			site.ThemeID = offered[0].Key
		}
	}
	v, ok := s.themes.Lookup(site.ThemeID)
	if !ok {
		return nil, apperr.Validation(op, "unknown theme "+site.ThemeID)
	}
	if !v.Descriptor().SuitsCategory(site.Category) {
		return nil, apperr.Validation(op, "this theme is not available for your business category")
	}

	plugins := []string{}
	seen := map[string]bool{}
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			plugins = append(plugins, key)
		}
	}
	for _, p := range capability.Plugins() {
		if p.Core {
			add(p.Key)
		}
	}
	for _, key := range v.Descriptor().Required {
		add(key)
	}
	for _, key := range site.Plugins {
		if _, ok := capability.Lookup(key); !ok {
			return nil, apperr.Validation(op, "unknown plugin "+key)
		}
		add(key)
	}
	site.Plugins = plugins

	created, err := s.creator.CreateSite(ctx, site)
	if err != nil {
		s.log.Warn("Site creation failed", zap.String("slug", site.Slug), zap.Error(err))
		return nil, err
	}
	s.log.Info("Site ready",
		zap.String("slug", created.Slug),
		zap.String("theme_id", created.ThemeID),
		zap.Strings("plugins", created.EnabledPlugins))
	return created, nil
}
