package tenant

import (
	"context"
	"strings"

	"github.com/suteetoe/vitrin/internal/apperr"
)

// NewSite is the input of the site creation flow.
type NewSite struct {
	Name     string   `json:"name"`
	Slug     string   `json:"slug"`
	Category string   `json:"category"`
	ThemeID  string   `json:"theme_id"`
	Plugins  []string `json:"plugins,omitempty"`
	// OwnerID is the dashboard user creating the site, taken from the token.
	OwnerID uint `json:"-"`
}

// Creator persists new sites. Implementations reject taken slugs with a
// ValidationFailed error.
type Creator interface {
	CreateSite(ctx context.Context, site NewSite) (*Tenant, error)
}

// Normalize fills the slug from the name when absent and validates the
// required fields.
func (n NewSite) Normalize() (NewSite, error) {
	const op = "tenant.NewSite"

	n.Name = strings.TrimSpace(n.Name)
	n.Category = strings.TrimSpace(strings.ToLower(n.Category))
	n.Slug = strings.TrimSpace(strings.ToLower(n.Slug))
	if n.Name == "" {
		return n, apperr.Validation(op, "site name is required")
	}
	if n.Category == "" {
		return n, apperr.Validation(op, "business category is required")
	}
	if n.Slug == "" {
		n.Slug = Slugify(n.Name)
	}
	if err := ValidateSlug(n.Slug); err != nil {
		return n, err
	}
	return n, nil
}
