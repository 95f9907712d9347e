package theme

import (
	"io"

	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/metrics"
)

// Theme keys.
const (
	MinimalCafe        = "minimal-cafe"
	ModernRestaurant   = "modern-restaurant"
	TraditionalPersian = "traditional-persian"

	Default = MinimalCafe
)

// Descriptor is the static description of a theme variant.
type Descriptor struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required_plugins"`
	Categories  []string `json:"categories"`
}

// SuitsCategory reports whether the theme is offered for a business category.
func (d Descriptor) SuitsCategory(category string) bool {
	for _, c := range d.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Variant renders a storefront page in one visual style. Every variant reads
// the same Page, so business values never differ between them.
type Variant interface {
	Key() string
	Descriptor() Descriptor
	Render(w io.Writer, page *Page) error
}

// Resolution is the result of resolving a tenant's theme id.
type Resolution struct {
	Variant Variant
	// Fallback is set when the requested id was unknown.
	Fallback bool
}

// Resolver maps theme ids to variants.
type Resolver struct {
	variants map[string]Variant
	order    []string
	log      *zap.Logger
}

// NewResolver creates a resolver holding the built-in variants.
func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resolver{variants: map[string]Variant{}, log: log}
	for _, v := range builtins() {
		r.register(v)
	}
	return r
}

func (r *Resolver) register(v Variant) {
	if _, dup := r.variants[v.Key()]; !dup {
		r.order = append(r.order, v.Key())
	}
	r.variants[v.Key()] = v
}

// Resolve returns the variant for themeID, falling back to the default for
// unknown or empty ids. It never fails.
func (r *Resolver) Resolve(themeID string) Resolution {
	if v, ok := r.variants[themeID]; ok {
		return Resolution{Variant: v}
	}
	metrics.RecordThemeFallback(themeID)
	r.log.Warn("Unknown theme, using default",
		zap.String("theme_id", themeID),
		zap.String("default", Default))
	return Resolution{Variant: r.variants[Default], Fallback: true}
}

// Lookup finds a variant without falling back.
func (r *Resolver) Lookup(themeID string) (Variant, bool) {
	v, ok := r.variants[themeID]
	return v, ok
}

// RequiredCapabilities implements capability.Requirements.
func (r *Resolver) RequiredCapabilities(themeID string) []string {
	v, ok := r.variants[themeID]
	if !ok {
		v = r.variants[Default]
	}
	return v.Descriptor().Required
}

var _ capability.Requirements = (*Resolver)(nil)

// Descriptors lists every variant in registration order.
func (r *Resolver) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.variants[k].Descriptor())
	}
	return out
}

// ThemesFor lists the variants offered for a business category.
func (r *Resolver) ThemesFor(category string) []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, d := range r.Descriptors() {
		if d.SuitsCategory(category) {
			out = append(out, d)
		}
	}
	return out
}

// ChangeTheme validates switching t to themeID and returns the updated copy.
// The previous theme is replaced entirely.
func (r *Resolver) ChangeTheme(t *tenant.Tenant, themeID string) (*tenant.Tenant, error) {
	const op = "theme.ChangeTheme"

	if t == nil {
		return nil, apperr.Validation(op, "no site selected")
	}
	v, ok := r.Lookup(themeID)
	if !ok {
		return t, apperr.Validation(op, "unknown theme "+themeID)
	}
	if t.Category != "" && !v.Descriptor().SuitsCategory(t.Category) {
		return t, apperr.Validation(op, "this theme is not available for your business category")
	}
	updated := t.Clone()
	updated.ThemeID = themeID
	return updated, nil
}
