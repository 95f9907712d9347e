package capability

import (
	"fmt"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/tenant"
)

// Requirements reports the capabilities a theme cannot run without. Unknown
// theme ids must resolve through the same fallback used for rendering.
type Requirements interface {
	RequiredCapabilities(themeID string) []string
}

// Gate is a capability predicate bound to one tenant.
type Gate interface {
	IsEnabled(key string) bool
}

// GateFunc adapts a function to Gate.
type GateFunc func(key string) bool

func (f GateFunc) IsEnabled(key string) bool { return f(key) }

// AllowAll enables every capability. Used by tests.
var AllowAll Gate = GateFunc(func(string) bool { return true })

// CartEnabled reports whether g grants the shopping cart.
func CartEnabled(g Gate) bool {
	if g == nil {
		return false
	}
	for _, k := range CartKeys {
		if g.IsEnabled(k) {
			return true
		}
	}
	return false
}

// Registry answers capability questions for tenants.
type Registry struct {
	themes Requirements
}

func NewRegistry(themes Requirements) *Registry {
	return &Registry{themes: themes}
}

// IsEnabled reports whether key is usable for t: either stored as enabled or
// required by the tenant's theme.
func (r *Registry) IsEnabled(t *tenant.Tenant, key string) bool {
	if t == nil {
		return false
	}
	if t.HasPlugin(key) {
		return true
	}
	return r.requiredBy(t, key)
}

// Gate binds the predicate to t.
func (r *Registry) Gate(t *tenant.Tenant) Gate {
	return GateFunc(func(key string) bool { return r.IsEnabled(t, key) })
}

func (r *Registry) requiredBy(t *tenant.Tenant, key string) bool {
	if r.themes == nil {
		return false
	}
	for _, k := range r.themes.RequiredCapabilities(t.ThemeID) {
		if k == key {
			return true
		}
	}
	return false
}

// Change is the outcome of a validated toggle.
type Change struct {
	Key     string   `json:"plugin_key"`
	Enabled bool     `json:"is_active"`
	Plugins []string `json:"active_plugins"`
	// NoOp is set when the stored set already matches.
	NoOp bool `json:"-"`
}

// ErrThemeRequired is matched by toggles refused because the active theme
// needs the capability.
var ErrThemeRequired = apperr.Forbidden("capability.Toggle", "this feature is required by the active theme")

// Toggle validates switching key to desired for t and returns the proposed
// stored set. t is never modified.
func (r *Registry) Toggle(t *tenant.Tenant, key string, desired bool) (Change, error) {
	const op = "capability.Toggle"

	if t == nil {
		return Change{}, apperr.Validation(op, "no site selected")
	}
	p, ok := Lookup(key)
	if !ok {
		return Change{}, apperr.Validation(op, fmt.Sprintf("unknown plugin %q", key))
	}
	if !desired {
		if p.Core {
			return Change{}, apperr.Forbidden(op, "core features cannot be disabled")
		}
		if r.requiredBy(t, key) {
			return Change{}, ErrThemeRequired
		}
	}

	change := Change{Key: key, Enabled: desired}
	stored := t.HasPlugin(key)
	switch {
	case stored == desired:
		change.NoOp = true
		change.Plugins = append([]string(nil), t.EnabledPlugins...)
	case desired:
		change.Plugins = append(append([]string(nil), t.EnabledPlugins...), key)
	default:
		change.Plugins = make([]string, 0, len(t.EnabledPlugins))
		for _, k := range t.EnabledPlugins {
			if k != key {
				change.Plugins = append(change.Plugins, k)
			}
		}
	}
	return change, nil
}

// Descriptor is a plugin as listed on the dashboard plugins page.
type Descriptor struct {
	Plugin
	Enabled         bool `json:"enabled"`
	RequiredByTheme bool `json:"required_by_theme"`
	// Locked plugins cannot be switched off from the dashboard.
	Locked bool `json:"locked"`
}

// Describe lists every plugin with its state for t.
func (r *Registry) Describe(t *tenant.Tenant) []Descriptor {
	out := make([]Descriptor, 0, len(plugins))
	for _, p := range plugins {
		required := t != nil && r.requiredBy(t, p.Key)
		out = append(out, Descriptor{
			Plugin:          p,
			Enabled:         r.IsEnabled(t, p.Key),
			RequiredByTheme: required,
			Locked:          p.Core || required,
		})
	}
	return out
}
