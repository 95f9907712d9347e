package navigation

import (
	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/tenant"
)

// Section is one entry of the dashboard sidebar. An empty Capability means
// the section is always shown once a site is selected.
type Section struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Path       string `json:"path"`
	Capability string `json:"capability,omitempty"`
	// Global sections are shown even when no site is selected.
	Global bool `json:"-"`
}

// Sections is the dashboard sidebar in display order.
var Sections = []Section{
	{Key: "dashboard", Label: "Dashboard", Path: "/dashboard", Global: true},
	{Key: "analytics", Label: "Analytics", Path: "/dashboard/analytics", Capability: capability.Analytics},
	{Key: "plugins", Label: "Plugins", Path: "/dashboard/plugins"},
	{Key: "settings", Label: "Settings", Path: "/dashboard/settings"},
	{Key: "themes", Label: "Themes", Path: "/dashboard/themes"},
	{Key: "products", Label: "Products", Path: "/dashboard/cafe/menu", Capability: capability.Menu},
	{Key: "categories", Label: "Categories", Path: "/dashboard/cafe/categories", Capability: capability.Menu},
	{Key: "orders", Label: "Orders", Path: "/dashboard/orders", Capability: capability.Order},
	{Key: "payments", Label: "Payments", Path: "/dashboard/payments", Capability: capability.Ecommerce},
	{Key: "subscription", Label: "Subscription", Path: "/dashboard/subscription", Global: true},
}

// Predicate is the capability check the gate consults.
type Predicate interface {
	IsEnabled(t *tenant.Tenant, key string) bool
}

// Selection is the dashboard's current site, nil when none is selected.
type Selection struct {
	Tenant *tenant.Tenant
}

// Visible filters sections for the selection, preserving order.
func Visible(sections []Section, sel Selection, registry Predicate) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if sel.Tenant == nil {
			if s.Global {
				out = append(out, s)
			}
			continue
		}
		if s.Capability == "" || (registry != nil && registry.IsEnabled(sel.Tenant, s.Capability)) {
			out = append(out, s)
		}
	}
	return out
}

// Allowed reports whether path may be opened for the selection. It lets
// route guards reuse the sidebar rules.
func Allowed(path string, sel Selection, registry Predicate) bool {
	for _, s := range Visible(Sections, sel, registry) {
		if s.Path == path {
			return true
		}
	}
	return false
}
