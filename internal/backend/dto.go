package backend

import (
	"bytes"
	"encoding/json"

	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/tenant"
)

const codeThemeRequired = "theme_required"

type errorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (e errorResponse) message(fallback string) string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Error != "":
		return e.Error
	}
	return fallback
}

// categoryField accepts either a category slug or an object carrying one.
type categoryField string

func (c *categoryField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = categoryField(s)
		return nil
	}
	var obj struct {
		Slug string `json:"slug"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*c = categoryField(obj.Slug)
	return nil
}

type siteResponse struct {
	ID               uint                `json:"id"`
	Slug             string              `json:"slug"`
	Name             string              `json:"name"`
	ThemeID          string              `json:"theme_id"`
	SourceIdentifier string              `json:"source_identifier"`
	Category         categoryField       `json:"category"`
	Settings         json.RawMessage     `json:"settings"`
	ActivePlugins    []string            `json:"active_plugins"`
	Subscription     tenant.Subscription `json:"subscription"`
}

func (s siteResponse) toTenant() (*tenant.Tenant, error) {
	settings, err := tenant.ParseSettings(s.Settings)
	if err != nil {
		return nil, err
	}
	themeID := s.ThemeID
	if themeID == "" {
		themeID = s.SourceIdentifier
	}
	plugins := s.ActivePlugins
	if plugins == nil {
		plugins = []string{}
	}
	return &tenant.Tenant{
		ID:             s.ID,
		Slug:           s.Slug,
		Name:           s.Name,
		Category:       string(s.Category),
		ThemeID:        themeID,
		Settings:       settings,
		EnabledPlugins: plugins,
		Subscription:   s.Subscription,
	}, nil
}

type togglePluginRequest struct {
	PluginKey string `json:"plugin_key"`
	IsActive  bool   `json:"is_active"`
}

type pluginsResponse struct {
	ActivePlugins []string `json:"active_plugins"`
	OwnerID       uint     `json:"owner_id,omitempty"`
}

type createSiteRequest struct {
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Category      string   `json:"category"`
	ThemeID       string   `json:"theme_id"`
	ActivePlugins []string `json:"active_plugins"`
}

type checkoutResponse struct {
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
}

func (r checkoutResponse) toResult() cart.Result {
	switch {
	case r.RedirectURL != "":
		return cart.Result{Outcome: cart.OutcomeRedirect, RedirectURL: r.RedirectURL}
	case r.Status == "success" || r.Status == "succeeded":
		return cart.Result{Outcome: cart.OutcomeSucceeded}
	}
	return cart.Result{Outcome: cart.OutcomeFailed, Reason: r.Reason}
}
