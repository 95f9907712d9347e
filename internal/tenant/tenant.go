package tenant

import (
	"encoding/json"
	"math"
	"time"
)

// Subscription states
const (
	SubscriptionTrial   = "trial"
	SubscriptionActive  = "active"
	SubscriptionExpired = "expired"
)

// TrialPeriod is granted to every newly created site.
const TrialPeriod = 24 * time.Hour

// Settings are the owner-editable storefront settings.
type Settings struct {
	AddressLine  string `json:"address_line,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Instagram    string `json:"instagram,omitempty"`
	Telegram     string `json:"telegram,omitempty"`
	Whatsapp     string `json:"whatsapp,omitempty"`
	Description  string `json:"description,omitempty"`
	Currency     string `json:"currency,omitempty"`
	PrimaryColor string `json:"primaryColor"`
	ShowPrices   bool   `json:"showPrices"`
}

// DefaultSettings returns the settings applied to absent keys.
func DefaultSettings() Settings {
	return Settings{
		PrimaryColor: "#000000",
		ShowPrices:   true,
	}
}

// ParseSettings decodes a settings document over the defaults. An empty
// document yields the defaults.
func ParseSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if len(data) == 0 || string(data) == "null" {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), err
	}
	if s.PrimaryColor == "" {
		s.PrimaryColor = "#000000"
	}
	return s, nil
}

// SettingsFromMap converts a loosely typed settings map.
func SettingsFromMap(m map[string]interface{}) (Settings, error) {
	if len(m) == 0 {
		return DefaultSettings(), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return DefaultSettings(), err
	}
	return ParseSettings(data)
}

// Subscription summarizes the billing state of a site.
type Subscription struct {
	Status   string `json:"status"`
	DaysLeft int    `json:"days_left"`
}

// ComputeSubscription derives the subscription state at now. A paid period
// takes precedence over the trial.
func ComputeSubscription(now time.Time, trialEndsAt, subscriptionEndsAt *time.Time) Subscription {
	if subscriptionEndsAt != nil && subscriptionEndsAt.After(now) {
		return Subscription{Status: SubscriptionActive, DaysLeft: daysUntil(now, *subscriptionEndsAt)}
	}
	if trialEndsAt != nil && trialEndsAt.After(now) {
		return Subscription{Status: SubscriptionTrial, DaysLeft: daysUntil(now, *trialEndsAt)}
	}
	return Subscription{Status: SubscriptionExpired}
}

func daysUntil(now, end time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

// Tenant is one site as seen by the rendering core.
type Tenant struct {
	ID             uint         `json:"id"`
	Slug           string       `json:"slug"`
	Name           string       `json:"name"`
	Category       string       `json:"category"`
	ThemeID        string       `json:"theme_id"`
	Settings       Settings     `json:"settings"`
	EnabledPlugins []string     `json:"enabled_plugins"`
	Subscription   Subscription `json:"subscription"`
}

// HasPlugin reports whether key is in the stored enabled set. It ignores
// theme requirements; use the capability registry for gating decisions.
func (t *Tenant) HasPlugin(key string) bool {
	if t == nil {
		return false
	}
	for _, k := range t.EnabledPlugins {
		if k == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to mutate.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	c.EnabledPlugins = append([]string(nil), t.EnabledPlugins...)
	return &c
}
