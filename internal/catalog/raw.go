package catalog

import (
	"bytes"
	"encoding/json"
)

// Raw is the catalog payload as delivered by the backend for one tenant.
type Raw struct {
	Categories     []RawCategory `json:"categories"`
	Products       []RawProduct  `json:"products"`
	PluginInactive bool          `json:"plugin_inactive,omitempty"`
}

// RawCategory is a backend category record.
type RawCategory struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
	Order       int    `json:"order"`
}

// RawProduct is a backend product record. Older payloads carry "name"
// instead of "title" and may omit the price entirely.
type RawProduct struct {
	ID                 uint     `json:"id"`
	Category           uint     `json:"category"`
	Title              string   `json:"title"`
	Name               string   `json:"name,omitempty"`
	Description        string   `json:"description"`
	Price              *int64   `json:"price"`
	DiscountPercentage int      `json:"discount_percentage"`
	IsAvailable        *bool    `json:"is_available"`
	IsPopular          bool     `json:"is_popular"`
	Badge              string   `json:"badge"`
	Tags               []RawTag `json:"tags"`
	Image              string   `json:"image"`
	Order              int      `json:"order"`
}

// RawTag accepts either a tag object or a bare tag name.
type RawTag struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (t *RawTag) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &t.Name)
	}
	type plain RawTag
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = RawTag(p)
	return nil
}
