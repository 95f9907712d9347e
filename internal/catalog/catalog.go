package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suteetoe/vitrin/internal/pricing"
)

// Tag is a tenant-wide product label.
type Tag struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Category groups products for display.
type Category struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
	Order       int    `json:"order"`
}

// Product is the canonical product shape every theme consumes.
type Product struct {
	ID          uint   `json:"id"`
	CategoryID  uint   `json:"category_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Price       int64  `json:"price"`
	Discount    int    `json:"discount"`
	Available   bool   `json:"available"`
	Popular     bool   `json:"popular"`
	Badge       string `json:"badge,omitempty"`
	Tags        []Tag  `json:"tags,omitempty"`
	Image       string `json:"image,omitempty"`
	Order       int    `json:"order"`
}

// Catalog is a normalized, ordered set of categories and products.
type Catalog struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
}

// Anomaly records a backend record that was corrected or dropped.
type Anomaly struct {
	Entity string `json:"entity"`
	ID     uint   `json:"id"`
	Reason string `json:"reason"`
}

func (a Anomaly) String() string {
	return fmt.Sprintf("%s %d: %s", a.Entity, a.ID, a.Reason)
}

// Empty returns a catalog with no entries.
func Empty() Catalog {
	return Catalog{Categories: []Category{}, Products: []Product{}}
}

// Normalize converts a backend payload into the canonical shape. Malformed
// products are excluded instead of failing the whole catalog.
func Normalize(raw *Raw) (Catalog, []Anomaly) {
	out := Empty()
	if raw == nil {
		return out, nil
	}

	var anomalies []Anomaly
	known := make(map[uint]bool, len(raw.Categories))
	seenOrder := make(map[int]uint, len(raw.Categories))

	for _, rc := range raw.Categories {
		if known[rc.ID] {
			anomalies = append(anomalies, Anomaly{"category", rc.ID, "duplicate id"})
			continue
		}
		if other, dup := seenOrder[rc.Order]; dup {
			anomalies = append(anomalies, Anomaly{"category", rc.ID,
				fmt.Sprintf("display order %d shared with category %d", rc.Order, other)})
		} else {
			seenOrder[rc.Order] = rc.ID
		}
		known[rc.ID] = true

		active := true
		if rc.IsActive != nil {
			active = *rc.IsActive
		}
		out.Categories = append(out.Categories, Category{
			ID:          rc.ID,
			Name:        strings.TrimSpace(rc.Name),
			Description: rc.Description,
			Active:      active,
			Order:       rc.Order,
		})
	}

	seenProduct := make(map[uint]bool, len(raw.Products))
	for _, rp := range raw.Products {
		if seenProduct[rp.ID] {
			anomalies = append(anomalies, Anomaly{"product", rp.ID, "duplicate id"})
			continue
		}
		p, reason := normalizeProduct(rp, known)
		if reason != "" {
			anomalies = append(anomalies, Anomaly{"product", rp.ID, reason})
			if p == nil {
				continue
			}
		}
		seenProduct[rp.ID] = true
		out.Products = append(out.Products, *p)
	}

	sort.SliceStable(out.Categories, func(i, j int) bool {
		a, b := out.Categories[i], out.Categories[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})
	sort.SliceStable(out.Products, func(i, j int) bool {
		a, b := out.Products[i], out.Products[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})

	return out, anomalies
}

// normalizeProduct returns the product and an anomaly reason. A nil product
// means the record was dropped.
func normalizeProduct(rp RawProduct, categories map[uint]bool) (*Product, string) {
	title := strings.TrimSpace(rp.Title)
	if title == "" {
		title = strings.TrimSpace(rp.Name)
	}
	if title == "" {
		return nil, "missing title"
	}
	if rp.Price == nil {
		return nil, "missing price"
	}
	if *rp.Price <= 0 {
		return nil, "price must be positive"
	}
	if !categories[rp.Category] {
		return nil, fmt.Sprintf("unknown category %d", rp.Category)
	}

	available := true
	if rp.IsAvailable != nil {
		available = *rp.IsAvailable
	}

	tags := make([]Tag, 0, len(rp.Tags))
	for _, t := range rp.Tags {
		if strings.TrimSpace(t.Name) == "" {
			continue
		}
		tags = append(tags, Tag{ID: t.ID, Name: t.Name, Color: t.Color})
	}

	_, discount, clamped := pricing.Clamp(*rp.Price, rp.DiscountPercentage)
	p := &Product{
		ID:          rp.ID,
		CategoryID:  rp.Category,
		Title:       title,
		Description: rp.Description,
		Price:       *rp.Price,
		Discount:    discount,
		Available:   available,
		Popular:     rp.IsPopular,
		Badge:       rp.Badge,
		Tags:        tags,
		Image:       rp.Image,
		Order:       rp.Order,
	}
	if clamped {
		return p, fmt.Sprintf("discount %d clamped to %d", rp.DiscountPercentage, discount)
	}
	return p, ""
}

// Storefront returns the public view: inactive categories and their products
// are removed.
func (c Catalog) Storefront() Catalog {
	out := Empty()
	active := make(map[uint]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Active {
			active[cat.ID] = true
			out.Categories = append(out.Categories, cat)
		}
	}
	for _, p := range c.Products {
		if active[p.CategoryID] {
			out.Products = append(out.Products, p)
		}
	}
	return out
}

// Product looks up a product by id.
func (c Catalog) Product(id uint) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Filter narrows the product list shown on a storefront.
type Filter struct {
	CategoryID uint
	Query      string
}

// Filter returns the products matching f, in catalog order.
func (c Catalog) Filter(f Filter) []Product {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Product, 0, len(c.Products))
	for _, p := range c.Products {
		if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Title), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Popular returns products flagged as popular.
func (c Catalog) Popular() []Product {
	out := make([]Product, 0)
	for _, p := range c.Products {
		if p.Popular {
			out = append(out, p)
		}
	}
	return out
}
