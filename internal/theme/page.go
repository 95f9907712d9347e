package theme

import (
	"github.com/suteetoe/vitrin/internal/capability"
	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/pricing"
	"github.com/suteetoe/vitrin/internal/tenant"
)

// Page is the theme-independent view model of a storefront.
type Page struct {
	Theme              string         `json:"theme"`
	Site               SiteView       `json:"site"`
	ShowPrices         bool           `json:"show_prices"`
	CanOrder           bool           `json:"can_order"`
	MenuEnabled        bool           `json:"menu_enabled"`
	CatalogUnavailable bool           `json:"catalog_unavailable"`
	Filter             FilterView     `json:"filter"`
	Categories         []CategoryView `json:"categories"`
	Sections           []SectionView  `json:"sections"`
	Products           []ProductView  `json:"products"`
	Popular            []ProductView  `json:"popular"`
	Cart               CartView       `json:"cart"`
	Notice             string         `json:"notice,omitempty"`
	Social             []SocialLink   `json:"social,omitempty"`
}

type SiteView struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
	PrimaryColor string `json:"primary_color"`
	Currency     string `json:"currency,omitempty"`
}

type SocialLink struct {
	Network string `json:"network"`
	Handle  string `json:"handle"`
}

type FilterView struct {
	CategoryID uint   `json:"category_id,omitempty"`
	Query      string `json:"query,omitempty"`
}

type CategoryView struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Selected    bool   `json:"selected"`
}

// SectionView is a category with its filtered products, for grouped layouts.
type SectionView struct {
	Category CategoryView  `json:"category"`
	Products []ProductView `json:"products"`
}

type ProductView struct {
	ID                 uint          `json:"id"`
	CategoryID         uint          `json:"category_id"`
	Title              string        `json:"title"`
	Description        string        `json:"description,omitempty"`
	Image              string        `json:"image,omitempty"`
	Badge              string        `json:"badge,omitempty"`
	Tags               []catalog.Tag `json:"tags,omitempty"`
	Price              int64         `json:"price"`
	Discount           int           `json:"discount"`
	EffectivePrice     int64         `json:"effective_price"`
	HasDiscount        bool          `json:"has_discount"`
	PriceText          string        `json:"price_text"`
	EffectivePriceText string        `json:"effective_price_text"`
	Available          bool          `json:"available"`
	CanAdd             bool          `json:"can_add"`
	InCart             int           `json:"in_cart"`
}

type CartLineView struct {
	ProductID     uint   `json:"product_id"`
	Title         string `json:"title"`
	Quantity      int    `json:"quantity"`
	UnitPrice     int64  `json:"unit_price"`
	LineTotal     int64  `json:"line_total"`
	UnitPriceText string `json:"unit_price_text"`
	LineTotalText string `json:"line_total_text"`
}

type CartView struct {
	Enabled   bool           `json:"enabled"`
	Lines     []CartLineView `json:"lines"`
	Count     int            `json:"count"`
	Total     int64          `json:"total"`
	TotalText string         `json:"total_text"`
}

// PageInput carries everything a page is built from.
type PageInput struct {
	Snapshot *tenant.Snapshot
	ThemeKey string
	Gate     capability.Gate
	Cart     *cart.Cart
	Filter   catalog.Filter
	Notice   string
}

// Builder turns snapshots into pages with one pricing engine so every
// variant shows the same numbers.
type Builder struct {
	prices *pricing.Engine
}

func NewBuilder(prices *pricing.Engine) *Builder {
	return &Builder{prices: prices}
}

// Build assembles the page. The catalog is hidden when the menu capability is
// off, and ordering controls appear only when the gate grants the cart.
func (b *Builder) Build(in PageInput) *Page {
	t := in.Snapshot.Tenant
	gate := in.Gate
	if gate == nil {
		gate = capability.GateFunc(func(string) bool { return false })
	}

	page := &Page{
		Theme:              in.ThemeKey,
		Site:               siteView(t),
		ShowPrices:         t.Settings.ShowPrices,
		CanOrder:           capability.CartEnabled(gate),
		MenuEnabled:        gate.IsEnabled(capability.Menu),
		CatalogUnavailable: in.Snapshot.State == tenant.StateCatalogUnavailable,
		Filter:             FilterView{CategoryID: in.Filter.CategoryID, Query: in.Filter.Query},
		Categories:         []CategoryView{},
		Sections:           []SectionView{},
		Products:           []ProductView{},
		Popular:            []ProductView{},
		Notice:             in.Notice,
		Social:             socialLinks(t.Settings),
	}

	inCart := map[uint]int{}
	if in.Cart != nil {
		for _, it := range in.Cart.Items() {
			inCart[it.ProductID] = it.Quantity
		}
	}
	page.Cart = b.cartView(in.Cart, page.CanOrder)

	if !page.MenuEnabled {
		return page
	}

	public := in.Snapshot.Catalog.Storefront()
	for _, c := range public.Categories {
		page.Categories = append(page.Categories, CategoryView{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Selected:    c.ID == in.Filter.CategoryID,
		})
	}

	filtered := public.Filter(in.Filter)
	byCategory := map[uint][]ProductView{}
	for _, p := range filtered {
		v := b.productView(p, page.CanOrder, inCart[p.ID])
		page.Products = append(page.Products, v)
		byCategory[p.CategoryID] = append(byCategory[p.CategoryID], v)
	}
	for _, c := range page.Categories {
		if len(byCategory[c.ID]) == 0 {
			continue
		}
		page.Sections = append(page.Sections, SectionView{Category: c, Products: byCategory[c.ID]})
	}
	for _, p := range public.Popular() {
		page.Popular = append(page.Popular, b.productView(p, page.CanOrder, inCart[p.ID]))
	}
	return page
}

func (b *Builder) productView(p catalog.Product, canOrder bool, inCart int) ProductView {
	effective := b.prices.EffectivePrice(p.ID, p.Price, p.Discount)
	return ProductView{
		ID:                 p.ID,
		CategoryID:         p.CategoryID,
		Title:              p.Title,
		Description:        p.Description,
		Image:              p.Image,
		Badge:              p.Badge,
		Tags:               p.Tags,
		Price:              p.Price,
		Discount:           p.Discount,
		EffectivePrice:     effective,
		HasDiscount:        effective < p.Price,
		PriceText:          b.prices.Format(p.Price),
		EffectivePriceText: b.prices.Format(effective),
		Available:          p.Available,
		CanAdd:             canOrder && p.Available,
		InCart:             inCart,
	}
}

func (b *Builder) cartView(c *cart.Cart, enabled bool) CartView {
	view := CartView{Enabled: enabled, Lines: []CartLineView{}, TotalText: b.prices.Format(0)}
	if c == nil {
		return view
	}
	for _, it := range c.Items() {
		view.Lines = append(view.Lines, CartLineView{
			ProductID:     it.ProductID,
			Title:         it.Title,
			Quantity:      it.Quantity,
			UnitPrice:     it.EffectivePrice,
			LineTotal:     it.LineTotal(),
			UnitPriceText: b.prices.Format(it.EffectivePrice),
			LineTotalText: b.prices.Format(it.LineTotal()),
		})
	}
	view.Count = c.Count()
	view.Total = c.Total()
	view.TotalText = b.prices.Format(view.Total)
	return view
}

func siteView(t *tenant.Tenant) SiteView {
	return SiteView{
		Slug:         t.Slug,
		Name:         t.Name,
		Description:  t.Settings.Description,
		Address:      t.Settings.AddressLine,
		Phone:        t.Settings.Phone,
		PrimaryColor: t.Settings.PrimaryColor,
		Currency:     t.Settings.Currency,
	}
}

func socialLinks(s tenant.Settings) []SocialLink {
	var links []SocialLink
	for _, l := range []SocialLink{
		{"instagram", s.Instagram},
		{"telegram", s.Telegram},
		{"whatsapp", s.Whatsapp},
	} {
		if l.Handle != "" {
			links = append(links, l)
		}
	}
	return links
}
