package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/model"
	"github.com/suteetoe/vitrin/internal/tenant"
)

// Store serves tenant data straight from PostgreSQL. It implements the same
// boundaries as the REST backend client.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func New(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// dbError classifies a gorm error. Missing rows are NotFound; everything
// else is treated as the database being unavailable.
func (s *Store) dbError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(op, "site not found")
	}
	s.logger.Error("Database operation failed", zap.String("op", op), zap.Error(err))
	return apperr.Unavailable(op, err)
}

func (s *Store) site(ctx context.Context, op, slug string) (*model.Site, error) {
	var site model.Site
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&site).Error; err != nil {
		return nil, s.dbError(op, err)
	}
	return &site, nil
}

func (s *Store) activePlugins(ctx context.Context, siteID uint) ([]string, error) {
	keys := []string{}
	err := s.db.WithContext(ctx).
		Model(&model.SitePlugin{}).
		Where("site_id = ? AND is_active = ?", siteID, true).
		Order("id").
		Pluck("plugin_key", &keys).Error
	return keys, err
}

// FetchTenant implements tenant.Source.
func (s *Store) FetchTenant(ctx context.Context, slug string) (*tenant.Tenant, error) {
	const op = "store.FetchTenant"

	site, err := s.site(ctx, op, slug)
	if err != nil {
		return nil, err
	}
	plugins, err := s.activePlugins(ctx, site.ID)
	if err != nil {
		return nil, s.dbError(op, err)
	}

	settings, err := tenant.SettingsFromMap(site.Settings)
	if err != nil {
		s.logger.Warn("Invalid site settings, using defaults", zap.String("slug", slug), zap.Error(err))
	}

	return &tenant.Tenant{
		ID:             site.ID,
		Slug:           site.Slug,
		Name:           site.Name,
		Category:       site.Category,
		ThemeID:        site.ThemeID,
		Settings:       settings,
		EnabledPlugins: plugins,
		Subscription:   tenant.ComputeSubscription(s.now(), site.TrialEndsAt, site.SubscriptionEndsAt),
	}, nil
}

type productTagRow struct {
	ProductID uint
	TagID     uint
	Name      string
	Color     string
}

// FetchCatalog implements tenant.Source.
func (s *Store) FetchCatalog(ctx context.Context, slug string) (*catalog.Raw, error) {
	const op = "store.FetchCatalog"

	site, err := s.site(ctx, op, slug)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var categories []model.Category
	if err := db.Where("site_id = ?", site.ID).Order("display_order, id").Find(&categories).Error; err != nil {
		return nil, s.dbError(op, err)
	}
	var products []model.Product
	if err := db.Where("site_id = ?", site.ID).Order("display_order, id").Find(&products).Error; err != nil {
		return nil, s.dbError(op, err)
	}
	var tagRows []productTagRow
	err = db.Table("product_tags").
		Select("product_tags.product_id, tags.id AS tag_id, tags.name, tags.color").
		Joins("JOIN tags ON tags.id = product_tags.tag_id").
		Where("tags.site_id = ?", site.ID).
		Order("product_tags.product_id, product_tags.position").
		Scan(&tagRows).Error
	if err != nil {
		return nil, s.dbError(op, err)
	}

	tags := map[uint][]catalog.RawTag{}
	for _, r := range tagRows {
		tags[r.ProductID] = append(tags[r.ProductID], catalog.RawTag{ID: r.TagID, Name: r.Name, Color: r.Color})
	}

	raw := &catalog.Raw{
		Categories: make([]catalog.RawCategory, 0, len(categories)),
		Products:   make([]catalog.RawProduct, 0, len(products)),
	}
	for _, c := range categories {
		active := c.IsActive
		raw.Categories = append(raw.Categories, catalog.RawCategory{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			IsActive:    &active,
			Order:       c.DisplayOrder,
		})
	}
	for _, p := range products {
		price := p.Price
		available := p.IsAvailable
		raw.Products = append(raw.Products, catalog.RawProduct{
			ID:                 p.ID,
			Category:           p.CategoryID,
			Title:              p.Title,
			Description:        p.Description,
			Price:              &price,
			DiscountPercentage: p.DiscountPercentage,
			IsAvailable:        &available,
			IsPopular:          p.IsPopular,
			Badge:              p.Badge,
			Tags:               tags[p.ID],
			Image:              p.Image,
			Order:              p.DisplayOrder,
		})
	}
	return raw, nil
}

// SetPlugin implements capability.Persister.
func (s *Store) SetPlugin(ctx context.Context, slug, key string, enabled bool) ([]string, error) {
	const op = "store.SetPlugin"

	site, err := s.site(ctx, op, slug)
	if err != nil {
		return nil, err
	}
	row := model.SitePlugin{SiteID: site.ID, PluginKey: key, IsActive: enabled}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "site_id"}, {Name: "plugin_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, s.dbError(op, err)
	}

	plugins, err := s.activePlugins(ctx, site.ID)
	if err != nil {
		return nil, s.dbError(op, err)
	}
	return plugins, nil
}

// SetTheme implements theme.Persister.
func (s *Store) SetTheme(ctx context.Context, slug, themeID string) error {
	const op = "store.SetTheme"

	res := s.db.WithContext(ctx).Model(&model.Site{}).Where("slug = ?", slug).Update("theme_id", themeID)
	if res.Error != nil {
		return s.dbError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(op, "site not found")
	}
	return nil
}

// CreateSite implements tenant.Creator. The site starts with a trial and
// the given plugins active.
func (s *Store) CreateSite(ctx context.Context, in tenant.NewSite) (*tenant.Tenant, error) {
	const op = "store.CreateSite"

	var taken int64
	if err := s.db.WithContext(ctx).Model(&model.Site{}).Unscoped().Where("slug = ?", in.Slug).Count(&taken).Error; err != nil {
		return nil, s.dbError(op, err)
	}
	if taken > 0 {
		return nil, apperr.Validation(op, "this address is already taken")
	}

	now := s.now()
	trialEnds := now.Add(tenant.TrialPeriod)
	site := model.Site{
		Slug:        in.Slug,
		Name:        in.Name,
		Category:    in.Category,
		ThemeID:     in.ThemeID,
		OwnerID:     in.OwnerID,
		TrialEndsAt: &trialEnds,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&site).Error; err != nil {
			return err
		}
		if len(in.Plugins) == 0 {
			return nil
		}
		rows := make([]model.SitePlugin, 0, len(in.Plugins))
		for _, key := range in.Plugins {
			rows = append(rows, model.SitePlugin{SiteID: site.ID, PluginKey: key, IsActive: true})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, s.dbError(op, err)
	}

	s.logger.Info("Site created",
		zap.String("slug", site.Slug),
		zap.Uint("site_id", site.ID),
		zap.Uint("owner_id", site.OwnerID))
	plugins := append([]string{}, in.Plugins...)
	return &tenant.Tenant{
		ID:             site.ID,
		Slug:           site.Slug,
		Name:           site.Name,
		Category:       site.Category,
		ThemeID:        site.ThemeID,
		Settings:       tenant.DefaultSettings(),
		EnabledPlugins: plugins,
		Subscription:   tenant.ComputeSubscription(now, &trialEnds, nil),
	}, nil
}

// Submit implements cart.Gateway by recording the order. No payment is
// taken, so every recorded order succeeds.
func (s *Store) Submit(ctx context.Context, order cart.Order) (cart.Result, error) {
	const op = "store.Checkout"

	site, err := s.site(ctx, op, order.Tenant)
	if err != nil {
		return cart.Result{}, err
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return cart.Result{}, apperr.Wrap(apperr.KindInternal, op, "", err)
	}

	row := model.Order{SiteID: site.ID, Items: items, Total: order.Total, Status: "received"}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return cart.Result{}, s.dbError(op, err)
	}
	s.logger.Info("Order recorded",
		zap.String("slug", order.Tenant),
		zap.Uint("order_id", row.ID),
		zap.Int64("total", order.Total))
	return cart.Result{Outcome: cart.OutcomeSucceeded}, nil
}
