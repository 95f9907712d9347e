package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/metrics"
)

// Client talks to the site backend REST API. It never retries; callers
// decide whether to offer a retry.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a backend client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{http: client, logger: logger}
}

// SetAuthToken forwards a bearer token on every request.
func (c *Client) SetAuthToken(token string) {
	c.http.SetAuthToken(token)
}

// FetchTenant implements tenant.Source.
func (c *Client) FetchTenant(ctx context.Context, slug string) (*tenant.Tenant, error) {
	const op = "backend.FetchTenant"
	start := time.Now()

	var site siteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("slug", slug).
		SetResult(&site).
		SetError(&errorResponse{}).
		Get("/site/public/{slug}/")
	err = c.check(op, resp, err)
	metrics.RecordBackendRequest("fetch_tenant", start, err)
	if err != nil {
		return nil, err
	}

	t, err := site.toTenant()
	if err != nil {
		c.logger.Error("Failed to decode site settings", zap.String("slug", slug), zap.Error(err))
		return nil, apperr.Wrap(apperr.KindInternal, op, "", err)
	}
	return t, nil
}

// FetchCatalog implements tenant.Source.
func (c *Client) FetchCatalog(ctx context.Context, slug string) (*catalog.Raw, error) {
	const op = "backend.FetchCatalog"
	start := time.Now()

	var raw catalog.Raw
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("slug", slug).
		SetResult(&raw).
		SetError(&errorResponse{}).
		Get("/menu/public-data/{slug}/")
	err = c.check(op, resp, err)
	metrics.RecordBackendRequest("fetch_catalog", start, err)
	if err != nil {
		return nil, err
	}
	if raw.PluginInactive {
		c.logger.Debug("Menu plugin inactive", zap.String("slug", slug))
	}
	return &raw, nil
}

// SetPlugin implements capability.Persister.
func (c *Client) SetPlugin(ctx context.Context, slug, key string, enabled bool) ([]string, error) {
	const op = "backend.SetPlugin"
	start := time.Now()

	var out pluginsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("slug", slug).
		SetBody(togglePluginRequest{PluginKey: key, IsActive: enabled}).
		SetResult(&out).
		SetError(&errorResponse{}).
		Patch("/sites/{slug}/plugins/")
	err = c.check(op, resp, err)
	metrics.RecordBackendRequest("set_plugin", start, err)
	if err != nil {
		return nil, err
	}
	return out.ActivePlugins, nil
}

// SetTheme implements theme.Persister.
func (c *Client) SetTheme(ctx context.Context, slug, themeID string) error {
	const op = "backend.SetTheme"
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("slug", slug).
		SetBody(map[string]string{"theme_id": themeID}).
		SetError(&errorResponse{}).
		Patch("/sites/{slug}/settings/")
	err = c.check(op, resp, err)
	metrics.RecordBackendRequest("set_theme", start, err)
	return err
}

// CreateSite registers a new site and returns it as stored.
func (c *Client) CreateSite(ctx context.Context, site tenant.NewSite) (*tenant.Tenant, error) {
	const op = "backend.CreateSite"
	start := time.Now()

	var created siteResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(createSiteRequest{
			Name:          site.Name,
			Slug:          site.Slug,
			Category:      site.Category,
			ThemeID:       site.ThemeID,
			ActivePlugins: site.Plugins,
			OwnerID:       site.OwnerID,
		}).
		SetResult(&created).
		SetError(&errorResponse{}).
		Post("/sites/")
	err = c.check(op, resp, err)
	metrics.RecordBackendRequest("create_site", start, err)
	if err != nil {
		return nil, err
	}
	return created.toTenant()
}

// Submit implements cart.Gateway.
func (c *Client) Submit(ctx context.Context, order cart.Order) (cart.Result, error) {
	const op = "backend.Checkout"
	start := time.Now()

	var out checkoutResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(order).
		SetResult(&out).
		SetError(&errorResponse{}).
		Post("/checkout/")
	err = c.check(op, resp, err)
	metrics.RecordBackendRequest("checkout", start, err)
	if err != nil {
		return cart.Result{}, err
	}
	return out.toResult(), nil
}

// check maps transport failures and HTTP statuses onto the error taxonomy.
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Warn("Backend request failed", zap.String("op", op), zap.Error(err))
		return apperr.Unavailable(op, err)
	}
	if resp.IsSuccess() {
		return nil
	}

	status := resp.StatusCode()
	var body errorResponse
	if e, ok := resp.Error().(*errorResponse); ok && e != nil {
		body = *e
	}
	c.logger.Warn("Backend returned error status",
		zap.String("op", op),
		zap.Int("status_code", status),
		zap.String("code", body.Code))

	switch {
	case status == http.StatusNotFound:
		return apperr.NotFound(op, body.message("not found"))
	case status == http.StatusForbidden || body.Code == codeThemeRequired:
		return apperr.Forbidden(op, body.message("not allowed"))
	case status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity:
		return apperr.Validation(op, body.message("invalid request"))
	case status == http.StatusUnauthorized:
		return apperr.Forbidden(op, "please sign in again")
	case status >= 500 || status == http.StatusTooManyRequests:
		return apperr.Unavailable(op, fmt.Errorf("backend status %d", status))
	}
	return apperr.Wrap(apperr.KindInternal, op, "", fmt.Errorf("unexpected backend status %d", status))
}
