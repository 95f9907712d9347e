package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/tenant"
	"github.com/suteetoe/vitrin/logger"
	mid "github.com/suteetoe/vitrin/middleware"
)

// DashboardHome lists the sections available before a site is selected,
// along with the sites the token grants.
func (h *Handler) DashboardHome(c echo.Context) error {
	o, err := h.dashboard.Overview(c.Request().Context(), "")
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"navigation": o.Navigation,
		"sites":      mid.Owner(c).Sites,
	})
}

func (h *Handler) SiteOverview(c echo.Context) error {
	o, err := h.dashboard.Overview(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) Navigation(c echo.Context) error {
	sections, err := h.dashboard.Navigation(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, sections)
}

// Access reports whether the dashboard page at ?path= may be opened.
func (h *Handler) Access(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return errorJSON(c, apperr.Validation("handler.Access", "path is required"))
	}
	ok, err := h.dashboard.CanOpen(c.Request().Context(), c.Param("slug"), path)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"path": path, "allowed": ok})
}

func (h *Handler) ListPlugins(c echo.Context) error {
	plugins, err := h.dashboard.Plugins(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, plugins)
}

// SetPluginRequest is the body of PUT /plugins/:key.
type SetPluginRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetPlugin toggles one plugin. A rejected toggle still returns the current
// list so the dashboard can revert its switch.
func (h *Handler) SetPlugin(c echo.Context) error {
	log := logger.FromEcho(c)
	var req SetPluginRequest
	if err := c.Bind(&req); err != nil || req.Enabled == nil {
		return errorJSON(c, apperr.Validation("handler.SetPlugin", "enabled is required"))
	}

	slug, key := c.Param("slug"), c.Param("key")
	plugins, err := h.dashboard.SetPlugin(c.Request().Context(), slug, key, *req.Enabled)
	if err != nil {
		status := apperr.HTTPStatus(err)
		log.Info("Plugin toggle refused",
			zap.String("slug", slug),
			zap.String("plugin_key", key),
			zap.Int("status", status),
			zap.Error(err))
		body := echo.Map{"error": apperr.UserMessage(err), "kind": string(apperr.KindOf(err))}
		if plugins != nil {
			body["plugins"] = plugins
		}
		return c.JSON(status, body)
	}
	return c.JSON(http.StatusOK, plugins)
}

func (h *Handler) ListThemes(c echo.Context) error {
	themes, err := h.dashboard.Themes(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, themes)
}

// SetThemeRequest is the body of PUT /theme.
type SetThemeRequest struct {
	ThemeID string `json:"theme_id"`
}

func (h *Handler) SetTheme(c echo.Context) error {
	var req SetThemeRequest
	if err := c.Bind(&req); err != nil || req.ThemeID == "" {
		return errorJSON(c, apperr.Validation("handler.SetTheme", "theme_id is required"))
	}
	site, err := h.dashboard.SetTheme(c.Request().Context(), c.Param("slug"), req.ThemeID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, site)
}

func (h *Handler) CreateSite(c echo.Context) error {
	var req tenant.NewSite
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperr.Validation("handler.CreateSite", "invalid request data"))
	}
	req.OwnerID = mid.Owner(c).UserID
	site, err := h.dashboard.CreateSite(c.Request().Context(), req)
	if err != nil {
		return errorJSON(c, err)
	}
	logger.FromEcho(c).Info("Site created from dashboard",
		zap.String("slug", site.Slug),
		zap.Uint("user_id", mid.Owner(c).UserID))
	return c.JSON(http.StatusCreated, site)
}
