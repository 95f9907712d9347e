package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/dashboard"
	"github.com/suteetoe/vitrin/internal/storefront"
	"github.com/suteetoe/vitrin/logger"
	mid "github.com/suteetoe/vitrin/middleware"
)

// SessionCookie names the cookie carrying the storefront session id.
const SessionCookie = "vitrin_session"

// Handler serves the storefront and the dashboard API.
type Handler struct {
	sessions      *storefront.Manager
	dashboard     *dashboard.Service
	secureCookies bool
	sessionIdle   time.Duration
}

// Options configures New.
type Options struct {
	SecureCookies bool
	SessionIdle   time.Duration
}

func New(sessions *storefront.Manager, dash *dashboard.Service, opts Options) *Handler {
	idle := opts.SessionIdle
	if idle <= 0 {
		idle = storefront.DefaultIdleTimeout
	}
	return &Handler{
		sessions:      sessions,
		dashboard:     dash,
		secureCookies: opts.SecureCookies,
		sessionIdle:   idle,
	}
}

// Register mounts every route on e. auth guards the dashboard group.
func (h *Handler) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	e.GET("/health", Health)

	site := e.Group("/s/:slug")
	site.GET("", h.StorefrontPage)
	site.POST("/cart/add", h.FormAddItem)
	site.POST("/cart/update", h.FormUpdateItem)
	site.POST("/cart/remove", h.FormRemoveItem)
	site.POST("/cart/checkout", h.FormCheckout)

	api := e.Group("/api/storefront/:slug")
	api.GET("", h.StorefrontJSON)
	api.GET("/cart", h.GetCart)
	api.DELETE("/cart", h.ClearCart)
	api.POST("/cart/items", h.AddItem)
	api.PATCH("/cart/items/:id", h.UpdateItem)
	api.DELETE("/cart/items/:id", h.RemoveItem)
	api.POST("/checkout", h.Checkout)

	dash := e.Group("/api/dashboard", auth)
	dash.GET("", h.DashboardHome)
	dash.POST("/sites", h.CreateSite)

	owned := dash.Group("/sites/:slug", mid.RequireSite("slug"))
	owned.GET("", h.SiteOverview)
	owned.GET("/navigation", h.Navigation)
	owned.GET("/access", h.Access)
	owned.GET("/plugins", h.ListPlugins)
	owned.PUT("/plugins/:key", h.SetPlugin)
	owned.GET("/themes", h.ListThemes)
	owned.PUT("/theme", h.SetTheme)
}

// Health reports liveness.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// session returns the visitor's session, issuing a cookie for new ones.
func (h *Handler) session(c echo.Context) *storefront.Session {
	id := ""
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		id = cookie.Value
	}
	s, created := h.sessions.GetOrCreate(id)
	if created {
		c.SetCookie(&http.Cookie{
			Name:     SessionCookie,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(h.sessionIdle.Seconds()),
		})
	}
	return s
}

// errorJSON writes err with the status and message for its kind.
func errorJSON(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	log := logger.FromEcho(c)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", zap.Error(err))
	} else {
		log.Info("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	body := echo.Map{
		"error": apperr.UserMessage(err),
		"kind":  string(apperr.KindOf(err)),
	}
	if apperr.KindOf(err) == apperr.KindUnavailable {
		body["retryable"] = true
	}
	return c.JSON(status, body)
}
