package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/internal/apperr"
	"github.com/suteetoe/vitrin/internal/cart"
	"github.com/suteetoe/vitrin/internal/catalog"
	"github.com/suteetoe/vitrin/internal/storefront"
	"github.com/suteetoe/vitrin/logger"
)

var errorPage = template.Must(template.New("error").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body data-error="{{.Kind}}">
<main>
  <h1>{{.Title}}</h1>
  <p>{{.Message}}</p>
  {{if .Retry}}<p><a href="{{.Retry}}" data-action="retry">Try again</a></p>{{end}}
</main>
</body>
</html>
`))

type errorView struct {
	Title   string
	Message string
	Kind    string
	Retry   string
}

// errorHTML renders the error page for a storefront failure.
func errorHTML(c echo.Context, err error) error {
	status := apperr.HTTPStatus(err)
	view := errorView{Kind: string(apperr.KindOf(err)), Message: apperr.UserMessage(err)}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		view.Title = "Site not found"
	case apperr.KindUnavailable:
		view.Title = "Temporarily unavailable"
		view.Retry = c.Request().URL.RequestURI()
	default:
		view.Title = "Something went wrong"
	}
	if status >= http.StatusInternalServerError {
		logger.FromEcho(c).Error("Storefront request failed", zap.Error(err))
	}

	var buf bytes.Buffer
	if rerr := errorPage.Execute(&buf, view); rerr != nil {
		return rerr
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// filterFrom reads the catalog filter from the q and category parameters.
func filterFrom(c echo.Context) catalog.Filter {
	f := catalog.Filter{Query: strings.TrimSpace(c.QueryParam("q"))}
	if id, err := strconv.ParseUint(c.QueryParam("category"), 10, 64); err == nil {
		f.CategoryID = uint(id)
	}
	return f
}

// StorefrontPage renders the site with its theme.
func (h *Handler) StorefrontPage(c echo.Context) error {
	slug := c.Param("slug")
	s := h.session(c)

	page, variant, err := s.Page(c.Request().Context(), slug, filterFrom(c))
	if err != nil {
		return errorHTML(c, err)
	}

	var buf bytes.Buffer
	if err := variant.Render(&buf, page); err != nil {
		return errorHTML(c, apperr.Wrap(apperr.KindInternal, "handler.StorefrontPage", "", err))
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// StorefrontJSON returns the page view model for client-rendered themes.
func (h *Handler) StorefrontJSON(c echo.Context) error {
	page, _, err := h.session(c).Page(c.Request().Context(), c.Param("slug"), filterFrom(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

func formProductID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.FormValue("product_id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// backToSite finishes a form post by flashing notice and redirecting to the
// storefront, so a reload never re-submits.
func backToSite(c echo.Context, s *storefront.Session, notice string) error {
	s.Flash(notice)
	return c.Redirect(http.StatusSeeOther, "/s/"+url.PathEscape(c.Param("slug")))
}

// formResult maps a cart mutation outcome to the redirect flow.
func formResult(c echo.Context, s *storefront.Session, err error, success string) error {
	if err == nil {
		return backToSite(c, s, success)
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindForbidden, apperr.KindValidationFailed:
		return backToSite(c, s, apperr.UserMessage(err))
	}
	return errorHTML(c, err)
}

func (h *Handler) FormAddItem(c echo.Context) error {
	s := h.session(c)
	id, ok := formProductID(c)
	if !ok {
		return backToSite(c, s, "That item could not be found")
	}
	_, err := s.AddItem(c.Request().Context(), c.Param("slug"), id)
	return formResult(c, s, err, "Added to your order")
}

func (h *Handler) FormUpdateItem(c echo.Context) error {
	s := h.session(c)
	id, ok := formProductID(c)
	delta, derr := strconv.Atoi(c.FormValue("delta"))
	if !ok || derr != nil {
		return backToSite(c, s, "That change could not be applied")
	}
	_, err := s.UpdateItem(c.Request().Context(), c.Param("slug"), id, delta)
	return formResult(c, s, err, "Your order was updated")
}

func (h *Handler) FormRemoveItem(c echo.Context) error {
	s := h.session(c)
	id, ok := formProductID(c)
	if !ok {
		return backToSite(c, s, "That item could not be found")
	}
	_, err := s.RemoveItem(c.Request().Context(), c.Param("slug"), id)
	return formResult(c, s, err, "Removed from your order")
}

func (h *Handler) FormCheckout(c echo.Context) error {
	s := h.session(c)
	res, _, err := s.Checkout(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return formResult(c, s, err, "")
	}
	switch res.Outcome {
	case cart.OutcomeRedirect:
		return c.Redirect(http.StatusSeeOther, res.RedirectURL)
	case cart.OutcomeSucceeded:
		return backToSite(c, s, "Thank you! Your order has been placed.")
	default:
		return backToSite(c, s, checkoutFailedNotice(res))
	}
}

func checkoutFailedNotice(res cart.Result) string {
	if res.Reason != "" {
		return "Your order could not be placed: " + res.Reason + ". Your cart was kept."
	}
	return "Your order could not be placed. Your cart was kept."
}

// GetCart returns the cart of the slug, entering it first.
func (h *Handler) GetCart(c echo.Context) error {
	s := h.session(c)
	if _, err := s.Enter(c.Request().Context(), c.Param("slug")); err != nil {
		return errorJSON(c, err)
	}
	state, err := s.Cart()
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	ProductID uint `json:"product_id"`
}

// UpdateItemRequest is the body of PATCH /cart/items/:id.
type UpdateItemRequest struct {
	Delta int `json:"delta"`
}

func pathProductID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("handler.productID", "invalid product id")
	}
	return uint(id), nil
}

func (h *Handler) AddItem(c echo.Context) error {
	var req AddItemRequest
	if err := c.Bind(&req); err != nil || req.ProductID == 0 {
		return errorJSON(c, apperr.Validation("handler.AddItem", "product_id is required"))
	}
	state, err := h.session(c).AddItem(c.Request().Context(), c.Param("slug"), req.ProductID)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) UpdateItem(c echo.Context) error {
	id, err := pathProductID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	var req UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, apperr.Validation("handler.UpdateItem", "invalid request data"))
	}
	state, err := h.session(c).UpdateItem(c.Request().Context(), c.Param("slug"), id, req.Delta)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) RemoveItem(c echo.Context) error {
	id, err := pathProductID(c)
	if err != nil {
		return errorJSON(c, err)
	}
	state, err := h.session(c).RemoveItem(c.Request().Context(), c.Param("slug"), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) ClearCart(c echo.Context) error {
	state, err := h.session(c).ClearCart(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// Checkout submits the cart. A failed outcome is reported with 200 and the
// cart preserved; transport failures use the error mapping.
func (h *Handler) Checkout(c echo.Context) error {
	res, state, err := h.session(c).Checkout(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"outcome":      res.Outcome,
		"redirect_url": res.RedirectURL,
		"reason":       res.Reason,
		"cart":         state,
	})
}
