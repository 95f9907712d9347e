package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/vitrin/jwtutil"
	"github.com/suteetoe/vitrin/logger"
)

const ownerKey = "owner"

// JWTAuthMiddleware creates a middleware that validates bearer tokens
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing authorization header"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid authorization header format"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
			}

			c.Set(ownerKey, claims)
			log = logger.Enrich(c, zap.Uint("user_id", claims.UserID))
			log.Debug("JWT token validated successfully",
				zap.Uint("user_id", claims.UserID),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// Owner returns the claims stored by JWTAuthMiddleware
func Owner(c echo.Context) *jwtutil.OwnerClaims {
	claims, _ := c.Get(ownerKey).(*jwtutil.OwnerClaims)
	return claims
}

// RequireSite rejects requests for a site the token does not grant. The slug
// is read from the named path parameter.
func RequireSite(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			slug := c.Param(param)
			if !Owner(c).CanManage(slug) {
				logger.FromEcho(c).Warn("Site access denied", zap.String("slug", slug))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "You do not manage this site"})
			}
			return next(c)
		}
	}
}
