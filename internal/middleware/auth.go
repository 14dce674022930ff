package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/parley/internal/auth"
	"github.com/nfrund/parley/internal/domain"
)

const UserContextKey = "user"

// Auth protects routes that require a bearer token. The token's subject is
// loaded from the store so downstream handlers get a full user document.
func Auth(tokens *auth.TokenManager, users domain.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			user, err := users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
			}

			c.Set(UserContextKey, user)
			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user placed on the context by Auth.
func CurrentUser(c echo.Context) *domain.User {
	user, _ := c.Get(UserContextKey).(*domain.User)
	return user
}
