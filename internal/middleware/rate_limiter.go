package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiter limits requests per second per IP for the routes it is applied
// to. The in-memory store is fine for a single-instance deployment.
func RateLimiter(perSecond float64) echo.MiddlewareFunc {
	config := middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStore(rate.Limit(perSecond)),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.String(http.StatusTooManyRequests, "Too many requests. Please try again later.")
		},
	}
	return middleware.RateLimiterWithConfig(config)
}
