package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(key string) bool
}

// RateLimit rejects requests with 429 when the limiter refuses the client IP.
func RateLimit(lim Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if lim != nil && !lim.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
					"data": []map[string]string{{
						"code":    "ERR_RATE_LIMITED",
						"message": "Too many requests",
					}},
				})
			}
			return next(c)
		}
	}
}
