package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "MandiPulse/pkg/logger"
)

// RequestLogging logs one debug line per request and surfaces handler errors.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeLabel(c)),
				applogger.Int("status", res.Status),
				applogger.Duration("duration_ms", time.Since(start)),
				applogger.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if err != nil {
				l.Warn("http.request error", append(fields, applogger.Error(err))...)
			} else {
				l.Debug("http.request", fields...)
			}
			return err
		}
	}
}
