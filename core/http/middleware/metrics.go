package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bnosac/audiowhisper/core/services"
)

// MetricsAPIMiddleware records the duration of every API call.
func MetricsAPIMiddleware(metrics *services.TranscriptionMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "/metrics" {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			metrics.ObserveAPICall(c.Request().Method, path, time.Since(start).Seconds())
			return err
		}
	}
}
