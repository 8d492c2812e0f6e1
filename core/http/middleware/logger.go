package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mudler/xlog"
)

func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			req := c.Request()
			xlog.Info("HTTP request", "method", req.Method, "path", req.URL.Path, "status", c.Response().Status, "took", time.Since(start))
			return err
		}
	}
}
