package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bnosac/audiowhisper/core/config"
	"github.com/bnosac/audiowhisper/core/schema"
)

var exemptPaths = []string{"/healthz", "/readyz"}

// KeyAuth requires one of the configured API keys, either as a bearer token
// or in the x-api-key header. Health checks are always exempt.
func KeyAuth(appConfig *config.ApplicationConfig) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:Authorization:Bearer ,header:x-api-key",
		Skipper: func(c echo.Context) bool {
			if len(appConfig.ApiKeys) == 0 {
				return true
			}
			p := c.Request().URL.Path
			for _, e := range exemptPaths {
				if strings.HasPrefix(p, e) {
					return true
				}
			}
			return false
		},
		Validator: func(key string, c echo.Context) (bool, error) {
			for _, validKey := range appConfig.ApiKeys {
				if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
					return true, nil
				}
			}
			return false, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			c.Response().Header().Set("WWW-Authenticate", "Bearer")
			if appConfig.OpaqueErrors {
				return c.NoContent(http.StatusUnauthorized)
			}
			return c.JSON(http.StatusUnauthorized, schema.ErrorResponse{
				Error: &schema.APIError{
					Message: "An authentication key is required",
					Code:    http.StatusUnauthorized,
					Type:    "invalid_request_error",
				},
			})
		},
	})
}
