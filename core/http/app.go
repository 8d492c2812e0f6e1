package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mudler/xlog"

	"github.com/bnosac/audiowhisper/core/application"
	httpMiddleware "github.com/bnosac/audiowhisper/core/http/middleware"
	"github.com/bnosac/audiowhisper/core/http/routes"
	"github.com/bnosac/audiowhisper/core/schema"
)

// @title audiowhisper API
// @version 1.0.0
// @description Transcribe 16 kHz PCM WAV recordings with whisper models.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func API(application *application.Application) (*echo.Echo, error) {
	appConfig := application.ApplicationConfig()
	e := echo.New()

	// Set body limit
	if appConfig.UploadLimitMB > 0 {
		e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", appConfig.UploadLimitMB)))
	}

	// Set error handler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		message := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = fmt.Sprint(he.Message)
		}
		if code >= http.StatusInternalServerError {
			xlog.Error("request failed", "path", c.Request().URL.Path, "error", err)
		}

		if appConfig.OpaqueErrors {
			c.NoContent(code)
			return
		}
		c.JSON(code, schema.ErrorResponse{
			Error: &schema.APIError{Message: message, Code: code},
		})
	}

	// Hide banner
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpMiddleware.RequestLogger())
	e.Use(middleware.Recover())

	// Metrics middleware
	if m := application.Metrics(); m != nil {
		e.Use(httpMiddleware.MetricsAPIMiddleware(m))
	}

	// Health Checks should always be exempt from auth, so register these first
	routes.HealthRoutes(e)

	e.Use(httpMiddleware.KeyAuth(appConfig))

	// CORS middleware
	if appConfig.CORS {
		corsConfig := middleware.CORSConfig{}
		if appConfig.CORSAllowOrigins != "" {
			corsConfig.AllowOrigins = strings.Split(appConfig.CORSAllowOrigins, ",")
		}
		e.Use(middleware.CORSWithConfig(corsConfig))
	}

	routes.RegisterOpenAIRoutes(e, application)
	routes.RegisterAudiowhisperRoutes(e, application.Metrics())

	return e, nil
}
