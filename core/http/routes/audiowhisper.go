package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/bnosac/audiowhisper/core/http/endpoints/audiowhisper"
	"github.com/bnosac/audiowhisper/core/services"
)

func RegisterAudiowhisperRoutes(e *echo.Echo, metrics *services.TranscriptionMetrics) {
	if metrics != nil {
		e.GET("/metrics", audiowhisper.MetricsEndpoint(metrics))
	}
	e.GET("/v1/languages", audiowhisper.LanguagesEndpoint())
}
