package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/bnosac/audiowhisper/core/application"
	"github.com/bnosac/audiowhisper/core/http/endpoints/openai"
)

func RegisterOpenAIRoutes(e *echo.Echo, app *application.Application) {
	transcribe := openai.TranscriptEndpoint(app, false)
	e.POST("/v1/audio/transcriptions", transcribe)
	e.POST("/audio/transcriptions", transcribe)

	translate := openai.TranscriptEndpoint(app, true)
	e.POST("/v1/audio/translations", translate)
	e.POST("/audio/translations", translate)

	models := openai.ListModelsEndpoint(app)
	e.GET("/v1/models", models)
	e.GET("/models", models)
}
