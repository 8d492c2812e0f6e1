package openai

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnosac/audiowhisper/core/application"
	"github.com/bnosac/audiowhisper/core/schema"
)

// ListModelsEndpoint is the OpenAI Models API endpoint https://platform.openai.com/docs/api-reference/models
// @Summary List configured models and loose model files.
// @Success 200 {object} schema.ModelsDataResponse "Response"
// @Router /v1/models [get]
func ListModelsEndpoint(app *application.Application) echo.HandlerFunc {
	return func(c echo.Context) error {
		seen := map[string]bool{}
		data := []schema.OpenAIModel{}
		add := func(id string) {
			if seen[id] {
				return
			}
			seen[id] = true
			data = append(data, schema.OpenAIModel{ID: id, Object: "model"})
		}

		for _, cfg := range app.ModelConfigLoader().GetAllModelsConfigs() {
			add(cfg.Name)
		}

		files, err := app.ModelLoader().ListFilesInModelPath()
		if err != nil {
			return err
		}
		for _, f := range files {
			add(f)
		}

		return c.JSON(http.StatusOK, schema.ModelsDataResponse{
			Object: "list",
			Data:   data,
		})
	}
}
