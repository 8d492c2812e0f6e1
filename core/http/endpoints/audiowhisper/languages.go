package audiowhisper

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnosac/audiowhisper/pkg/whisper"
)

// LanguagesEndpoint lists the language codes accepted by the language
// parameter, "auto" included.
func LanguagesEndpoint() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, append([]string{whisper.AutoLanguage}, whisper.Languages()...))
	}
}
