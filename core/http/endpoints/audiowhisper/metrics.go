package audiowhisper

import (
	"github.com/labstack/echo/v4"

	"github.com/bnosac/audiowhisper/core/services"
)

// MetricsEndpoint serves the Prometheus metrics
// @Summary Prometheus metrics endpoint
// @Router /metrics [get]
func MetricsEndpoint(metrics *services.TranscriptionMetrics) echo.HandlerFunc {
	return echo.WrapHandler(metrics.Handler())
}
