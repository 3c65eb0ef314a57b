// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ocad2qml/backend/internal/parser"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	formats []string
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, loaders *parser.Registry) HealthHandler {
	if loaders == nil {
		loaders = parser.GetGlobalRegistry()
	}
	return &HealthHandlerImpl{
		version: version,
		formats: loaders.Names(),
	}
}

// HandleHealth returns server health status and the accepted dump formats
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"formats": h.formats,
	})
}
