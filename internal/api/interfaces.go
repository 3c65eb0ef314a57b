// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
)

// ConvertHandler turns uploaded map dumps into styles, legends and previews
type ConvertHandler interface {
	HandleConvert(c echo.Context) error
	HandleLegend(c echo.Context) error
	HandlePreview(c echo.Context) error
}

// StyleHandler serves previously converted styles
type StyleHandler interface {
	HandleGetRecentStyles(c echo.Context) error
	HandleGetStyle(c echo.Context) error
	HandleGetStyleInfo(c echo.Context) error
	HandleDeleteStyle(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}
