// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ocad2qml/backend/internal/parser"
	"github.com/ocad2qml/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store       storage.Store
	Loaders     *parser.Registry
	Settings    ConvertSettings
	RecentLimit int
	Version     string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Convert ConvertHandler
	Styles  StyleHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Loaders),
		Convert: NewConvertHandler(deps.Store, deps.Loaders, deps.Settings),
		Styles:  NewStyleHandler(deps.Store, deps.RecentLimit),
	}
}

// RouteOptions toggles optional routes and guards
type RouteOptions struct {
	AllowDeletion bool
	// AuthToken, when non-empty, is required as a bearer token on every
	// route except the health check
	AuthToken string
	// UploadLimit caps request bodies on the protected routes, e.g. "64M"
	UploadLimit string
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, opts RouteOptions) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	protected := apiGroup.Group("")
	if opts.AuthToken != "" {
		protected.Use(AuthMiddleware(opts.AuthToken))
	}
	if opts.UploadLimit != "" {
		protected.Use(middleware.BodyLimit(opts.UploadLimit))
	}

	// Conversion routes
	protected.POST("/convert", handlers.Convert.HandleConvert)
	protected.POST("/legend", handlers.Convert.HandleLegend)
	protected.POST("/preview", handlers.Convert.HandlePreview)

	// Stored styles
	protected.GET("/styles/recent", handlers.Styles.HandleGetRecentStyles)
	protected.GET("/styles/:id", handlers.Styles.HandleGetStyle)
	protected.GET("/styles/:id/info", handlers.Styles.HandleGetStyleInfo)
	if opts.AllowDeletion {
		protected.DELETE("/styles/:id", handlers.Styles.HandleDeleteStyle)
	}
}

// AuthMiddleware checks a static bearer token
func AuthMiddleware(token string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(key string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return &APIError{
				Status:  http.StatusUnauthorized,
				Code:    "UNAUTHORIZED",
				Message: "missing or invalid token",
			}
		},
	})
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
}
