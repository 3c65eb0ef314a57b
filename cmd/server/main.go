package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/ocad2qml/backend/internal/api"
	"github.com/ocad2qml/backend/internal/cli"
	"github.com/ocad2qml/backend/internal/config"
	"github.com/ocad2qml/backend/internal/parser"
	"github.com/ocad2qml/backend/internal/storage"
	"github.com/ocad2qml/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "ocad2qml.config.xml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := cli.NewLogger(strings.ToLower(cfg.Advanced.LogLevel), strings.ToLower(cfg.Advanced.LogFormat), os.Stderr)
	slog.SetDefault(logger)

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		logger.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	opts, err := cfg.ConversionOptions()
	if err != nil {
		logger.Error("invalid conversion settings", "error", err)
		os.Exit(1)
	}

	// Initialize storage
	styleStore, err := storage.NewLocalStore(cfg.GetStylesDir())
	if err != nil {
		logger.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}

	if cfg.Security.RequireAuth && cfg.Security.AuthToken == "" {
		logger.Error("RequireAuthentication is set but AuthToken is empty")
		os.Exit(1)
	}

	handlers := api.NewHandlers(&api.Dependencies{
		Store:   styleStore,
		Loaders: parser.GetGlobalRegistry(),
		Settings: api.ConvertSettings{
			Options:           opts,
			AllowedExtensions: cfg.AllowedExtensions(),
			LegendZoom:        cfg.Conversion.LegendZoom,
			PreviewWidth:      cfg.Conversion.PreviewWidth,
			Logger:            logger,
		},
		RecentLimit: cfg.Storage.RecentLimit,
		Version:     Version,
	})

	api.ShowErrorDetails = cfg.Advanced.ShowErrorDetails

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e)

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			return c.Request().URL.Path == "/api/health"
		},
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      time.Duration(cfg.Server.ReadTimeout) * time.Second,
		ErrorMessage: "Request timeout - conversion took too long",
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			// PNG previews are already compressed
			return strings.HasSuffix(c.Request().URL.Path, "/preview")
		},
	}))

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:  origins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			ExposeHeaders: []string{api.HeaderStyleID},
		}))
	}

	routeOpts := api.RouteOptions{
		AllowDeletion: cfg.Security.AllowStyleDeletion,
		UploadLimit:   cfg.Storage.MaxUploadSize,
	}
	if cfg.Security.RequireAuth {
		routeOpts.AuthToken = cfg.Security.AuthToken
	}
	api.RegisterRoutes(e, handlers, routeOpts)

	// Register the embedded upload page
	if web.HasEmbeddedFiles() {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", "error", err)
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           OCAD to QML Style Server                        ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Omission:   %-45s║\n", opts.Omission)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  Styles:    %-46s║\n", cfg.GetStylesDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}
