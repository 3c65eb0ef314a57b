// Package web provides the embedded upload page served next to the API.
package web

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed static/*
var staticFiles embed.FS

// GetFileSystem returns the embedded filesystem with the static folder as root.
func GetFileSystem() (fs.FS, error) {
	return fs.Sub(staticFiles, "static")
}

// RegisterStaticRoutes registers the page routes with Echo.
// The API routes should be registered before calling this function.
func RegisterStaticRoutes(e *echo.Echo) error {
	staticFS, err := GetFileSystem()
	if err != nil {
		return err
	}

	fileServer := http.FileServer(http.FS(staticFS))

	e.GET("/*", func(c echo.Context) error {
		requestPath := path.Clean(c.Request().URL.Path)
		if strings.HasPrefix(requestPath, "/api/") {
			return echo.ErrNotFound
		}

		name := strings.TrimPrefix(requestPath, "/")
		if name == "" {
			return serveIndexHTML(c, staticFS)
		}

		stat, err := fs.Stat(staticFS, name)
		if err != nil || stat.IsDir() {
			// Unknown paths get the upload page
			return serveIndexHTML(c, staticFS)
		}

		fileServer.ServeHTTP(c.Response(), c.Request())
		return nil
	})

	return nil
}

// serveIndexHTML serves the upload page
func serveIndexHTML(c echo.Context, staticFS fs.FS) error {
	indexFile, err := staticFS.Open("index.html")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "index.html not found")
	}
	defer indexFile.Close()

	content, err := io.ReadAll(indexFile)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read index.html")
	}

	return c.HTMLBlob(http.StatusOK, content)
}

// HasEmbeddedFiles returns true if the upload page is embedded.
func HasEmbeddedFiles() bool {
	_, err := fs.Stat(staticFiles, "static/index.html")
	return err == nil
}
