// handlers_styles.go - Stored style handlers
package api

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/ocad2qml/backend/internal/storage"
)

// StyleHandlerImpl implements the StyleHandler interface
type StyleHandlerImpl struct {
	store       storage.Store
	recentLimit int
}

// NewStyleHandler creates a new style handler instance
func NewStyleHandler(store storage.Store, recentLimit int) StyleHandler {
	if recentLimit <= 0 {
		recentLimit = 20
	}
	return &StyleHandlerImpl{
		store:       store,
		recentLimit: recentLimit,
	}
}

// HandleGetRecentStyles lists the most recent styles, newest first
func (h *StyleHandlerImpl) HandleGetRecentStyles(c echo.Context) error {
	limit := h.recentLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	styles, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list styles", err)
	}
	return c.JSON(http.StatusOK, styles)
}

// HandleGetStyle returns a stored QML document
func (h *StyleHandlerImpl) HandleGetStyle(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return h.lookupError(id, err)
	}

	rc, err := h.store.Open(id)
	if err != nil {
		return h.lookupError(id, err)
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": info.Name})
	c.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return c.Stream(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, rc)
}

// HandleGetStyleInfo returns a stored style's metadata
func (h *StyleHandlerImpl) HandleGetStyleInfo(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return h.lookupError(id, err)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteStyle removes a stored style
func (h *StyleHandlerImpl) HandleDeleteStyle(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return h.lookupError(id, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *StyleHandlerImpl) lookupError(id string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewNotFoundError("style", id)
	}
	return NewInternalError("failed to read style", err)
}
