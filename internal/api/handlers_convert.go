// handlers_convert.go - Conversion, legend and preview handlers
package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ocad2qml/backend/internal/legend"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/parser"
	"github.com/ocad2qml/backend/internal/preview"
	"github.com/ocad2qml/backend/internal/qml"
	"github.com/ocad2qml/backend/internal/storage"
)

// HeaderStyleID carries the stored style's ID on conversion responses
const HeaderStyleID = "X-Style-Id"

const maxPreviewWidth = 4096

// ConvertSettings are the server-wide conversion defaults
type ConvertSettings struct {
	Options           qml.Options
	AllowedExtensions []string
	LegendZoom        float64
	PreviewWidth      int
	Logger            *slog.Logger
}

// ConvertHandlerImpl implements the ConvertHandler interface
type ConvertHandlerImpl struct {
	store    storage.Store
	loaders  *parser.Registry
	settings ConvertSettings
}

// NewConvertHandler creates a new conversion handler instance
func NewConvertHandler(store storage.Store, loaders *parser.Registry, settings ConvertSettings) ConvertHandler {
	if loaders == nil {
		loaders = parser.GetGlobalRegistry()
	}
	if settings.Logger == nil {
		settings.Logger = slog.Default()
	}
	if settings.PreviewWidth <= 0 {
		settings.PreviewWidth = 800
	}
	return &ConvertHandlerImpl{
		store:    store,
		loaders:  loaders,
		settings: settings,
	}
}

// HandleConvert converts an uploaded dump (multipart field "file") to QML,
// stores the result and returns it
func (h *ConvertHandlerImpl) HandleConvert(c echo.Context) error {
	file, name, err := h.readUpload(c)
	if err != nil {
		return err
	}
	opts, err := h.options(c)
	if err != nil {
		return err
	}

	out, err := qml.Render(file, opts)
	if err != nil {
		if isSymbolError(err) {
			return NewUnprocessableSymbolError(err)
		}
		return NewInternalError("failed to convert symbols", err)
	}

	info, err := h.store.Save(models.StyleInfo{
		Name:        styleName(name),
		Source:      name,
		SymbolCount: len(qml.StyledSymbols(file)),
	}, strings.NewReader(out))
	if err != nil {
		return NewInternalError("failed to store style", err)
	}

	h.settings.Logger.Info("converted style",
		"source", name,
		"style", info.ID,
		"symbols", info.SymbolCount,
		"bytes", info.Size)

	c.Response().Header().Set(HeaderStyleID, info.ID)
	return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, []byte(out))
}

// HandleLegend returns an SVG legend of the uploaded dump's symbols
func (h *ConvertHandlerImpl) HandleLegend(c echo.Context) error {
	file, name, err := h.readUpload(c)
	if err != nil {
		return err
	}

	flatten, err := formBool(c, "flatten", false)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	opts := legend.Options{Zoom: h.settings.LegendZoom, Title: name, Flatten: flatten}
	if err := legend.Write(&buf, file, h.settings.Options.Patterns, opts); err != nil {
		return NewInternalError("failed to draw legend", err)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}

// HandlePreview returns a PNG rendering of the legend
func (h *ConvertHandlerImpl) HandlePreview(c echo.Context) error {
	file, name, err := h.readUpload(c)
	if err != nil {
		return err
	}

	width := h.settings.PreviewWidth
	if v := c.FormValue("width"); v != "" {
		width, err = strconv.Atoi(v)
		if err != nil || width <= 0 || width > maxPreviewWidth {
			return NewValidationError("width")
		}
	}

	var svg bytes.Buffer
	opts := legend.Options{Zoom: h.settings.LegendZoom, Title: name, Flatten: true}
	if err := legend.Write(&svg, file, h.settings.Options.Patterns, opts); err != nil {
		return NewInternalError("failed to draw legend", err)
	}
	img, err := preview.Rasterize(&svg, width, 0)
	if errors.Is(err, preview.ErrTooLarge) {
		apiErr := NewValidationError("width")
		apiErr.Details = err.Error()
		return apiErr
	}
	if err != nil {
		return NewInternalError("failed to rasterize legend", err)
	}

	var png bytes.Buffer
	if err := preview.WritePNG(&png, img); err != nil {
		return NewInternalError("failed to encode preview", err)
	}
	return c.Blob(http.StatusOK, "image/png", png.Bytes())
}

// readUpload loads the dump posted in the "file" form field
func (h *ConvertHandlerImpl) readUpload(c echo.Context) (*models.OcadFile, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", NewBadRequestError("no file provided", err)
	}
	name := filepath.Base(fh.Filename)

	if !h.allowed(name) {
		return nil, "", NewBadRequestError("unsupported file type: "+filepath.Ext(name), nil)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "", NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	file, err := h.loaders.Load(name, src)
	if err != nil {
		return nil, "", NewBadRequestError("invalid map dump", err)
	}
	return file, name, nil
}

// allowed accepts extension-less uploads; their format is sniffed
func (h *ConvertHandlerImpl) allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(h.settings.AllowedExtensions) == 0 {
		return true
	}
	for _, a := range h.settings.AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

// options applies per-request form overrides to the server defaults
func (h *ConvertHandlerImpl) options(c echo.Context) (qml.Options, error) {
	opts := h.settings.Options
	opts.Logger = h.settings.Logger

	if v := c.FormValue("omission"); v != "" {
		p, err := qml.ParseOmissionPolicy(v)
		if err != nil {
			return opts, NewValidationError("omission")
		}
		opts.Omission = p
	}

	strict, err := formBool(c, "strict", false)
	if err != nil {
		return opts, err
	}
	if strict {
		opts.Omission = qml.StrictOmission
	}

	if opts.ExportHidden, err = formBool(c, "exportHidden", opts.ExportHidden); err != nil {
		return opts, err
	}
	if opts.GenerateSymbolElements, err = formBool(c, "symbols", opts.GenerateSymbolElements); err != nil {
		return opts, err
	}
	return opts, nil
}

func formBool(c echo.Context, field string, def bool) (bool, error) {
	v := c.FormValue(field)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, NewValidationError(field)
	}
	return b, nil
}

func isSymbolError(err error) bool {
	return errors.Is(err, qml.ErrTypeMismatch) ||
		errors.Is(err, qml.ErrUnresolvedColor) ||
		errors.Is(err, qml.ErrUnknownSymbol)
}

// styleName derives the stored style name from the upload name
func styleName(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".qml"
}
