// handlers_convert_test.go - Tests for conversion handlers
package api

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/beevik/etree"
	"github.com/labstack/echo/v4"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/parser"
	"github.com/ocad2qml/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	s := newTestServer(t, RouteOptions{})

	rec := s.do(multipartRequest(t, "/api/convert", "forest.yaml", sampleDump(t, nil), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, echo.MIMEApplicationXMLCharsetUTF8, rec.Header().Get(echo.HeaderContentType))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(rec.Body.Bytes()))
	assert.Equal(t, "qgis", doc.Root().Tag)
	assert.Len(t, doc.FindElements("/qgis/renderer-v2/rules/rule"), 7)
	assert.Len(t, doc.FindElements("/qgis/renderer-v2/symbols/symbol"), 7)

	id := rec.Header().Get(HeaderStyleID)
	require.NotEmpty(t, id)
	info, err := s.store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "forest.qml", info.Name)
	assert.Equal(t, "forest.yaml", info.Source)
	assert.Equal(t, 7, info.SymbolCount)

	stored, err := s.store.GetData(id)
	require.NoError(t, err)
	assert.Equal(t, rec.Body.Bytes(), stored)
}

func TestConvert_MsgpackWithoutExtension(t *testing.T) {
	s := newTestServer(t, RouteOptions{})

	var buf bytes.Buffer
	require.NoError(t, parser.WriteMsgpack(&buf, testutil.SampleFile()))

	rec := s.do(multipartRequest(t, "/api/convert", "upload", buf.Bytes(), map[string]string{"symbols": "false"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(rec.Body.Bytes()))
	assert.Len(t, doc.FindElements("/qgis/renderer-v2/rules/rule"), 7)
	assert.Empty(t, doc.FindElements("/qgis/renderer-v2/symbols/symbol"))
}

func TestConvert_Errors(t *testing.T) {
	mismatch := testutil.SampleFile()
	mismatch.Symbols[0].Type = models.AreaSymbolType

	tests := []struct {
		name       string
		filename   string
		content    []byte
		fields     map[string]string
		wantStatus int
		wantCode   string
	}{
		{"no file", "", nil, nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"disallowed extension", "forest.ocd", []byte{0xad, 0x0c}, nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"unreadable dump", "forest.yaml", []byte("crs: [1,"), nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad strict flag", "forest.yaml", sampleDump(t, nil), map[string]string{"strict": "maybe"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad omission", "forest.yaml", sampleDump(t, nil), map[string]string{"omission": "never"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"type mismatch", "forest.yaml", sampleDump(t, mismatch), nil, http.StatusUnprocessableEntity, "UNPROCESSABLE_SYMBOL"},
		{"strict unknown symbol", "forest.yaml", sampleDump(t, nil), map[string]string{"strict": "true"}, http.StatusUnprocessableEntity, "UNPROCESSABLE_SYMBOL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, RouteOptions{})

			rec := s.do(multipartRequest(t, "/api/convert", tt.filename, tt.content, tt.fields))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeAPIError(t, rec).Code)
			assert.Zero(t, s.store.Count())
		})
	}
}

func TestConvert_StoreFailure(t *testing.T) {
	store := testutil.NewMockStorage()
	store.SaveErr = errors.New("disk full")
	handler := NewConvertHandler(store, nil, testSettings())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(multipartRequest(t, "/api/convert", "forest.yaml", sampleDump(t, nil), nil), rec)

	err := handler.HandleConvert(c)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "disk full", apiErr.Details)
}

func TestLegend(t *testing.T) {
	s := newTestServer(t, RouteOptions{})

	rec := s.do(multipartRequest(t, "/api/legend", "forest.yaml", sampleDump(t, nil), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(rec.Body.Bytes()))
	assert.Equal(t, "svg", doc.Root().Tag)
	assert.Equal(t, "forest.yaml", doc.Root().SelectElement("title").Text())
	assert.Len(t, doc.FindElements("//pattern"), 4)

	rec = s.do(multipartRequest(t, "/api/legend", "forest.yaml", sampleDump(t, nil), map[string]string{"flatten": "1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<pattern")

	assert.Zero(t, s.store.Count())
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, RouteOptions{})

	rec := s.do(multipartRequest(t, "/api/preview", "forest.yaml", sampleDump(t, nil), map[string]string{"width": "300"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Greater(t, img.Bounds().Dy(), 0)

	rec = s.do(multipartRequest(t, "/api/preview", "forest.yaml", sampleDump(t, nil), map[string]string{"width": "-3"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeAPIError(t, rec).Code)
}

func TestPreview_TooLarge(t *testing.T) {
	file := testutil.SampleFile()
	file.Objects = nil
	file.Symbols = nil
	for i := 0; i < 40; i++ {
		num := 500000 + i*1000
		file.Symbols = append(file.Symbols, models.Symbol{
			SymNum: num, Type: models.LineSymbolType, Description: "Track",
			Line: &models.LineSymbol{LineColor: models.IntPtr(testutil.ColorBlack), LineWidth: 10},
		})
		file.Objects = append(file.Objects, models.Object{Sym: num, Status: models.ObjectNormal})
	}
	s := newTestServer(t, RouteOptions{})

	rec := s.do(multipartRequest(t, "/api/preview", "tracks.yaml", sampleDump(t, file), map[string]string{"width": "4096"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.Contains(t, apiErr.Details, "preview too large")

	rec = s.do(multipartRequest(t, "/api/preview", "tracks.yaml", sampleDump(t, file), map[string]string{"width": "100"}))
	assert.Equal(t, http.StatusOK, rec.Code)
}
