package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/ocad2qml/backend/internal/models"
	"github.com/ocad2qml/backend/internal/parser"
	"github.com/ocad2qml/backend/internal/qml"
	"github.com/ocad2qml/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleDump returns the YAML dump of f, or of testutil.SampleFile when f is nil.
func sampleDump(t *testing.T, f *models.OcadFile) []byte {
	t.Helper()
	if f == nil {
		f = testutil.SampleFile()
	}
	var buf bytes.Buffer
	require.NoError(t, parser.WriteYAML(&buf, f))
	return buf.Bytes()
}

// multipartRequest builds a POST with an optional file part and form fields.
func multipartRequest(t *testing.T, target, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func testSettings() ConvertSettings {
	opts := qml.DefaultOptions()
	return ConvertSettings{
		Options:           opts,
		AllowedExtensions: []string{".yaml", ".yml", ".json", ".mpk", ".msgpack"},
		LegendZoom:        2,
		PreviewWidth:      200,
	}
}

type testServer struct {
	e     *echo.Echo
	store *testutil.MockStorage
}

func newTestServer(t *testing.T, opts RouteOptions) *testServer {
	t.Helper()
	store := testutil.NewMockStorage()
	e := echo.New()
	SetupMiddleware(e)
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Store:       store,
		Loaders:     parser.NewRegistry(),
		Settings:    testSettings(),
		RecentLimit: 5,
		Version:     "test",
	}), opts)
	return &testServer{e: e, store: store}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr), rec.Body.String())
	return apiErr
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, RouteOptions{AuthToken: "secret"})

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string   `json:"status"`
		Version string   `json:"version"`
		Formats []string `json:"formats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Version)
	assert.Equal(t, []string{"yaml", "json", "msgpack"}, body.Formats)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"api error", NewNotFoundError("style", "x"), http.StatusNotFound, "NOT_FOUND"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "HTTP_ERROR"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeAPIError(t, rec).Code)
		})
	}
}

func TestErrorHandler_Details(t *testing.T) {
	t.Cleanup(func() { ShowErrorDetails = false })

	render := func(err error) APIError {
		e := echo.New()
		rec := httptest.NewRecorder()
		ErrorHandler(err, e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec))
		return decodeAPIError(t, rec)
	}
	internal := NewInternalError("failed to store style", errors.New("open /srv/styles/x.qml: permission denied"))
	badRequest := NewBadRequestError("invalid map dump", errors.New("yaml: line 1"))

	ShowErrorDetails = false
	assert.Empty(t, render(internal).Details)
	assert.Empty(t, render(errors.New("boom")).Details)
	assert.Equal(t, "yaml: line 1", render(badRequest).Details)
	assert.Equal(t, "open /srv/styles/x.qml: permission denied", internal.Details)

	ShowErrorDetails = true
	assert.Equal(t, "open /srv/styles/x.qml: permission denied", render(internal).Details)
	assert.Equal(t, "boom", render(errors.New("boom")).Details)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, RouteOptions{AuthToken: "secret"})

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/styles/recent", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeAPIError(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/styles/recent", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, s.do(req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/styles/recent", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer secret")
	assert.Equal(t, http.StatusOK, s.do(req).Code)
}

func TestUploadLimit(t *testing.T) {
	s := newTestServer(t, RouteOptions{UploadLimit: "1K"})

	rec := s.do(multipartRequest(t, "/api/convert", "forest.yaml", bytes.Repeat([]byte("#"), 4096), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "HTTP_ERROR", decodeAPIError(t, rec).Code)
}
