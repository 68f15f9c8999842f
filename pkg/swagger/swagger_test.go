package swagger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSpec = []byte(`{"openapi":"3.0.3","info":{"title":"Night Shift Scheduler API","version":"v1"}}`)

func serve(h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHandler_UI(t *testing.T) {
	h := NewHandler(nil, testSpec)
	for _, path := range []string{"/swagger/", "/swagger/index.html"} {
		t.Run(path, func(t *testing.T) {
			w := serve(h, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), "<title>Night Shift Scheduler API v1</title>")
			assert.Contains(t, w.Body.String(), "openapi.json")
			assert.Contains(t, w.Body.String(), "post")
		})
	}
}

func TestHandler_Spec(t *testing.T) {
	h := NewHandler(nil, testSpec)

	w := serve(h, http.MethodGet, "/swagger/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, testSpec, w.Body.Bytes())

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, etag, NewHandler(nil, testSpec).specETag, "etag depends only on content")

	cached := serve(h, http.MethodGet, "/swagger/openapi.json", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, cached.Code)

	head := serve(h, http.MethodHead, "/swagger/openapi.json", nil)
	assert.Equal(t, http.StatusOK, head.Code)
	assert.Empty(t, head.Body.Bytes())
}

func TestHandler_Errors(t *testing.T) {
	h := NewHandler(nil, testSpec)

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/swagger/nonexistent", nil).Code)

	w := serve(h, http.MethodPost, "/swagger/openapi.json", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, HEAD", w.Header().Get("Allow"))
}

func TestHandler_CustomConfig(t *testing.T) {
	h := NewHandler(&Config{
		Title:        "Custom API",
		BasePath:     "/api-docs",
		SpecPath:     "/spec.json",
		DocExpansion: "none",
	}, testSpec)

	w := serve(h, http.MethodGet, "/api-docs/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Custom API v1</title>")
	assert.Contains(t, w.Body.String(), "spec.json")

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api-docs/spec.json", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/api-docs/openapi.json", nil).Code)
}

func TestHandler_InvalidSpecStillServesUI(t *testing.T) {
	w := serve(NewHandler(nil, []byte("not json")), http.MethodGet, "/swagger/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>API</title>")
}

func TestRegisterRoutes(t *testing.T) {
	mux := http.NewServeMux()
	RegisterRoutes(mux, nil, testSpec)

	assert.Equal(t, http.StatusMovedPermanently, serve(mux, http.MethodGet, "/swagger", nil).Code)
	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/swagger/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(mux, http.MethodGet, "/swagger/openapi.json", nil).Code)
}
