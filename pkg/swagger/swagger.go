// Package swagger serves Swagger UI and the OpenAPI document of the
// scheduler's HTTP API.
package swagger

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"rostering/pkg/logger"
)

// Config конфигурация Swagger UI
type Config struct {
	// Title overrides info.title of the document.
	Title    string
	BasePath string
	SpecPath string
	// DocExpansion: list, full или none
	DocExpansion string
	// TryItOut enables request submission from the page.
	TryItOut bool
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		BasePath:     "/swagger",
		SpecPath:     "/openapi.json",
		DocExpansion: "list",
		TryItOut:     true,
	}
}

// Handler отдаёт страницу UI и документ. Both are rendered once in
// NewHandler; ServeHTTP only writes bytes.
type Handler struct {
	config   *Config
	specName string
	spec     []byte
	specETag string
	page     []byte
	loadedAt time.Time
}

// NewHandler создаёт новый Swagger handler. The ETag is derived from the
// spec content, so it is stable across restarts.
func NewHandler(cfg *Config, spec []byte) *Handler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	sum := sha256.Sum256(spec)
	h := &Handler{
		config:   cfg,
		specName: strings.TrimPrefix(cfg.SpecPath, "/"),
		spec:     spec,
		specETag: fmt.Sprintf(`"%x"`, sum[:8]),
		loadedAt: time.Now(),
	}
	h.page = h.render(docInfo(spec))
	return h
}

type info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// docInfo читает info из документа; битый JSON не мешает отдавать UI.
func docInfo(spec []byte) info {
	var doc struct {
		Info info `json:"info"`
	}
	if err := json.Unmarshal(spec, &doc); err != nil {
		logger.Log.Warn("OpenAPI document is not valid JSON", "error", err)
	}
	return doc.Info
}

func (h *Handler) render(meta info) []byte {
	title := h.config.Title
	if title == "" {
		title = meta.Title
	}
	if title == "" {
		title = "API"
	}
	methods := []string{}
	if h.config.TryItOut {
		methods = []string{"get", "post"}
	}

	var buf bytes.Buffer
	err := uiTemplate.Execute(&buf, map[string]any{
		"Title":     title,
		"Version":   meta.Version,
		"SpecURL":   h.config.BasePath + h.config.SpecPath,
		"Expansion": h.config.DocExpansion,
		"Methods":   methods,
	})
	if err != nil {
		logger.Log.Error("Failed to execute swagger template", "error", err)
	}
	return buf.Bytes()
}

// ServeHTTP обрабатывает GET и HEAD
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	switch name := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, h.config.BasePath), "/"); name {
	case "", "index.html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeContent(w, r, "index.html", h.loadedAt, bytes.NewReader(h.page))
	case h.specName:
		// ServeContent отвечает 304 на совпавший If-None-Match
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("ETag", h.specETag)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		http.ServeContent(w, r, h.specName, time.Time{}, bytes.NewReader(h.spec))
	default:
		http.NotFound(w, r)
	}
}

// RegisterRoutes регистрирует маршруты в существующем mux; the bare base path
// redirects to the UI.
func RegisterRoutes(mux *http.ServeMux, cfg *Config, spec []byte) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	mux.Handle(cfg.BasePath+"/", NewHandler(cfg, spec))
	mux.Handle(cfg.BasePath, http.RedirectHandler(cfg.BasePath+"/", http.StatusMovedPermanently))
}

var uiTemplate = template.Must(template.New("swagger-ui").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}{{with .Version}} {{.}}{{end}}</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
<style>body{margin:0} .swagger-ui .topbar{display:none}</style>
</head>
<body>
<div id="ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({
  url: {{.SpecURL}},
  dom_id: "#ui",
  docExpansion: {{.Expansion}},
  supportedSubmitMethods: {{.Methods}},
  displayRequestDuration: true
});
</script>
</body>
</html>`))
