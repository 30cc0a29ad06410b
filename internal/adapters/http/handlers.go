package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// maxBodyBytes bounds request bodies; a drawn signature is the largest field.
const maxBodyBytes = 2 << 20

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON answers with a JSON body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// messageBody is the { message } shape every API endpoint answers with.
type messageBody struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// renderMarkdown converts trusted or untrusted Markdown to safe HTML.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// signatureURL lets a drawn signature through as an image source.
// Anything other than a data image URL renders as an empty src.
func signatureURL(s string) template.URL {
	if strings.HasPrefix(s, "data:image/") {
		return template.URL(s)
	}
	return ""
}

// baseFuncs are replaced per request where they depend on it.
var baseFuncs = template.FuncMap{
	"csrfField":      func() template.HTML { return "" },
	"renderMarkdown": renderMarkdown,
	"safeURL":        signatureURL,
}

// parsePages parses every page template with layout.html.
func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		base := path.Base(name)
		if base == "layout.html" || strings.HasPrefix(base, "_") {
			continue
		}
		tpl, err := template.New("layout.html").Funcs(baseFuncs).ParseFS(fsys, "templates/layout.html", "templates/_*.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		pages[base] = tpl
	}
	return pages, nil
}

func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	s.renderStatus(w, r, http.StatusOK, templateName, data)
}

func (s *Server) renderStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	page, ok := s.pages[templateName]
	if !ok {
		internalError(w, fmt.Errorf("unknown template %s", templateName))
		return
	}
	tpl, err := page.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"csrfField": func() template.HTML { return csrf.TemplateField(r) },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// errorPage is the data of error.html.
type errorPage struct {
	Title   string
	Message string
}

func requestID(r *http.Request) string {
	return chimw.GetReqID(r.Context())
}
