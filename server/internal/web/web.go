// Package web serves the single-page mood UI. The page, stylesheet and script
// are embedded in the binary; the page is an html/template rendered once per
// request with the input limit.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed assets
var embedded embed.FS

// Asset names inside Assets().
const (
	IndexFile  = "index.html"
	StyleFile  = "style.css"
	ScriptFile = "script.js"
)

// Assets returns the embedded asset tree rooted at the assets directory.
func Assets() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		// The directory is compiled in; fs.Sub only fails on a bad path.
		panic(err)
	}
	return sub
}

// PageData is passed to the index template.
type PageData struct {
	Title         string
	MaxTextLength int
	// WarnAt and LimitAt drive the character counter colours.
	WarnAt  int
	LimitAt int
}

// Handler serves GET / and /static/*.
type Handler struct {
	tmpl   *template.Template
	data   PageData
	static http.Handler
}

// New parses the index template. maxTextLength is shown in the page and
// enforced by the textarea.
func New(maxTextLength int) (*Handler, error) {
	assets := Assets()
	tmpl, err := template.ParseFS(assets, IndexFile)
	if err != nil {
		return nil, fmt.Errorf("web: parse %s: %w", IndexFile, err)
	}
	return &Handler{
		tmpl: tmpl,
		data: PageData{
			Title:         "MoodMate",
			MaxTextLength: maxTextLength,
			WarnAt:        maxTextLength * 6 / 10,
			LimitAt:       maxTextLength * 8 / 10,
		},
		static: http.StripPrefix("/static/", http.FileServer(http.FS(assets))),
	}, nil
}

// Render writes the page to a buffer. Used by ServeHTTP and the setup checker.
func (h *Handler) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, IndexFile, h.data); err != nil {
		return nil, fmt.Errorf("web: render: %w", err)
	}
	return buf.Bytes(), nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/":
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		page, err := h.Render()
		if err != nil {
			slog.Error("web: render index", "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page) //nolint:errcheck
	case strings.HasPrefix(r.URL.Path, "/static/"):
		h.static.ServeHTTP(w, r)
	default:
		http.NotFound(w, r)
	}
}
