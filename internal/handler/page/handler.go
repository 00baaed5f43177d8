// Package page serves the browser shell of the wizard.
package page

import (
	_ "embed"
	"net/http"
)

//go:embed static/index.html
var indexHTML []byte

// Handler serves the embedded single page.
type Handler struct {
	body []byte
}

// New creates the page handler.
func New() *Handler {
	return &Handler{body: indexHTML}
}

// ServeHTTP writes the page shell.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(h.body)
}
