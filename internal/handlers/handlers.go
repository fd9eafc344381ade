package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"todo/internal/logger"
	"todo/internal/models"
	"todo/internal/tasks"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	tasks     *tasks.Service
	templates *template.Template
	log       *logger.Logger
}

// New creates a new Handlers instance.
func New(svc *tasks.Service, tmpl *template.Template, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{
		tasks:     svc,
		templates: tmpl,
		log:       log,
	}
}

// parseID extracts and parses a task UUID from URL parameters.
func parseID(r *http.Request, param string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, param))
}

// isFragment reports whether the request came from htmx and expects a
// partial instead of a full page.
func isFragment(r *http.Request) bool {
	return r.Header.Get("HX-Request") != ""
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, code int, message string) {
	w.WriteHeader(code)
	w.Write([]byte(message))
}

func (h *Handlers) respondServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Errorw("internal server error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// respondTaskError maps task store errors onto HTTP status codes.
func (h *Handlers) respondTaskError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, "task not found")
	case models.IsValidation(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.respondServerError(w, r, err)
	}
}

// redirectHome answers a plain form submission with 303 See Other.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	if h.templates == nil {
		// For testing without templates
		w.WriteHeader(http.StatusOK)
		return
	}

	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.respondServerError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
