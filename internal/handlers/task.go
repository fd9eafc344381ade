package handlers

import (
	"net/http"

	"todo/internal/models"
)

// IndexData holds data for the task list page.
type IndexData struct {
	Title string
	Tasks []models.Task
}

// Index renders every task.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	list, err := h.tasks.List(r.Context(), nil)
	if err != nil {
		h.respondServerError(w, r, err)
		return
	}

	h.render(w, r, "index.html", IndexData{
		Title: "Todo",
		Tasks: list,
	})
}

// CreateTask creates a task from the "title" form field. A missing field
// reaches the task store as an empty title.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}

	task, err := h.tasks.Create(r.Context(), r.PostForm.Get("title"))
	if err != nil {
		h.respondTaskError(w, r, err)
		return
	}

	h.log.Debugw("task created", "id", task.ID)

	if !isFragment(r) {
		redirectHome(w, r)
		return
	}
	h.render(w, r, "task_item.html", task)
}

// ToggleTask flips a task between PENDING and COMPLETED.
func (h *Handlers) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid task id")
		return
	}

	task, err := h.tasks.Toggle(r.Context(), id)
	if err != nil {
		h.respondTaskError(w, r, err)
		return
	}

	if !isFragment(r) {
		redirectHome(w, r)
		return
	}
	h.render(w, r, "task_item.html", task)
}

// DeleteTask deletes a task.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid task id")
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		h.respondTaskError(w, r, err)
		return
	}

	if !isFragment(r) {
		redirectHome(w, r)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Health reports whether the store is reachable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.tasks.Ping(r.Context()); err != nil {
		h.log.Warnw("health check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	w.Write([]byte("ok"))
}
