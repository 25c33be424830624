package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anujaroke/Task-Vault/internal/metrics"
	"github.com/anujaroke/Task-Vault/internal/middleware"
	"github.com/anujaroke/Task-Vault/internal/repo"
)

// ==========================
// Task Handler
// ==========================
// All routes here sit behind middleware.RequireAuth, so the identity is always
// present in the context. Row-level ownership is enforced again in TaskRepo.
type TaskHandler struct {
	Tasks  *repo.TaskRepo
	Render *Renderer

	// Retention is how long a completed task remains listed (6h by default).
	Retention time.Duration

	// Now is the clock used for completion timestamps and the visibility
	// cutoff; swapped out in tests.
	Now func() time.Time
}

func (h *TaskHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// ==========================
// Index (visible task list)
// ==========================
func (h *TaskHandler) Index(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	cutoff := h.now().Add(-h.Retention)
	tasks, err := h.Tasks.ListVisible(r.Context(), ident.UserID, cutoff)
	if err != nil {
		slog.Error("list tasks", "user_id", ident.UserID, "err", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	h.Render.Render(w, "index.html", map[string]interface{}{
		"Username": ident.Username,
		"Tasks":    tasks,
	})
}

// ==========================
// Add Task
// ==========================
func (h *TaskHandler) Add(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	text := r.PostFormValue("task")
	if text == "" {
		// Empty submissions are dropped without comment.
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if _, err := h.Tasks.Create(r.Context(), ident.UserID, text); err != nil {
		slog.Error("create task", "user_id", ident.UserID, "err", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	metrics.IncTask("created")
	http.Redirect(w, r, "/", http.StatusFound)
}

// ==========================
// Toggle Complete
// ==========================
// Invoked by the page via fetch, so the result is JSON rather than a redirect.
// Zero rows affected (unknown id, or a row owned by someone else) still
// responds success; the two cases are indistinguishable to the client.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid task id", http.StatusBadRequest)
		return
	}

	if err := r.ParseForm(); err != nil {
		JSONError(w, "bad form", http.StatusBadRequest)
		return
	}

	completed := r.PostFormValue("completed") == "true"
	var completedAt *time.Time
	if completed {
		t := h.now()
		completedAt = &t
	}

	n, err := h.Tasks.SetCompleted(r.Context(), id, ident.UserID, completed, completedAt)
	if err != nil {
		slog.Error("toggle task", "task_id", id, "user_id", ident.UserID, "err", err)
		JSONError(w, "database error", http.StatusInternalServerError)
		return
	}

	// Count only real transitions; a zero-row no-op changed nothing.
	if n > 0 {
		if completed {
			metrics.IncTask("completed")
		} else {
			metrics.IncTask("reopened")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// ==========================
// Delete Task
// ==========================
// Deleting a row that does not exist, was already deleted, or belongs to
// another user all land on the same redirect.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	n, err := h.Tasks.Delete(r.Context(), id, ident.UserID)
	if err != nil {
		slog.Error("delete task", "task_id", id, "user_id", ident.UserID, "err", err)
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	if n > 0 {
		metrics.IncTask("deleted")
	}
	http.Redirect(w, r, "/", http.StatusFound)
}
