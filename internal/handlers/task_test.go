package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/anujaroke/Task-Vault/internal/auth"
	"github.com/anujaroke/Task-Vault/internal/metrics"
	"github.com/anujaroke/Task-Vault/internal/middleware"
	"github.com/anujaroke/Task-Vault/internal/repo"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTaskHandler(t *testing.T, db *sql.DB) *TaskHandler {
	t.Helper()
	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return &TaskHandler{
		Tasks:     repo.NewTaskRepo(db),
		Render:    renderer,
		Retention: 6 * time.Hour,
		Now:       func() time.Time { return testNow },
	}
}

// taskRouter routes through chi so URL params resolve, with the identity
// injected as the auth middleware would.
func taskRouter(h *TaskHandler, ident auth.Identity) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), ident)))
		})
	})
	r.Get("/", h.Index)
	r.Post("/add", h.Add)
	r.Post("/complete/{id}", h.Complete)
	r.Get("/delete/{id}", h.Delete)
	return r
}

func TestTaskHandler_Index(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cutoff := testNow.Add(-6 * time.Hour)
	mock.ExpectQuery(`SELECT id, task, user_id, is_completed, created_at, completed_at\s+FROM tasks`).
		WithArgs(1, cutoff).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "task", "user_id", "is_completed", "created_at", "completed_at"}).
			AddRow(1, "Write spec", 1, false, testNow.Add(-time.Hour), nil))

	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Write spec") {
		t.Error("task text missing from rendered page")
	}
	if !strings.Contains(body, "alice") {
		t.Error("username missing from rendered page")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Add(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO tasks \(task, user_id\)`).
		WithArgs("Buy milk", 1).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "task", "user_id", "is_completed", "created_at", "completed_at"}).
			AddRow(1, "Buy milk", 1, false, testNow, nil))

	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := formRequest("POST", "/add", url.Values{"task": {"Buy milk"}})
	taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Add_EmptyText(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// No insert expected: empty submissions are dropped silently.
	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := formRequest("POST", "/add", url.Values{"task": {""}})
	taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Add_OversizedBody(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// No insert expected: past the body cap, ParseForm fails and the handler
	// takes its silent-redirect path.
	h := newTaskHandler(t, db)
	router := middleware.MaxBytes(1024)(taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}))

	rr := httptest.NewRecorder()
	req := formRequest("POST", "/add", url.Values{"task": {strings.Repeat("x", 4096)}})
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Complete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE tasks`).
		WithArgs(true, testNow, 5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := formRequest("POST", "/complete/5", url.Values{"completed": {"true"}})
	taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out["success"] {
		t.Error("expected success:true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Complete_Uncheck(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE tasks`).
		WithArgs(false, nil, 5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := formRequest("POST", "/complete/5", url.Values{"completed": {"false"}})
	taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Complete_OtherUsersTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	// The row belongs to someone else: zero rows affected, and the response is
	// indistinguishable from a successful toggle.
	mock.ExpectExec(`UPDATE tasks`).
		WithArgs(true, testNow, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := formRequest("POST", "/complete/5", url.Values{"completed": {"true"}})
	taskRouter(h, auth.Identity{UserID: 2, Username: "mallory"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out["success"] {
		t.Error("expected success:true for non-owner (anti-enumeration)")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Complete_InvalidID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := formRequest("POST", "/complete/abc", url.Values{"completed": {"true"}})
	taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs(5, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/delete/5", nil)
	taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}).ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Metrics_SkipZeroRowMutations(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	completedCounter := metrics.TasksTotal.WithLabelValues("completed")
	deletedCounter := metrics.TasksTotal.WithLabelValues("deleted")
	completedBefore := testutil.ToFloat64(completedCounter)
	deletedBefore := testutil.ToFloat64(deletedCounter)

	// Both mutations miss (wrong owner or gone): zero rows affected.
	mock.ExpectExec(`UPDATE tasks`).
		WithArgs(true, testNow, 5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM tasks`).
		WithArgs(5, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := newTaskHandler(t, db)
	router := taskRouter(h, auth.Identity{UserID: 2, Username: "mallory"})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, formRequest("POST", "/complete/5", url.Values{"completed": {"true"}}))
	if rr.Code != http.StatusOK {
		t.Fatalf("complete status: got %d, want 200", rr.Code)
	}
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/delete/5", nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("delete status: got %d, want 302", rr.Code)
	}

	if got := testutil.ToFloat64(completedCounter); got != completedBefore {
		t.Errorf("completed counter moved on a zero-row toggle: %v -> %v", completedBefore, got)
	}
	if got := testutil.ToFloat64(deletedCounter); got != deletedBefore {
		t.Errorf("deleted counter moved on a zero-row delete: %v -> %v", deletedBefore, got)
	}

	// A real delete still counts.
	mock.ExpectExec(`DELETE FROM tasks`).
		WithArgs(6, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/delete/6", nil))
	if rr.Code != http.StatusFound {
		t.Fatalf("delete status: got %d, want 302", rr.Code)
	}
	if got := testutil.ToFloat64(deletedCounter); got != deletedBefore+1 {
		t.Errorf("deleted counter after a real delete: got %v, want %v", got, deletedBefore+1)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTaskHandler_Delete_AlreadyGone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`DELETE FROM tasks WHERE id = \$1 AND user_id = \$2`).
		WithArgs(404, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	h := newTaskHandler(t, db)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/delete/404", nil)
	taskRouter(h, auth.Identity{UserID: 1, Username: "alice"}).ServeHTTP(rr, req)

	// Same outcome as deleting an existing row.
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Errorf("expected redirect to /, got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
