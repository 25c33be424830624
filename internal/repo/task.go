package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/anujaroke/Task-Vault/internal/models"
)

// ==========================
// TaskRepo
// ==========================
// Every mutation is scoped by id AND user_id, so a caller holding a valid
// session for user B cannot touch user A's rows by guessing ids. A mismatch
// simply affects zero rows, indistinguishable from the row not existing.
type TaskRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{DB: db}
}

// ==========================
// Create Task
// ==========================
func (r *TaskRepo) Create(ctx context.Context, userID int, text string) (*models.Task, error) {
	query := `
		INSERT INTO tasks (task, user_id)
		VALUES ($1, $2)
		RETURNING id, task, user_id, is_completed, created_at, completed_at
	`

	task := &models.Task{}

	err := r.DB.QueryRowContext(ctx, query, text, userID).
		Scan(&task.ID, &task.Task, &task.UserID, &task.IsCompleted, &task.CreatedAt, &task.CompletedAt)

	if err != nil {
		return nil, err
	}

	return task, nil
}

// ==========================
// List Visible Tasks
// ==========================
// Returns the user's tasks that are either incomplete or were completed
// strictly after cutoff, newest first. Older completed rows stay in storage;
// this is a read-time filter, not a deletion.
func (r *TaskRepo) ListVisible(ctx context.Context, userID int, cutoff time.Time) ([]models.Task, error) {
	query := `
		SELECT id, task, user_id, is_completed, created_at, completed_at
		FROM tasks
		WHERE user_id = $1
		  AND (is_completed = FALSE OR completed_at > $2)
		ORDER BY created_at DESC
	`

	rows, err := r.DB.QueryContext(ctx, query, userID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Task, &t.UserID, &t.IsCompleted, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// ==========================
// Set Completed
// ==========================
// completedAt must be non-nil when completed is true and nil when it is false,
// keeping the flag/timestamp invariant in one statement. Returns the number of
// rows affected; zero means no task matched id + userID.
func (r *TaskRepo) SetCompleted(ctx context.Context, id, userID int, completed bool, completedAt *time.Time) (int64, error) {
	query := `
		UPDATE tasks
		SET is_completed = $1, completed_at = $2
		WHERE id = $3 AND user_id = $4
	`

	result, err := r.DB.ExecContext(ctx, query, completed, completedAt, id, userID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// ==========================
// Delete Task
// ==========================
// Zero rows affected is not an error: "already deleted" and "not the owner"
// look the same to the caller on purpose.
func (r *TaskRepo) Delete(ctx context.Context, id, userID int) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// ==========================
// Purge Completed Tasks
// ==========================
// Hard-deletes tasks across all users that were completed before cutoff.
// Operator maintenance only (cli tasks purge); the web surface never calls this.
func (r *TaskRepo) PurgeCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM tasks WHERE is_completed = TRUE AND completed_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
