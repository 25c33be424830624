package models

import "time"

// Task belongs to exactly one user. CompletedAt is set iff IsCompleted is true;
// toggling a task back to incomplete clears it.
type Task struct {
	ID          int        `json:"id"`
	Task        string     `json:"task"`
	UserID      int        `json:"user_id"`
	IsCompleted bool       `json:"is_completed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
}
