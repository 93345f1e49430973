package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"

	DefaultTaskPriority = 1
)

// Task is a personal task owned by a single user.
type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Priority    int        `json:"priority" db:"priority"`
	Status      string     `json:"status" db:"status"`
	WeekStart   time.Time  `json:"week_start" db:"week_start"`
	Archived    bool       `json:"archived" db:"archived"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty" db:"archived_at"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskUpdate carries the fields of a partial update; nil means unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *int
	Status      *string
}

// IsValidTaskStatus reports whether s is a known lifecycle state.
func IsValidTaskStatus(s string) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// CompletionTime derives completed_at from a status transition. An already completed task
// keeps its original timestamp.
func CompletionTime(status string, previous *time.Time, now time.Time) *time.Time {
	if status != TaskStatusCompleted {
		return nil
	}
	if previous != nil {
		return previous
	}
	t := now.UTC()
	return &t
}
