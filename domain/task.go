package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus enumerates the board columns a task can occupy.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// TaskPriority enumerates task urgency levels.
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// TempIDPrefix marks client-generated placeholder identifiers assigned to a
// task between its optimistic creation and the server acknowledgment.
const TempIDPrefix = "temp_"

// Task represents a user-owned activity item mirrored from the server.
type Task struct {
	ID          string       `json:"id"`
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusDone
}

// IsPending reports whether the task still carries a placeholder identifier.
func (t *Task) IsPending() bool {
	return t != nil && strings.HasPrefix(t.ID, TempIDPrefix)
}

// SetStatus transitions the task and keeps CompletedAt consistent: set when
// the task lands on done, cleared on any other status.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	t.Status = status
	if status == StatusDone {
		ts := now
		t.CompletedAt = &ts
	} else {
		t.CompletedAt = nil
	}
	t.UpdatedAt = now
}

// ValidateCompletion checks the completion invariant without mutating.
func (t *Task) ValidateCompletion() error {
	if t.Status == StatusDone && t.CompletedAt == nil {
		return NewError(ErrCodeInvalid, "completed task missing completion timestamp")
	}
	if t.Status != StatusDone && t.CompletedAt != nil {
		return NewError(ErrCodeInvalid, "incomplete task carries completion timestamp")
	}
	return nil
}

// ValidStatus reports whether the value is one of the known board columns.
func ValidStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ValidPriority reports whether the value is a known priority level.
func ValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// NewTempID generates a placeholder identifier for an optimistically created
// task. The timestamp keeps ids roughly ordered; the uuid fragment keeps two
// creations within the same millisecond distinct.
func NewTempID(now time.Time) string {
	return fmt.Sprintf("%s%d_%s", TempIDPrefix, now.UnixMilli(), uuid.NewString()[:8])
}
