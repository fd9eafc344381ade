package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTitleLength is the longest title a task may carry, counted in characters.
const MaxTitleLength = 200

// Status is the completion state of a task.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// ParseStatus converts s into a Status. Matching is exact.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted:
		return Status(s), nil
	default:
		return "", &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("status must be %q or %q", StatusPending, StatusCompleted),
		}
	}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusCompleted {
		return StatusPending
	}
	return StatusCompleted
}

func (s Status) String() string {
	return string(s)
}

// Task is a titled item with a completion status.
type Task struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that the task has valid field values.
func (t *Task) Validate() error {
	if err := ValidateTitle(t.Title); err != nil {
		return err
	}

	if !t.Status.Valid() {
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("status must be %q or %q", StatusPending, StatusCompleted),
		}
	}

	if t.UpdatedAt.Before(t.CreatedAt) {
		return &ValidationError{Field: "updated_at", Message: "updated_at cannot precede created_at"}
	}

	return nil
}

// ValidateTitle checks a title on its own, as used by partial updates.
func ValidateTitle(title string) error {
	if title == "" {
		return &ValidationError{Field: "title", Message: "task title is required"}
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return &ValidationError{
			Field:   "title",
			Message: fmt.Sprintf("task title cannot exceed %d characters", MaxTitleLength),
		}
	}

	return nil
}

// IsCompleted returns true if the task is in the COMPLETED state.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}
