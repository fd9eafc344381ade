package store

import (
	"context"

	"github.com/google/uuid"

	"todo/internal/models"
)

// Store defines the interface for task persistence.
//
// Every method runs in its own transaction. Lookups of a missing id and
// updates or deletes that touch no row return models.ErrNotFound.
type Store interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error)
	// ListTasks returns tasks in creation order. A nil status returns all tasks.
	ListTasks(ctx context.Context, status *models.Status) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id uuid.UUID) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
