// Package tasks is the task store: it enforces task invariants and mediates
// every read and write against the persistence backend.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"todo/internal/models"
	"todo/internal/store"
)

// Service creates, reads, updates and deletes tasks.
type Service struct {
	store store.Store
	now   func() time.Time
	newID func() uuid.UUID
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates a Service backed by st.
func New(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp reads the clock in UTC at microsecond precision, the finest
// resolution every backend stores.
func (s *Service) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// UpdateParams carries the optional fields of an update. Nil fields are left
// unchanged.
type UpdateParams struct {
	Title  *string
	Status *models.Status
}

// Create validates title and persists a new PENDING task.
func (s *Service) Create(ctx context.Context, title string) (*models.Task, error) {
	now := s.stamp()
	task := &models.Task{
		ID:        s.newID(),
		Title:     title,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Get looks up a task. A missing task yields found == false and a nil error.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Task, bool, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return task, true, nil
}

// List returns every task, or only those in status when it is non-nil,
// in creation order.
func (s *Service) List(ctx context.Context, status *models.Status) ([]models.Task, error) {
	if status != nil && !status.Valid() {
		_, err := models.ParseStatus(string(*status))
		return nil, err
	}
	return s.store.ListTasks(ctx, status)
}

// Update applies params to the task with the given id and stamps updated_at.
// Supplied fields are validated before the task is looked up, so invalid
// input is reported even for an unknown id. It returns models.ErrNotFound
// when the task does not exist.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*models.Task, error) {
	if params.Title != nil {
		if err := models.ValidateTitle(*params.Title); err != nil {
			return nil, err
		}
	}
	if params.Status != nil && !params.Status.Valid() {
		_, err := models.ParseStatus(string(*params.Status))
		return nil, err
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Title != nil {
		task.Title = *params.Title
	}
	if params.Status != nil {
		task.Status = *params.Status
	}

	task.UpdatedAt = s.stamp()
	if task.UpdatedAt.Before(task.CreatedAt) {
		task.UpdatedAt = task.CreatedAt
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Delete removes the task with the given id. It returns models.ErrNotFound
// when the task does not exist.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteTask(ctx, id)
}

// Toggle flips a task between PENDING and COMPLETED.
func (s *Service) Toggle(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	task, found, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}

	next := task.Status.Toggle()
	return s.Update(ctx, id, UpdateParams{Status: &next})
}

// Ping reports whether the backend is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
