package tasks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"todo/internal/models"
	"todo/internal/store"
)

// fakeClock advances by one second on every reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func setupService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return New(s, WithClock(clock.Now)), s
}

func statusPtr(s models.Status) *models.Status { return &s }

func strPtr(s string) *string { return &s }

func TestCreate_ValidTitles(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	titles := []string{"x", "Buy milk", "   ", strings.Repeat("a", 200), strings.Repeat("ü", 200)}
	for _, title := range titles {
		created, err := svc.Create(ctx, title)
		if err != nil {
			t.Fatalf("Create(%q) failed: %v", title, err)
		}
		if created.ID == uuid.Nil {
			t.Error("expected id to be generated")
		}

		got, found, err := svc.Get(ctx, created.ID)
		if err != nil || !found {
			t.Fatalf("Get failed: found=%v err=%v", found, err)
		}
		if got.Title != title {
			t.Errorf("expected title %q, got %q", title, got.Title)
		}
		if got.Status != models.StatusPending {
			t.Errorf("expected PENDING, got %q", got.Status)
		}
		if !got.CreatedAt.Equal(got.UpdatedAt) {
			t.Errorf("expected created_at == updated_at on create, got %v / %v", got.CreatedAt, got.UpdatedAt)
		}
	}
}

func TestCreate_InvalidTitleNotPersisted(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for _, title := range []string{"", strings.Repeat("a", 201)} {
		_, err := svc.Create(ctx, title)
		var ve *models.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError for %d-char title, got %v", len(title), err)
		}
	}

	all, err := svc.List(ctx, nil)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no persisted tasks, got %d", len(all))
	}
}

func TestUnknownID(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	id := uuid.New()

	task, found, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get returned error for absent task: %v", err)
	}
	if found || task != nil {
		t.Fatalf("expected absent, got %+v", task)
	}

	if _, err := svc.Update(ctx, id, UpdateParams{Title: strPtr("New")}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Update, got %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Delete, got %v", err)
	}
	if _, err := svc.Toggle(ctx, id); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound from Toggle, got %v", err)
	}
}

func TestUpdate_NoFieldsAdvancesUpdatedAt(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Unchanged")

	updated, err := svc.Update(ctx, created.ID, UpdateParams{})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Title != created.Title || updated.Status != created.Status {
		t.Errorf("fields changed: %+v -> %+v", created, updated)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("expected updated_at to advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}
}

func TestUpdate_RoundTrip(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "Buy milk")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Update(ctx, created.ID, UpdateParams{Status: statusPtr(models.StatusCompleted)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, found, err := svc.Get(ctx, created.ID)
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("expected COMPLETED, got %q", got.Status)
	}
	if got.Title != "Buy milk" {
		t.Errorf("expected title unchanged, got %q", got.Title)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("expected updated_at > created_at, got %v / %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestUpdate_TitleOnly(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Old")
	svc.Update(ctx, created.ID, UpdateParams{Status: statusPtr(models.StatusCompleted)})

	updated, err := svc.Update(ctx, created.ID, UpdateParams{Title: strPtr("New")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Title != "New" {
		t.Errorf("expected title New, got %q", updated.Title)
	}
	if updated.Status != models.StatusCompleted {
		t.Errorf("expected status to stay COMPLETED, got %q", updated.Status)
	}
}

func TestUpdate_InvalidTitle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Keep me")

	for _, title := range []string{"", strings.Repeat("b", 201)} {
		if _, err := svc.Update(ctx, created.ID, UpdateParams{Title: strPtr(title)}); !models.IsValidation(err) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	}

	got, _, _ := svc.Get(ctx, created.ID)
	if got.Title != "Keep me" {
		t.Errorf("expected title unchanged after rejected update, got %q", got.Title)
	}
	if !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("expected updated_at unchanged after rejected update")
	}
}

func TestUpdate_InvalidStatus(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Task")

	if _, err := svc.Update(ctx, created.ID, UpdateParams{Status: statusPtr("ARCHIVED")}); !models.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdate_StatusIsBidirectional(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Flip")

	for _, want := range []models.Status{models.StatusCompleted, models.StatusPending, models.StatusCompleted} {
		got, err := svc.Update(ctx, created.ID, UpdateParams{Status: statusPtr(want)})
		if err != nil {
			t.Fatalf("Update to %s failed: %v", want, err)
		}
		if got.Status != want {
			t.Fatalf("expected %s, got %s", want, got.Status)
		}
	}
}

func TestUpdate_ClockSkewKeepsUpdatedAfterCreated(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	readings := []time.Time{start, start.Add(-time.Hour)}
	i := 0
	svc := New(s, WithClock(func() time.Time {
		v := readings[i]
		i++
		return v
	}))
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Skewed")
	updated, err := svc.Update(ctx, created.ID, UpdateParams{})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.UpdatedAt.Before(updated.CreatedAt) {
		t.Fatalf("updated_at %v precedes created_at %v", updated.UpdatedAt, updated.CreatedAt)
	}
}

func TestToggle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, _ := svc.Create(ctx, "Toggle me")

	toggled, err := svc.Toggle(ctx, created.ID)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if toggled.Status != models.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %q", toggled.Status)
	}

	toggled, _ = svc.Toggle(ctx, created.ID)
	if toggled.Status != models.StatusPending {
		t.Fatalf("expected PENDING, got %q", toggled.Status)
	}
}

func TestList_PartitionsByStatus(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		task, _ := svc.Create(ctx, "Task")
		if i%3 == 0 {
			svc.Update(ctx, task.ID, UpdateParams{Status: statusPtr(models.StatusCompleted)})
		}
	}

	all, _ := svc.List(ctx, nil)
	pending, _ := svc.List(ctx, statusPtr(models.StatusPending))
	completed, _ := svc.List(ctx, statusPtr(models.StatusCompleted))

	seen := make(map[uuid.UUID]models.Status)
	for _, task := range pending {
		seen[task.ID] = task.Status
	}
	for _, task := range completed {
		if _, dup := seen[task.ID]; dup {
			t.Fatalf("task %s appears in both filtered lists", task.ID)
		}
		seen[task.ID] = task.Status
	}

	if len(seen) != len(all) {
		t.Fatalf("expected union of %d, got %d", len(all), len(seen))
	}
	for _, task := range all {
		status, ok := seen[task.ID]
		if !ok {
			t.Fatalf("task %s missing from filtered lists", task.ID)
		}
		if status != task.Status {
			t.Fatalf("task %s filtered under %s but has %s", task.ID, status, task.Status)
		}
	}
}

func TestList_InvalidStatusFilter(t *testing.T) {
	svc, _ := setupService(t)

	if _, err := svc.List(context.Background(), statusPtr("DONE")); !models.IsValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDelete_Twice(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	task, _ := svc.Create(ctx, "Delete me")

	if err := svc.Delete(ctx, task.ID); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if _, found, _ := svc.Get(ctx, task.ID); found {
		t.Fatal("expected task to be absent after delete")
	}
	if err := svc.Delete(ctx, task.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestScenario_TwoTasks(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	task1, _ := svc.Create(ctx, "Task 1")
	task2, _ := svc.Create(ctx, "Task 2")
	if _, err := svc.Update(ctx, task1.ID, UpdateParams{Status: statusPtr(models.StatusCompleted)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	pending, _ := svc.List(ctx, statusPtr(models.StatusPending))
	if len(pending) != 1 || pending[0].ID != task2.ID {
		t.Errorf("expected [Task 2] pending, got %+v", pending)
	}

	completed, _ := svc.List(ctx, statusPtr(models.StatusCompleted))
	if len(completed) != 1 || completed[0].ID != task1.ID {
		t.Errorf("expected [Task 1] completed, got %+v", completed)
	}
}

// failingStore returns errBoom from every call.
type failingStore struct{}

var errBoom = errors.New("disk full")

func (failingStore) CreateTask(context.Context, *models.Task) error { return errBoom }
func (failingStore) GetTask(context.Context, uuid.UUID) (*models.Task, error) {
	return nil, errBoom
}
func (failingStore) ListTasks(context.Context, *models.Status) ([]models.Task, error) {
	return nil, errBoom
}
func (failingStore) UpdateTask(context.Context, *models.Task) error { return errBoom }
func (failingStore) DeleteTask(context.Context, uuid.UUID) error    { return errBoom }
func (failingStore) Ping(context.Context) error                     { return errBoom }
func (failingStore) Close() error                                   { return nil }

func TestProviderErrorsPropagate(t *testing.T) {
	svc := New(failingStore{})
	ctx := context.Background()
	id := uuid.New()

	if _, err := svc.Create(ctx, "Task"); !errors.Is(err, errBoom) {
		t.Errorf("Create: expected provider error, got %v", err)
	}
	if _, _, err := svc.Get(ctx, id); !errors.Is(err, errBoom) {
		t.Errorf("Get: expected provider error, got %v", err)
	}
	if _, err := svc.List(ctx, nil); !errors.Is(err, errBoom) {
		t.Errorf("List: expected provider error, got %v", err)
	}
	if _, err := svc.Update(ctx, id, UpdateParams{}); !errors.Is(err, errBoom) {
		t.Errorf("Update: expected provider error, got %v", err)
	}
	if err := svc.Delete(ctx, id); !errors.Is(err, errBoom) {
		t.Errorf("Delete: expected provider error, got %v", err)
	}
}

func TestCreate_ValidationBeforeProvider(t *testing.T) {
	svc := New(failingStore{})

	_, err := svc.Create(context.Background(), "")
	if !models.IsValidation(err) {
		t.Fatalf("expected ValidationError before touching the store, got %v", err)
	}
}

func TestCreateAndUpdate_ReturnStoredTimestamps(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 123456789, time.UTC)}
	svc := New(s, WithClock(clock.Now))
	ctx := context.Background()

	created, err := svc.Create(ctx, "Precise")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.CreatedAt.Nanosecond()%1000 != 0 {
		t.Errorf("expected microsecond precision, got %v", created.CreatedAt)
	}

	got, _, _ := svc.Get(ctx, created.ID)
	if !got.CreatedAt.Equal(created.CreatedAt) || !got.UpdatedAt.Equal(created.UpdatedAt) {
		t.Errorf("Create returned %v/%v, stored %v/%v",
			created.CreatedAt, created.UpdatedAt, got.CreatedAt, got.UpdatedAt)
	}

	updated, err := svc.Update(ctx, created.ID, UpdateParams{Title: strPtr("Still precise")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _, _ = svc.Get(ctx, created.ID)
	if !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("Update returned %v, stored %v", updated.UpdatedAt, got.UpdatedAt)
	}
}

func TestUpdate_ValidationBeforeLookup(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Update(context.Background(), uuid.New(), UpdateParams{Title: strPtr("")})
	if !models.IsValidation(err) {
		t.Fatalf("expected ValidationError for invalid title on unknown id, got %v", err)
	}
	if errors.Is(err, models.ErrNotFound) {
		t.Errorf("did not expect ErrNotFound, got %v", err)
	}

	_, err = svc.Update(context.Background(), uuid.New(), UpdateParams{Title: strPtr("Fine")})
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for valid input on unknown id, got %v", err)
	}
}
