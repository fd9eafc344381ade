package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"todo/internal/models"
)

const taskColumns = `id, title, status, created_at, updated_at`

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given database path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases alive across calls and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx runs fn inside a transaction that is committed only if fn succeeds.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// CreateTask inserts a new task. The caller assigns the id and timestamps.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *models.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, task.ID.String(), task.Title, string(task.Status), task.CreatedAt.UTC(), task.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task *models.Task

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id.String())

		t, err := scanTask(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", models.ErrNotFound, id)
			}
			return fmt.Errorf("failed to get task: %w", err)
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return task, nil
}

// ListTasks retrieves tasks in creation order, optionally filtered by status.
func (s *SQLiteStore) ListTasks(ctx context.Context, status *models.Status) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY seq ASC`

	tasks := []models.Task{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return fmt.Errorf("failed to scan task: %w", err)
			}
			tasks = append(tasks, *task)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

// UpdateTask overwrites the mutable fields of an existing task.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task *models.Task) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET title = ?, status = ?, updated_at = ?
			WHERE id = ?
		`, task.Title, string(task.Status), task.UpdatedAt.UTC(), task.ID.String())
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		return requireRow(result, task.ID)
	})
}

// DeleteTask deletes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		return requireRow(result, id)
	})
}

func requireRow(result sql.Result, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrNotFound, id)
	}
	return nil
}
