package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"todo/internal/models"
)

const pgTaskColumns = `id::text, title, status, created_at, updated_at`

// PostgresStore implements the Store interface on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and applies pending migrations.
// maxConns <= 0 keeps the pgxpool default.
func NewPostgresStore(ctx context.Context, databaseURL string, maxConns int) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO tasks (id, title, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`, task.ID.String(), task.Title, string(task.Status), task.CreatedAt.UTC(), task.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var task *models.Task

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+pgTaskColumns+` FROM tasks WHERE id = $1`, id.String())

		t, err := scanTask(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) ListTasks(ctx context.Context, status *models.Status) ([]models.Task, error) {
	query := `SELECT ` + pgTaskColumns + ` FROM tasks`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY seq ASC`

	tasks := []models.Task{}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
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

func (s *PostgresStore) UpdateTask(ctx context.Context, task *models.Task) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE tasks
			SET title = $1, status = $2, updated_at = $3
			WHERE id = $4
		`, task.Title, string(task.Status), task.UpdatedAt.UTC(), task.ID.String())
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", models.ErrNotFound, task.ID)
		}
		return nil
	})
}

func (s *PostgresStore) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id.String())
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", models.ErrNotFound, id)
		}
		return nil
	})
}
