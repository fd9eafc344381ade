package store

import (
	"todo/internal/models"
)

// rowScanner is satisfied by *sql.Row, *sql.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		task   models.Task
		status string
	)

	if err := row.Scan(&task.ID, &task.Title, &status, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	task.Status = models.Status(status)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	return &task, nil
}
