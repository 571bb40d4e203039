// ABOUTME: Task store methods keyed by globally unique title
// ABOUTME: Owner is read from the row on every lookup, never cached

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const taskColumns = `id, title, description, due_date, owner_id, created_at, updated_at`

// CreateTask inserts a new task. Returns ErrDuplicateTitle if the title is
// already in use.
func (q *sqlQueries) CreateTask(ctx context.Context, task *Task) error {
	task.Title = NormalizeTitle(task.Title)

	query := `
		INSERT INTO tasks (id, title, description, due_date, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.DueDate.UTC().Format(DateLayout),
		task.OwnerID,
		task.CreatedAt.UTC().Format(time.RFC3339),
		task.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("inserting task: %w", err)
	}

	q.logger.Debug("created task", "id", task.ID, "owner_id", task.OwnerID)
	return nil
}

// GetTaskByTitle retrieves a task by its title.
// Returns ErrNotFound if the task doesn't exist.
func (q *sqlQueries) GetTaskByTitle(ctx context.Context, title string) (*Task, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE title = ?`, NormalizeTitle(title))
	return scanTask(row)
}

// TaskExistsByTitle reports whether a title is in use.
func (q *sqlQueries) TaskExistsByTitle(ctx context.Context, title string) (bool, error) {
	return q.exists(ctx, `SELECT COUNT(*) FROM tasks WHERE title = ?`, NormalizeTitle(title))
}

// UpdateTask writes every mutable field of task. Returns ErrNotFound if the
// task no longer exists and ErrDuplicateTitle if the new title is taken.
func (q *sqlQueries) UpdateTask(ctx context.Context, task *Task) error {
	task.Title = NormalizeTitle(task.Title)

	query := `
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, owner_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := q.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.DueDate.UTC().Format(DateLayout),
		task.OwnerID,
		task.UpdatedAt.UTC().Format(time.RFC3339),
		task.ID,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("updating task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteTask removes a task by ID.
// Returns ErrNotFound if the task doesn't exist.
func (q *sqlQueries) DeleteTask(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	q.logger.Debug("deleted task", "id", id)
	return nil
}

// ListTasksByOwner returns a page of the owner's tasks ordered by title.
func (q *sqlQueries) ListTasksByOwner(ctx context.Context, ownerID string, page Page) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? ORDER BY title LIMIT ? OFFSET ?`

	rows, err := q.db.QueryContext(ctx, query, ownerID, page.limit(), page.rowOffset())
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}

	return tasks, nil
}

func scanTask(row rowScanner) (*Task, error) {
	var task Task
	var dueDateStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&dueDateStr,
		&task.OwnerID,
		&createdAtStr,
		&updatedAtStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	task.DueDate, err = time.Parse(DateLayout, dueDateStr)
	if err != nil {
		return nil, fmt.Errorf("parsing due_date: %w", err)
	}
	task.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	task.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &task, nil
}
