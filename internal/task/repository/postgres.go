package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"workspace-tracker/internal/task/domain"
)

const taskColumns = `id, project_id, title, description, status, assignee_id, created_by, created_at, updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a task repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetTaskByID returns the task for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ListTasksByProject returns the tasks of a project. Returns (nil, error) only on database errors.
func (r *PostgresRepository) ListTasksByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTask persists the task. The task must have ID set.
func (r *PostgresRepository) CreateTask(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, title, description, status, assignee_id, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.ProjectID, t.Title, t.Description, string(t.Status), nullable(t.AssigneeID), t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

// UpdateTask updates title, description and status.
func (r *PostgresRepository) UpdateTask(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET title = $2, description = $3, status = $4, updated_at = $5 WHERE id = $1`,
		t.ID, t.Title, t.Description, string(t.Status), t.UpdatedAt)
	return err
}

// SetAssignee sets the assignee; an empty assigneeID stores NULL.
func (r *PostgresRepository) SetAssignee(ctx context.Context, id, assigneeID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET assignee_id = $2, updated_at = $3 WHERE id = $1`, id, nullable(assigneeID), time.Now().UTC())
	return err
}

// DeleteTask deletes the task row.
func (r *PostgresRepository) DeleteTask(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func scanTask(scan func(dest ...any) error) (*domain.Task, error) {
	var t domain.Task
	var status string
	var assignee sql.NullString
	if err := scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &assignee, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Status = domain.Status(status)
	if assignee.Valid {
		t.AssigneeID = assignee.String
	}
	return &t, nil
}
