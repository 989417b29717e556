package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goccy/go-json"

	"workspace-tracker/internal/db"
	membershipdomain "workspace-tracker/internal/membership/domain"
	membershiprepo "workspace-tracker/internal/membership/repository"
	"workspace-tracker/internal/workspace/domain"
)

const workspaceColumns = `w.id, w.name, w.description, w.settings, w.created_by, w.created_at, w.updated_at`

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a workspace repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetWorkspaceByID returns the workspace for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetWorkspaceByID(ctx context.Context, id string) (*domain.Workspace, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+workspaceColumns+` FROM workspaces w WHERE w.id = $1`, id)
	w, err := scanWorkspace(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// ListWorkspacesByMember returns the workspaces in which userID holds a membership.
func (r *PostgresRepository) ListWorkspacesByMember(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces w
		 JOIN memberships m ON m.workspace_id = w.id
		 WHERE m.user_id = $1 ORDER BY w.created_at, w.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CreateWorkspaceWithOwner persists the workspace and its first owner membership in one transaction.
func (r *PostgresRepository) CreateWorkspaceWithOwner(ctx context.Context, w *domain.Workspace, owner *membershipdomain.Membership) error {
	settings, err := encodeSettings(w.Settings)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO workspaces (id, name, description, settings, created_by, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			w.ID, w.Name, w.Description, settings, w.CreatedBy, w.CreatedAt, w.UpdatedAt); err != nil {
			return err
		}
		return membershiprepo.InsertMembership(ctx, tx, owner)
	})
}

// UpdateWorkspace updates name and description.
func (r *PostgresRepository) UpdateWorkspace(ctx context.Context, w *domain.Workspace) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE workspaces SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		w.ID, w.Name, w.Description, w.UpdatedAt)
	return err
}

// UpdateSettings replaces the workspace settings document.
func (r *PostgresRepository) UpdateSettings(ctx context.Context, id string, settings map[string]string) error {
	raw, err := encodeSettings(settings)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE workspaces SET settings = $2, updated_at = $3 WHERE id = $1`, id, raw, time.Now().UTC())
	return err
}

// DeleteWorkspace deletes the workspace row. Foreign keys cascade to memberships, projects and tasks.
func (r *PostgresRepository) DeleteWorkspace(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	return err
}

func encodeSettings(settings map[string]string) (string, error) {
	if settings == nil {
		settings = map[string]string{}
	}
	b, err := json.Marshal(settings)
	return string(b), err
}

func scanWorkspace(scan func(dest ...any) error) (*domain.Workspace, error) {
	var w domain.Workspace
	var settings []byte
	if err := scan(&w.ID, &w.Name, &w.Description, &settings, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	w.Settings = map[string]string{}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &w.Settings); err != nil {
			return nil, err
		}
	}
	return &w, nil
}
