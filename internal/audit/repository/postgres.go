package repository

import (
	"context"
	"database/sql"

	"workspace-tracker/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// ListByWorkspace returns the workspace's audit logs, newest first. Empty filter fields are ignored.
func (r *PostgresRepository) ListByWorkspace(ctx context.Context, workspaceID string, filter domain.Filter, limit, offset int32) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, user_id, action, resource, target, outcome, ip, metadata, created_at
		 FROM audit_logs
		 WHERE workspace_id = $1
		   AND ($2 = '' OR user_id = $2)
		   AND ($3 = '' OR action = $3)
		   AND ($4 = '' OR resource = $4)
		 ORDER BY created_at DESC, id
		 LIMIT $5 OFFSET $6`,
		workspaceID, filter.UserID, filter.Action, filter.Resource, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.AuditLog
	for rows.Next() {
		var (
			a                    domain.AuditLog
			target, ip, metadata sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.UserID, &a.Action, &a.Resource, &target, &a.Outcome, &ip, &metadata, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Target = target.String
		a.IP = ip.String
		a.Metadata = metadata.String
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Create persists the audit log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, workspace_id, user_id, action, resource, target, outcome, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.WorkspaceID, a.UserID, a.Action, a.Resource,
		sql.NullString{String: a.Target, Valid: a.Target != ""},
		a.Outcome,
		sql.NullString{String: a.IP, Valid: a.IP != ""},
		sql.NullString{String: a.Metadata, Valid: a.Metadata != ""},
		a.CreatedAt)
	return err
}
