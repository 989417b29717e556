package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"workspace-tracker/internal/db"
	"workspace-tracker/internal/membership/domain"
)

const membershipColumns = `id, user_id, workspace_id, role, created_at`

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetMembershipByID returns the membership for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetMembershipByID(ctx context.Context, id string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE id = $1`, id)
	return scanMembershipRow(row)
}

// GetMembershipByUserAndWorkspace returns the membership for the given user and workspace, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID)
	return scanMembershipRow(row)
}

// ListMembershipsByWorkspace returns all memberships for the workspace ordered by join time.
func (r *PostgresRepository) ListMembershipsByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Membership, error) {
	return r.list(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE workspace_id = $1 ORDER BY created_at, id`, workspaceID)
}

// ListMembershipsByUser returns every membership the user holds, across workspaces.
func (r *PostgresRepository) ListMembershipsByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	return r.list(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

// ListOwnersByWorkspace returns the owner memberships of the workspace.
func (r *PostgresRepository) ListOwnersByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Membership, error) {
	return r.list(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE workspace_id = $1 AND role = 'owner' ORDER BY created_at, id`,
		workspaceID)
}

// CreateMembership persists the membership. The membership must have ID set.
// Returns domain.ErrAlreadyMember when the user already belongs to the workspace.
func (r *PostgresRepository) CreateMembership(ctx context.Context, m *domain.Membership) error {
	err := InsertMembership(ctx, r.db, m)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrAlreadyMember
	}
	return err
}

// DeleteByUserAndWorkspace deletes the membership. The workspace's owner rows are locked first so two
// concurrent removals cannot both observe a second owner and leave the workspace with none.
func (r *PostgresRepository) DeleteByUserAndWorkspace(ctx context.Context, userID, workspaceID string) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := guardLastOwner(ctx, tx, userID, workspaceID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM memberships WHERE user_id = $1 AND workspace_id = $2`, userID, workspaceID)
		return err
	})
}

// UpdateRole sets the role of the membership and returns the updated row, or nil if not found.
func (r *PostgresRepository) UpdateRole(ctx context.Context, userID, workspaceID string, role domain.Role) (*domain.Membership, error) {
	var out *domain.Membership
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if role != domain.RoleOwner {
			if err := guardLastOwner(ctx, tx, userID, workspaceID); err != nil {
				return err
			}
		}
		row := tx.QueryRowContext(ctx,
			`UPDATE memberships SET role = $3 WHERE user_id = $1 AND workspace_id = $2 RETURNING `+membershipColumns,
			userID, workspaceID, string(role))
		m, err := scanMembershipRow(row)
		out = m
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InsertMembership writes m using any executor (db or tx). Used by the workspace repository
// to create the creator's owner membership in the same transaction as the workspace.
func InsertMembership(ctx context.Context, exec interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, m *domain.Membership) error {
	_, err := exec.ExecContext(ctx,
		`INSERT INTO memberships (id, user_id, workspace_id, role, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.UserID, m.WorkspaceID, string(m.Role), m.CreatedAt)
	return err
}

// guardLastOwner locks the workspace's owner rows and fails with domain.ErrLastOwner when
// userID is the only owner.
func guardLastOwner(ctx context.Context, tx *sql.Tx, userID, workspaceID string) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT user_id FROM memberships WHERE workspace_id = $1 AND role = 'owner' FOR UPDATE`, workspaceID)
	if err != nil {
		return err
	}
	defer rows.Close()
	var owners []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		owners = append(owners, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(owners) == 1 && owners[0] == userID {
		return domain.ErrLastOwner
	}
	return nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		var role string
		if err := rows.Scan(&m.ID, &m.UserID, &m.WorkspaceID, &role, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func scanMembershipRow(row *sql.Row) (*domain.Membership, error) {
	var m domain.Membership
	var role string
	if err := row.Scan(&m.ID, &m.UserID, &m.WorkspaceID, &role, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	m.Role = domain.Role(role)
	return &m, nil
}
