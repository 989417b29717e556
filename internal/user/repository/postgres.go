package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"workspace-tracker/internal/db"
	identitydomain "workspace-tracker/internal/identity/domain"
	identityrepo "workspace-tracker/internal/identity/repository"
	"workspace-tracker/internal/user/domain"
)

const (
	userColumns     = `id, email, name, status, created_at, updated_at`
	uniqueViolation = "23505"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns the user with the given email, or nil if not found.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, domain.NormalizeEmail(email)))
}

// CreateWithIdentity persists the user and its first identity in one transaction. Both must have ID set.
// Returns domain.ErrEmailTaken when the email (or the identity's provider id) is already registered.
func (r *PostgresRepository) CreateWithIdentity(ctx context.Context, u *domain.User, ident *identitydomain.Identity) error {
	err := db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
			u.ID, u.Email, sql.NullString{String: u.Name, Valid: u.Name != ""}, string(u.Status), u.CreatedAt, u.UpdatedAt); err != nil {
			return err
		}
		return identityrepo.InsertIdentity(ctx, tx, ident)
	})
	return mapUniqueViolation(err)
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u      domain.User
		name   sql.NullString
		status string
	)
	if err := row.Scan(&u.ID, &u.Email, &name, &status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Name = name.String
	u.Status = domain.UserStatus(status)
	return &u, nil
}
