package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"workspace-tracker/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	var (
		s             domain.Session
		revoked, seen sql.NullTime
		ip, jti, hash sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at, revoked_at, last_seen_at, ip_address, refresh_jti, refresh_token_hash, created_at
		 FROM sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.ExpiresAt, &revoked, &seen, &ip, &jti, &hash, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.RevokedAt = nullTimeToPtr(revoked)
	s.LastSeenAt = nullTimeToPtr(seen)
	s.IPAddress = ip.String
	s.RefreshJti = jti.String
	s.RefreshTokenHash = hash.String
	return &s, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, ip_address, refresh_jti, refresh_token_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, s.ExpiresAt,
		sql.NullString{String: s.IPAddress, Valid: s.IPAddress != ""},
		sql.NullString{String: s.RefreshJti, Valid: s.RefreshJti != ""},
		sql.NullString{String: s.RefreshTokenHash, Valid: s.RefreshTokenHash != ""},
		s.CreatedAt)
	return err
}

// Revoke marks the session as revoked. Revoking an already revoked or missing session is a no-op.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`, id, time.Now().UTC())
	return err
}

// RevokeAllSessionsByUser revokes every live session of the user.
func (r *PostgresRepository) RevokeAllSessionsByUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`, userID, time.Now().UTC())
	return err
}

// RevokeOtherSessionsByUser revokes every live session of the user except keepID.
func (r *PostgresRepository) RevokeOtherSessionsByUser(ctx context.Context, userID, keepID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $3 WHERE user_id = $1 AND id <> $2 AND revoked_at IS NULL`,
		userID, keepID, time.Now().UTC())
	return err
}

// ListActiveByUser returns the user's unrevoked, unexpired sessions, newest first.
func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time, limit, offset int32) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, expires_at, last_seen_at, ip_address, created_at
		 FROM sessions WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		 ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		userID, now, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Session
	for rows.Next() {
		var (
			s    domain.Session
			seen sql.NullTime
			ip   sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.ExpiresAt, &seen, &ip, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.LastSeenAt = nullTimeToPtr(seen)
		s.IPAddress = ip.String
		out = append(out, &s)
	}
	return out, rows.Err()
}

// RotateRefreshToken swaps the refresh token in a single conditional update.
func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, sessionID, expectedJti, newJti, newHash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET refresh_jti = $3, refresh_token_hash = $4, last_seen_at = $5
		 WHERE id = $1 AND refresh_jti = $2 AND revoked_at IS NULL`,
		sessionID, expectedJti, newJti, newHash, time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func nullTimeToPtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	return &n.Time
}
