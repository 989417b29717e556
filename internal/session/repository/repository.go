package repository

import (
	"context"
	"time"

	"workspace-tracker/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllSessionsByUser(ctx context.Context, userID string) error
	// RevokeOtherSessionsByUser revokes every live session of the user except keepID.
	RevokeOtherSessionsByUser(ctx context.Context, userID, keepID string) error
	// ListActiveByUser returns the user's unrevoked, unexpired sessions, newest first.
	ListActiveByUser(ctx context.Context, userID string, now time.Time, limit, offset int32) ([]*domain.Session, error)
	// RotateRefreshToken replaces the session's refresh token only if its current jti is still
	// expectedJti and the session is not revoked. Returns false when another rotation won the race.
	RotateRefreshToken(ctx context.Context, sessionID, expectedJti, newJti, newHash string) (bool, error)
}
