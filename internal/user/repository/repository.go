package repository

import (
	"context"

	identitydomain "workspace-tracker/internal/identity/domain"
	"workspace-tracker/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateWithIdentity(ctx context.Context, u *domain.User, ident *identitydomain.Identity) error
}
