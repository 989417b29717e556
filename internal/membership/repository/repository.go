package repository

import (
	"context"

	"workspace-tracker/internal/membership/domain"
)

// Repository defines persistence for workspace memberships.
type Repository interface {
	GetMembershipByID(ctx context.Context, id string) (*domain.Membership, error)
	GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Membership, error)
	ListMembershipsByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Membership, error)
	ListMembershipsByUser(ctx context.Context, userID string) ([]*domain.Membership, error)
	ListOwnersByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Membership, error)
	CreateMembership(ctx context.Context, m *domain.Membership) error
	// DeleteByUserAndWorkspace removes the membership. Returns domain.ErrLastOwner instead of deleting
	// when the row is the workspace's only owner.
	DeleteByUserAndWorkspace(ctx context.Context, userID, workspaceID string) error
	// UpdateRole changes the role and returns the updated row, or nil if no row matched.
	// Returns domain.ErrLastOwner when demoting the workspace's only owner.
	UpdateRole(ctx context.Context, userID, workspaceID string, role domain.Role) (*domain.Membership, error)
}
