package repository

import (
	"context"

	membershipdomain "workspace-tracker/internal/membership/domain"
	"workspace-tracker/internal/workspace/domain"
)

// Repository defines persistence for workspaces.
type Repository interface {
	GetWorkspaceByID(ctx context.Context, id string) (*domain.Workspace, error)
	ListWorkspacesByMember(ctx context.Context, userID string) ([]*domain.Workspace, error)
	// CreateWorkspaceWithOwner inserts the workspace and the creator's owner membership atomically.
	CreateWorkspaceWithOwner(ctx context.Context, w *domain.Workspace, owner *membershipdomain.Membership) error
	UpdateWorkspace(ctx context.Context, w *domain.Workspace) error
	UpdateSettings(ctx context.Context, id string, settings map[string]string) error
	// DeleteWorkspace removes the workspace; memberships, projects and tasks cascade.
	DeleteWorkspace(ctx context.Context, id string) error
}
