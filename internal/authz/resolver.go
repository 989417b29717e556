package authz

import (
	"context"
	"fmt"

	"workspace-tracker/internal/membership/domain"
	workspacedomain "workspace-tracker/internal/workspace/domain"
)

// WorkspaceGetter loads a workspace by id; (nil, nil) means not found.
type WorkspaceGetter interface {
	GetWorkspaceByID(ctx context.Context, id string) (*workspacedomain.Workspace, error)
}

// MembershipGetter returns a user's membership in a workspace; (nil, nil) means not a member.
type MembershipGetter interface {
	GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Membership, error)
}

// Resolver finds the actor's membership in a workspace. Read-only.
type Resolver struct {
	workspaces  WorkspaceGetter
	memberships MembershipGetter
}

// NewResolver returns a Resolver over the given repositories.
func NewResolver(workspaces WorkspaceGetter, memberships MembershipGetter) *Resolver {
	return &Resolver{workspaces: workspaces, memberships: memberships}
}

// Resolve returns the actor's membership in workspaceID. It fails with ErrWorkspaceNotFound when
// the workspace does not exist and ErrMembershipNotFound when the actor is not a member; both are
// authorization failures. Storage errors are returned wrapped.
func (r *Resolver) Resolve(ctx context.Context, actorID, workspaceID string) (*domain.Membership, error) {
	target := WorkspaceTarget(workspaceID)
	if workspaceID == "" {
		return nil, newError(CodeWorkspaceNotFound, ErrWorkspaceNotFound, actorID, workspaceID, target)
	}
	ws, err := r.workspaces.GetWorkspaceByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", workspaceID, err)
	}
	if ws == nil {
		return nil, newError(CodeWorkspaceNotFound, ErrWorkspaceNotFound, actorID, workspaceID, target)
	}
	if actorID == "" {
		return nil, newError(CodeMembershipNotFound, ErrMembershipNotFound, actorID, workspaceID, target)
	}
	m, err := r.memberships.GetMembershipByUserAndWorkspace(ctx, actorID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load membership %s/%s: %w", workspaceID, actorID, err)
	}
	if m == nil {
		return nil, newError(CodeMembershipNotFound, ErrMembershipNotFound, actorID, workspaceID, target)
	}
	return m, nil
}
