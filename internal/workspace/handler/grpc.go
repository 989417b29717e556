package handler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	workspacev1 "workspace-tracker/api/workspace/v1"
	"workspace-tracker/internal/authz"
	membershipdomain "workspace-tracker/internal/membership/domain"
	"workspace-tracker/internal/platform/rbac"
	"workspace-tracker/internal/server/interceptors"
	"workspace-tracker/internal/workspace/domain"
	"workspace-tracker/internal/workspace/repository"
)

// MembershipLister returns the memberships a user holds; used to report the caller's role per workspace.
type MembershipLister interface {
	ListMembershipsByUser(ctx context.Context, userID string) ([]*membershipdomain.Membership, error)
}

// Server implements WorkspaceService.
type Server struct {
	repo        repository.Repository
	memberships MembershipLister
	guard       *authz.Guard
}

// NewServer returns a new Workspace gRPC server. If repo or guard is nil, all RPCs return Unimplemented.
func NewServer(repo repository.Repository, memberships MembershipLister, guard *authz.Guard) *Server {
	return &Server{repo: repo, memberships: memberships, guard: guard}
}

func (s *Server) ready() error {
	if s.repo == nil || s.guard == nil {
		return status.Error(codes.Unimplemented, "workspace service not configured")
	}
	return nil
}

// CreateWorkspace creates a workspace owned by the caller. Any authenticated user may create one;
// the workspace and the owner membership are written together.
func (s *Server) CreateWorkspace(ctx context.Context, req *workspacev1.CreateWorkspaceRequest) (*workspacev1.CreateWorkspaceResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	userID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	w := &domain.Workspace{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Settings:    map[string]string{},
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := w.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	owner := &membershipdomain.Membership{
		ID:          uuid.New().String(),
		UserID:      userID,
		WorkspaceID: w.ID,
		Role:        membershipdomain.RoleOwner,
		CreatedAt:   now,
	}
	if err := s.repo.CreateWorkspaceWithOwner(ctx, w, owner); err != nil {
		return nil, status.Error(codes.Internal, "failed to create workspace")
	}
	interceptors.AnnotateAudit(ctx, w.ID, authz.WorkspaceTarget(w.ID).String())
	return &workspacev1.CreateWorkspaceResponse{Workspace: workspaceToProto(w, owner.Role)}, nil
}

// GetWorkspace returns a workspace the caller is a member of.
func (s *Server) GetWorkspace(ctx context.Context, req *workspacev1.GetWorkspaceRequest) (*workspacev1.GetWorkspaceResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.RequireMember(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)))
	if err != nil {
		return nil, err
	}
	w, err := s.load(ctx, grant.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return &workspacev1.GetWorkspaceResponse{Workspace: workspaceToProto(w, grant.Role)}, nil
}

// ListWorkspaces returns every workspace the caller holds a membership in, with the caller's role.
func (s *Server) ListWorkspaces(ctx context.Context, req *workspacev1.ListWorkspacesRequest) (*workspacev1.ListWorkspacesResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	userID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListWorkspacesByMember(ctx, userID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list workspaces")
	}
	roles := map[string]membershipdomain.Role{}
	if s.memberships != nil {
		ms, err := s.memberships.ListMembershipsByUser(ctx, userID)
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to list workspaces")
		}
		for _, m := range ms {
			roles[m.WorkspaceID] = m.Role
		}
	}
	out := make([]*workspacev1.Workspace, 0, len(list))
	for _, w := range list {
		out = append(out, workspaceToProto(w, roles[w.ID]))
	}
	return &workspacev1.ListWorkspacesResponse{Workspaces: out}, nil
}

// UpdateWorkspace renames the workspace or changes its description. Requires workspace.edit.
func (s *Server) UpdateWorkspace(ctx context.Context, req *workspacev1.UpdateWorkspaceRequest) (*workspacev1.UpdateWorkspaceResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)), authz.ModeAll, authz.EditWorkspace)
	if err != nil {
		return nil, err
	}
	w, err := s.load(ctx, grant.WorkspaceID)
	if err != nil {
		return nil, err
	}
	w.Name = req.Name
	w.Description = strings.TrimSpace(req.Description)
	w.UpdatedAt = time.Now().UTC()
	if err := w.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.repo.UpdateWorkspace(ctx, w); err != nil {
		return nil, status.Error(codes.Internal, "failed to update workspace")
	}
	return &workspacev1.UpdateWorkspaceResponse{Workspace: workspaceToProto(w, grant.Role)}, nil
}

// UpdateWorkspaceSettings replaces the settings map. Requires workspace.manage_settings.
func (s *Server) UpdateWorkspaceSettings(ctx context.Context, req *workspacev1.UpdateWorkspaceSettingsRequest) (*workspacev1.UpdateWorkspaceSettingsResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)), authz.ModeAll, authz.ManageWorkspaceSettings)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateSettings(req.Settings); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.repo.UpdateSettings(ctx, grant.WorkspaceID, req.Settings); err != nil {
		return nil, status.Error(codes.Internal, "failed to update settings")
	}
	w, err := s.load(ctx, grant.WorkspaceID)
	if err != nil {
		return nil, err
	}
	return &workspacev1.UpdateWorkspaceSettingsResponse{Workspace: workspaceToProto(w, grant.Role)}, nil
}

// DeleteWorkspace deletes the workspace with its memberships, projects and tasks. Requires workspace.delete.
func (s *Server) DeleteWorkspace(ctx context.Context, req *workspacev1.DeleteWorkspaceRequest) (*workspacev1.DeleteWorkspaceResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)), authz.ModeAll, authz.DeleteWorkspace)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteWorkspace(ctx, grant.WorkspaceID); err != nil {
		return nil, status.Error(codes.Internal, "failed to delete workspace")
	}
	return &workspacev1.DeleteWorkspaceResponse{}, nil
}

// load re-reads a workspace after authorization; a concurrent delete surfaces as access denied.
func (s *Server) load(ctx context.Context, id string) (*domain.Workspace, error) {
	w, err := s.repo.GetWorkspaceByID(ctx, id)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to load workspace")
	}
	if w == nil {
		return nil, status.Error(codes.PermissionDenied, rbac.MsgAccessDenied)
	}
	return w, nil
}

func workspaceToProto(w *domain.Workspace, role membershipdomain.Role) *workspacev1.Workspace {
	if w == nil {
		return nil
	}
	return &workspacev1.Workspace{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Settings:    w.Settings,
		CreatedBy:   w.CreatedBy,
		Role:        string(role),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}
