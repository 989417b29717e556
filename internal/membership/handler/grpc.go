package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	membershipv1 "workspace-tracker/api/membership/v1"
	"workspace-tracker/internal/authz"
	"workspace-tracker/internal/membership/domain"
	"workspace-tracker/internal/membership/repository"
	"workspace-tracker/internal/platform/rbac"
	"workspace-tracker/internal/server/interceptors"
	userdomain "workspace-tracker/internal/user/domain"
)

// UserGetter loads users so AddMember can reject unknown or disabled accounts.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Server implements MembershipService for workspace membership and roles.
type Server struct {
	repo  repository.Repository
	users UserGetter
	guard *authz.Guard
}

// NewServer returns a new Membership gRPC server. If repo or guard is nil, all RPCs return Unimplemented.
func NewServer(repo repository.Repository, users UserGetter, guard *authz.Guard) *Server {
	return &Server{repo: repo, users: users, guard: guard}
}

func (s *Server) ready() error {
	if s.repo == nil || s.guard == nil {
		return status.Error(codes.Unimplemented, "membership service not configured")
	}
	return nil
}

// AddMember adds a user to the workspace. Requires member.add; granting owner additionally requires
// an owner caller and owner transfer to be enabled.
func (s *Server) AddMember(ctx context.Context, req *membershipv1.AddMemberRequest) (*membershipv1.AddMemberResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id required")
	}
	role := domain.RoleMember
	if strings.TrimSpace(req.Role) != "" {
		r, err := domain.ParseRole(req.Role)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		role = r
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)), authz.ModeAll, authz.AddMember)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleOwner {
		if err := s.guard.CheckOwnerGrant(ctx, grant); err != nil {
			return nil, rbac.StatusError(err)
		}
	}
	if s.users != nil {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, status.Error(codes.Internal, "failed to look up user")
		}
		if !u.Active() {
			return nil, status.Error(codes.NotFound, "user not found")
		}
	}
	m := &domain.Membership{
		ID:          uuid.New().String(),
		UserID:      userID,
		WorkspaceID: grant.WorkspaceID,
		Role:        role,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateMembership(ctx, m); err != nil {
		if errors.Is(err, domain.ErrAlreadyMember) {
			return nil, status.Error(codes.AlreadyExists, err.Error())
		}
		return nil, status.Error(codes.Internal, "failed to add member")
	}
	interceptors.AnnotateAudit(ctx, grant.WorkspaceID, "user/"+userID)
	return &membershipv1.AddMemberResponse{Member: memberToProto(m)}, nil
}

// RemoveMember removes a user from the workspace. Requires member.remove; only owners remove owners
// and the only owner can never be removed.
func (s *Server) RemoveMember(ctx context.Context, req *membershipv1.RemoveMemberRequest) (*membershipv1.RemoveMemberResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)), authz.ModeAll, authz.RemoveMember)
	if err != nil {
		return nil, err
	}
	subject, err := s.subject(ctx, grant, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckRemoval(ctx, grant, subject); err != nil {
		return nil, rbac.StatusError(err)
	}
	if err := s.repo.DeleteByUserAndWorkspace(ctx, subject.UserID, grant.WorkspaceID); err != nil {
		return nil, removalError(err)
	}
	return &membershipv1.RemoveMemberResponse{}, nil
}

// UpdateRole changes a member's role. Requires member.change_role; only owners change an owner's
// role and the only owner cannot be demoted.
func (s *Server) UpdateRole(ctx context.Context, req *membershipv1.UpdateRoleRequest) (*membershipv1.UpdateRoleResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)), authz.ModeAll, authz.ChangeMemberRole)
	if err != nil {
		return nil, err
	}
	subject, err := s.subject(ctx, grant, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckRoleChange(ctx, grant, subject, role); err != nil {
		return nil, rbac.StatusError(err)
	}
	if subject.Role == role {
		return &membershipv1.UpdateRoleResponse{Member: memberToProto(subject)}, nil
	}
	updated, err := s.repo.UpdateRole(ctx, subject.UserID, grant.WorkspaceID, role)
	if err != nil {
		return nil, removalError(err)
	}
	if updated == nil {
		return nil, status.Error(codes.NotFound, "member not found")
	}
	return &membershipv1.UpdateRoleResponse{Member: memberToProto(updated)}, nil
}

// ListMembers returns the workspace's members. Any member may list.
func (s *Server) ListMembers(ctx context.Context, req *membershipv1.ListMembersRequest) (*membershipv1.ListMembersResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.RequireMember(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)))
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListMembershipsByWorkspace(ctx, grant.WorkspaceID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list members")
	}
	out := make([]*membershipv1.Member, 0, len(list))
	for _, m := range list {
		out = append(out, memberToProto(m))
	}
	return &membershipv1.ListMembersResponse{Members: out}, nil
}

// LeaveWorkspace removes the caller's own membership. The only owner cannot leave.
func (s *Server) LeaveWorkspace(ctx context.Context, req *membershipv1.LeaveWorkspaceRequest) (*membershipv1.LeaveWorkspaceResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.RequireMember(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)))
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckRemoval(ctx, grant, grant.Membership); err != nil {
		return nil, rbac.StatusError(err)
	}
	if err := s.repo.DeleteByUserAndWorkspace(ctx, grant.ActorID, grant.WorkspaceID); err != nil {
		return nil, removalError(err)
	}
	return &membershipv1.LeaveWorkspaceResponse{}, nil
}

// subject loads the membership being acted on and records it as the audit target.
func (s *Server) subject(ctx context.Context, grant *authz.Grant, userID string) (*domain.Membership, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id required")
	}
	interceptors.AnnotateAudit(ctx, grant.WorkspaceID, "user/"+userID)
	m, err := s.repo.GetMembershipByUserAndWorkspace(ctx, userID, grant.WorkspaceID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to load member")
	}
	if m == nil {
		return nil, status.Error(codes.NotFound, "member not found")
	}
	return m, nil
}

// removalError maps repository failures of conditional membership writes.
func removalError(err error) error {
	if errors.Is(err, domain.ErrLastOwner) {
		return rbac.StatusError(err)
	}
	return status.Error(codes.Internal, "failed to update membership")
}

func memberToProto(m *domain.Membership) *membershipv1.Member {
	if m == nil {
		return nil
	}
	return &membershipv1.Member{
		UserID:      m.UserID,
		WorkspaceID: m.WorkspaceID,
		Role:        string(m.Role),
		JoinedAt:    m.CreatedAt,
	}
}
