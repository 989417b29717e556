package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	userv1 "workspace-tracker/api/user/v1"
	"workspace-tracker/internal/platform/rbac"
	"workspace-tracker/internal/user/domain"
	userrepo "workspace-tracker/internal/user/repository"
)

// Server implements UserService. Callers use it to resolve user ids before adding members.
type Server struct {
	userRepo userrepo.Repository
}

// NewServer returns a new User gRPC server. userRepo may be nil; then all RPCs return Unimplemented.
func NewServer(userRepo userrepo.Repository) *Server {
	return &Server{userRepo: userRepo}
}

// GetMe returns the authenticated caller.
func (s *Server) GetMe(ctx context.Context, req *userv1.GetMeRequest) (*userv1.UserResponse, error) {
	if s.userRepo == nil {
		return nil, status.Error(codes.Unimplemented, "method GetMe not implemented")
	}
	userID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.lookup(s.userRepo.GetByID(ctx, userID))
}

// GetUser returns a user by ID. Caller must be authenticated.
func (s *Server) GetUser(ctx context.Context, req *userv1.GetUserRequest) (*userv1.UserResponse, error) {
	if s.userRepo == nil {
		return nil, status.Error(codes.Unimplemented, "method GetUser not implemented")
	}
	if _, err := rbac.RequireActor(ctx); err != nil {
		return nil, err
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id required")
	}
	return s.lookup(s.userRepo.GetByID(ctx, userID))
}

// GetUserByEmail returns a user by email. Caller must be authenticated.
func (s *Server) GetUserByEmail(ctx context.Context, req *userv1.GetUserByEmailRequest) (*userv1.UserResponse, error) {
	if s.userRepo == nil {
		return nil, status.Error(codes.Unimplemented, "method GetUserByEmail not implemented")
	}
	if _, err := rbac.RequireActor(ctx); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, status.Error(codes.InvalidArgument, "valid email required")
	}
	return s.lookup(s.userRepo.GetByEmail(ctx, email))
}

func (s *Server) lookup(u *domain.User, err error) (*userv1.UserResponse, error) {
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to look up user")
	}
	if u == nil {
		return nil, status.Error(codes.NotFound, "user not found")
	}
	return &userv1.UserResponse{User: domainUserToProto(u)}, nil
}

func domainUserToProto(u *domain.User) *userv1.User {
	if u == nil {
		return nil
	}
	return &userv1.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt,
	}
}
