package server

import (
	"context"

	"google.golang.org/grpc"

	auditv1 "workspace-tracker/api/audit/v1"
	authv1 "workspace-tracker/api/auth/v1"
	membershipv1 "workspace-tracker/api/membership/v1"
	projectv1 "workspace-tracker/api/project/v1"
	sessionv1 "workspace-tracker/api/session/v1"
	taskv1 "workspace-tracker/api/task/v1"
	userv1 "workspace-tracker/api/user/v1"
	workspacev1 "workspace-tracker/api/workspace/v1"

	"workspace-tracker/internal/audit"
	audithandler "workspace-tracker/internal/audit/handler"
	auditrepo "workspace-tracker/internal/audit/repository"
	"workspace-tracker/internal/authz"
	healthhandler "workspace-tracker/internal/health/handler"
	identityhandler "workspace-tracker/internal/identity/handler"
	identityservice "workspace-tracker/internal/identity/service"
	membershiphandler "workspace-tracker/internal/membership/handler"
	membershiprepo "workspace-tracker/internal/membership/repository"
	projecthandler "workspace-tracker/internal/project/handler"
	projectrepo "workspace-tracker/internal/project/repository"
	sessionhandler "workspace-tracker/internal/session/handler"
	sessionrepo "workspace-tracker/internal/session/repository"
	taskhandler "workspace-tracker/internal/task/handler"
	taskrepo "workspace-tracker/internal/task/repository"
	userhandler "workspace-tracker/internal/user/handler"
	userrepo "workspace-tracker/internal/user/repository"
	workspacehandler "workspace-tracker/internal/workspace/handler"
	workspacerepo "workspace-tracker/internal/workspace/repository"
)

// Deps holds optional service dependencies for gRPC handlers. A service whose repository or guard
// is nil answers every RPC with Unimplemented.
type Deps struct {
	// Auth is the auth service for Register/Login/Refresh/Logout.
	Auth *identityservice.AuthService
	// Guard authorizes every workspace-scoped RPC.
	Guard *authz.Guard

	Users       userrepo.Repository
	Workspaces  workspacerepo.Repository
	Memberships membershiprepo.Repository
	Projects    projectrepo.Repository
	Tasks       taskrepo.Repository
	// AuditRepo backs ListAuditLogs. If nil, ListAuditLogs returns Unimplemented.
	AuditRepo auditrepo.Repository

	// Sessions backs SessionService. If nil, its RPCs return Unimplemented.
	Sessions sessionrepo.Repository
	// AuditLogger records account events outside any workspace. May be nil.
	AuditLogger audit.AuditLogger
	// Health is the readiness-checking health server. If nil, an always-serving one is registered.
	Health *healthhandler.Server
}

// RegisterServices registers all gRPC services with the given server.
//
// Service → handler mapping:
//   - AuthService        → internal/identity/handler
//   - UserService        → internal/user/handler
//   - WorkspaceService   → internal/workspace/handler
//   - MembershipService  → internal/membership/handler
//   - ProjectService     → internal/project/handler
//   - TaskService        → internal/task/handler
//   - AuditService       → internal/audit/handler
//   - SessionService     → internal/session/handler
//   - grpc.health.v1     → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	authv1.RegisterAuthServiceServer(s, identityhandler.NewAuthServer(deps.Auth))
	userv1.RegisterUserServiceServer(s, userhandler.NewServer(deps.Users))

	workspacev1.RegisterWorkspaceServiceServer(s, workspacehandler.NewServer(deps.Workspaces, deps.Memberships, deps.Guard))
	membershipv1.RegisterMembershipServiceServer(s, membershiphandler.NewServer(deps.Memberships, deps.Users, deps.Guard))
	projectv1.RegisterProjectServiceServer(s, projecthandler.NewServer(deps.Projects, deps.Guard))
	taskv1.RegisterTaskServiceServer(s, taskhandler.NewServer(deps.Tasks, deps.Memberships, deps.Guard))
	auditv1.RegisterAuditServiceServer(s, audithandler.NewServer(deps.AuditRepo, deps.Guard))
	sessionv1.RegisterSessionServiceServer(s, sessionhandler.NewServer(deps.Sessions, deps.AuditLogger))

	health := deps.Health
	if health == nil {
		health = healthhandler.NewServer(nil, nil)
		health.Refresh(context.Background())
	}
	health.Register(s)
}
