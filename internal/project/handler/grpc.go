package handler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	projectv1 "workspace-tracker/api/project/v1"
	"workspace-tracker/internal/authz"
	"workspace-tracker/internal/platform/rbac"
	"workspace-tracker/internal/project/domain"
	"workspace-tracker/internal/project/repository"
	"workspace-tracker/internal/server/interceptors"
)

// Server implements ProjectService.
type Server struct {
	repo  repository.Repository
	guard *authz.Guard
}

// NewServer returns a new Project gRPC server. If repo or guard is nil, all RPCs return Unimplemented.
func NewServer(repo repository.Repository, guard *authz.Guard) *Server {
	return &Server{repo: repo, guard: guard}
}

func (s *Server) ready() error {
	if s.repo == nil || s.guard == nil {
		return status.Error(codes.Unimplemented, "project service not configured")
	}
	return nil
}

// CreateProject creates a project in the workspace. Requires project.create.
func (s *Server) CreateProject(ctx context.Context, req *projectv1.CreateProjectRequest) (*projectv1.CreateProjectResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)), authz.ModeAll, authz.CreateProject)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p := &domain.Project{
		ID:          uuid.New().String(),
		WorkspaceID: grant.WorkspaceID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   grant.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, status.Error(codes.Internal, "failed to create project")
	}
	interceptors.AnnotateAudit(ctx, grant.WorkspaceID, authz.ProjectTarget(p.ID).String())
	return &projectv1.CreateProjectResponse{Project: projectToProto(p)}, nil
}

// GetProject returns a project. Any member of its workspace may read it.
func (s *Server) GetProject(ctx context.Context, req *projectv1.GetProjectRequest) (*projectv1.GetProjectResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.RequireMember(ctx, s.guard, authz.ProjectTarget(strings.TrimSpace(req.ProjectID)))
	if err != nil {
		return nil, err
	}
	p, err := s.load(ctx, grant.Target.ID)
	if err != nil {
		return nil, err
	}
	return &projectv1.GetProjectResponse{Project: projectToProto(p)}, nil
}

// ListProjects returns the workspace's projects. Any member may list.
func (s *Server) ListProjects(ctx context.Context, req *projectv1.ListProjectsRequest) (*projectv1.ListProjectsResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.RequireMember(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)))
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListProjectsByWorkspace(ctx, grant.WorkspaceID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list projects")
	}
	out := make([]*projectv1.Project, 0, len(list))
	for _, p := range list {
		out = append(out, projectToProto(p))
	}
	return &projectv1.ListProjectsResponse{Projects: out}, nil
}

// UpdateProject changes name and description. Requires project.edit in the project's workspace.
func (s *Server) UpdateProject(ctx context.Context, req *projectv1.UpdateProjectRequest) (*projectv1.UpdateProjectResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.ProjectTarget(strings.TrimSpace(req.ProjectID)), authz.ModeAll, authz.EditProject)
	if err != nil {
		return nil, err
	}
	p, err := s.load(ctx, grant.Target.ID)
	if err != nil {
		return nil, err
	}
	p.Name = req.Name
	p.Description = strings.TrimSpace(req.Description)
	p.UpdatedAt = time.Now().UTC()
	if err := p.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return nil, status.Error(codes.Internal, "failed to update project")
	}
	return &projectv1.UpdateProjectResponse{Project: projectToProto(p)}, nil
}

// DeleteProject deletes the project and its tasks. Requires project.delete.
func (s *Server) DeleteProject(ctx context.Context, req *projectv1.DeleteProjectRequest) (*projectv1.DeleteProjectResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.ProjectTarget(strings.TrimSpace(req.ProjectID)), authz.ModeAll, authz.DeleteProject)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteProject(ctx, grant.Target.ID); err != nil {
		return nil, status.Error(codes.Internal, "failed to delete project")
	}
	return &projectv1.DeleteProjectResponse{}, nil
}

func (s *Server) load(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.repo.GetProjectByID(ctx, id)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to load project")
	}
	if p == nil {
		return nil, status.Error(codes.PermissionDenied, rbac.MsgAccessDenied)
	}
	return p, nil
}

func projectToProto(p *domain.Project) *projectv1.Project {
	if p == nil {
		return nil
	}
	return &projectv1.Project{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Name:        p.Name,
		Description: p.Description,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
