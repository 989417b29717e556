package handler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	taskv1 "workspace-tracker/api/task/v1"
	"workspace-tracker/internal/authz"
	membershipdomain "workspace-tracker/internal/membership/domain"
	"workspace-tracker/internal/platform/rbac"
	"workspace-tracker/internal/server/interceptors"
	"workspace-tracker/internal/task/domain"
	"workspace-tracker/internal/task/repository"
)

// MembershipGetter checks that an assignee belongs to the task's workspace.
type MembershipGetter interface {
	GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*membershipdomain.Membership, error)
}

// Server implements TaskService.
type Server struct {
	repo        repository.Repository
	memberships MembershipGetter
	guard       *authz.Guard
}

// NewServer returns a new Task gRPC server. If repo, memberships or guard is nil, all RPCs return Unimplemented.
func NewServer(repo repository.Repository, memberships MembershipGetter, guard *authz.Guard) *Server {
	return &Server{repo: repo, memberships: memberships, guard: guard}
}

func (s *Server) ready() error {
	if s.repo == nil || s.memberships == nil || s.guard == nil {
		return status.Error(codes.Unimplemented, "task service not configured")
	}
	return nil
}

// CreateTask creates a task in the project. Requires task.create, plus task.assign when an assignee is given.
func (s *Server) CreateTask(ctx context.Context, req *taskv1.CreateTaskRequest) (*taskv1.CreateTaskResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	taskStatus, err := domain.ParseStatus(req.Status)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	assignee := strings.TrimSpace(req.AssigneeID)
	required := []authz.Permission{authz.CreateTask}
	if assignee != "" {
		required = append(required, authz.AssignTask)
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.ProjectTarget(strings.TrimSpace(req.ProjectID)), authz.ModeAll, required...)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, grant, assignee); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := &domain.Task{
		ID:          uuid.New().String(),
		ProjectID:   grant.Target.ID,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Status:      taskStatus,
		AssigneeID:  assignee,
		CreatedBy:   grant.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, status.Error(codes.Internal, "failed to create task")
	}
	interceptors.AnnotateAudit(ctx, grant.WorkspaceID, authz.TaskTarget(t.ID).String())
	return &taskv1.CreateTaskResponse{Task: taskToProto(t)}, nil
}

// GetTask returns a task. Any member of its root workspace may read it.
func (s *Server) GetTask(ctx context.Context, req *taskv1.GetTaskRequest) (*taskv1.GetTaskResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.RequireMember(ctx, s.guard, authz.TaskTarget(strings.TrimSpace(req.TaskID)))
	if err != nil {
		return nil, err
	}
	t, err := s.load(ctx, grant.Target.ID)
	if err != nil {
		return nil, err
	}
	return &taskv1.GetTaskResponse{Task: taskToProto(t)}, nil
}

// ListTasks returns the project's tasks. Any member may list.
func (s *Server) ListTasks(ctx context.Context, req *taskv1.ListTasksRequest) (*taskv1.ListTasksResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.RequireMember(ctx, s.guard, authz.ProjectTarget(strings.TrimSpace(req.ProjectID)))
	if err != nil {
		return nil, err
	}
	list, err := s.repo.ListTasksByProject(ctx, grant.Target.ID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list tasks")
	}
	out := make([]*taskv1.Task, 0, len(list))
	for _, t := range list {
		out = append(out, taskToProto(t))
	}
	return &taskv1.ListTasksResponse{Tasks: out}, nil
}

// UpdateTask changes title, description and status. Requires task.edit.
func (s *Server) UpdateTask(ctx context.Context, req *taskv1.UpdateTaskRequest) (*taskv1.UpdateTaskResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.TaskTarget(strings.TrimSpace(req.TaskID)), authz.ModeAll, authz.EditTask)
	if err != nil {
		return nil, err
	}
	t, err := s.load(ctx, grant.Target.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Status) != "" {
		st, err := domain.ParseStatus(req.Status)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		t.Status = st
	}
	t.Title = req.Title
	t.Description = strings.TrimSpace(req.Description)
	t.UpdatedAt = time.Now().UTC()
	if err := t.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.repo.UpdateTask(ctx, t); err != nil {
		return nil, status.Error(codes.Internal, "failed to update task")
	}
	return &taskv1.UpdateTaskResponse{Task: taskToProto(t)}, nil
}

// AssignTask sets or clears the assignee. Requires task.assign; the assignee must be a member of
// the task's workspace.
func (s *Server) AssignTask(ctx context.Context, req *taskv1.AssignTaskRequest) (*taskv1.AssignTaskResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.TaskTarget(strings.TrimSpace(req.TaskID)), authz.ModeAll, authz.AssignTask)
	if err != nil {
		return nil, err
	}
	assignee := strings.TrimSpace(req.AssigneeID)
	if err := s.checkAssignee(ctx, grant, assignee); err != nil {
		return nil, err
	}
	if err := s.repo.SetAssignee(ctx, grant.Target.ID, assignee); err != nil {
		return nil, status.Error(codes.Internal, "failed to assign task")
	}
	t, err := s.load(ctx, grant.Target.ID)
	if err != nil {
		return nil, err
	}
	return &taskv1.AssignTaskResponse{Task: taskToProto(t)}, nil
}

// DeleteTask deletes the task. Requires task.delete.
func (s *Server) DeleteTask(ctx context.Context, req *taskv1.DeleteTaskRequest) (*taskv1.DeleteTaskResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.TaskTarget(strings.TrimSpace(req.TaskID)), authz.ModeAll, authz.DeleteTask)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteTask(ctx, grant.Target.ID); err != nil {
		return nil, status.Error(codes.Internal, "failed to delete task")
	}
	return &taskv1.DeleteTaskResponse{}, nil
}

func (s *Server) checkAssignee(ctx context.Context, grant *authz.Grant, assigneeID string) error {
	if assigneeID == "" {
		return nil
	}
	m, err := s.memberships.GetMembershipByUserAndWorkspace(ctx, assigneeID, grant.WorkspaceID)
	if err != nil {
		return status.Error(codes.Internal, "failed to look up assignee")
	}
	if m == nil {
		return status.Error(codes.InvalidArgument, "assignee must be a member of the workspace")
	}
	return nil
}

func (s *Server) load(ctx context.Context, id string) (*domain.Task, error) {
	t, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to load task")
	}
	if t == nil {
		return nil, status.Error(codes.PermissionDenied, rbac.MsgAccessDenied)
	}
	return t, nil
}

func taskToProto(t *domain.Task) *taskv1.Task {
	if t == nil {
		return nil
	}
	return &taskv1.Task{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		AssigneeID:  t.AssigneeID,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
