package authz

import (
	"context"
	"fmt"

	projectdomain "workspace-tracker/internal/project/domain"
	taskdomain "workspace-tracker/internal/task/domain"
)

// ResourceKind identifies what a Target points at.
type ResourceKind string

const (
	KindWorkspace ResourceKind = "workspace"
	KindProject   ResourceKind = "project"
	KindTask      ResourceKind = "task"
)

// Target is the resource an operation acts on.
type Target struct {
	Kind ResourceKind
	ID   string
}

func WorkspaceTarget(id string) Target { return Target{Kind: KindWorkspace, ID: id} }
func ProjectTarget(id string) Target   { return Target{Kind: KindProject, ID: id} }
func TaskTarget(id string) Target      { return Target{Kind: KindTask, ID: id} }

func (t Target) String() string {
	return string(t.Kind) + "/" + t.ID
}

// ProjectGetter loads a project by id; (nil, nil) means not found.
type ProjectGetter interface {
	GetProjectByID(ctx context.Context, id string) (*projectdomain.Project, error)
}

// TaskGetter loads a task by id; (nil, nil) means not found.
type TaskGetter interface {
	GetTaskByID(ctx context.Context, id string) (*taskdomain.Task, error)
}

// Chain resolves nested resources to the workspace that authorizes them:
// Task → Project → Workspace, Project → Workspace.
type Chain struct {
	projects ProjectGetter
	tasks    TaskGetter
}

// NewChain returns a Chain reading through the given repositories.
func NewChain(projects ProjectGetter, tasks TaskGetter) *Chain {
	return &Chain{projects: projects, tasks: tasks}
}

// WorkspaceOf returns the id of the workspace that owns target. A missing hop fails with
// ErrResourceNotFound; storage failures are returned wrapped and are not authorization outcomes.
func (c *Chain) WorkspaceOf(ctx context.Context, target Target) (string, error) {
	switch target.Kind {
	case KindWorkspace:
		return target.ID, nil
	case KindProject:
		return c.projectWorkspace(ctx, target.ID, target)
	case KindTask:
		if target.ID == "" {
			return "", newError(CodeResourceNotFound, ErrResourceNotFound, "", "", target)
		}
		t, err := c.tasks.GetTaskByID(ctx, target.ID)
		if err != nil {
			return "", fmt.Errorf("load task %s: %w", target.ID, err)
		}
		if t == nil {
			return "", newError(CodeResourceNotFound, ErrResourceNotFound, "", "", target)
		}
		return c.projectWorkspace(ctx, t.ProjectID, target)
	}
	return "", fmt.Errorf("authz: unknown resource kind %q", target.Kind)
}

// projectWorkspace reports a dangling project reference against the original target so the
// log line names what the caller asked for.
func (c *Chain) projectWorkspace(ctx context.Context, projectID string, target Target) (string, error) {
	if projectID == "" {
		return "", newError(CodeResourceNotFound, ErrResourceNotFound, "", "", target)
	}
	p, err := c.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("load project %s: %w", projectID, err)
	}
	if p == nil || p.WorkspaceID == "" {
		return "", newError(CodeResourceNotFound, ErrResourceNotFound, "", "", target)
	}
	return p.WorkspaceID, nil
}
