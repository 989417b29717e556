package repository

import (
	"context"

	"workspace-tracker/internal/project/domain"
)

// Repository defines persistence for projects.
type Repository interface {
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
	ListProjectsByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error)
	CreateProject(ctx context.Context, p *domain.Project) error
	UpdateProject(ctx context.Context, p *domain.Project) error
	// DeleteProject removes the project; its tasks cascade.
	DeleteProject(ctx context.Context, id string) error
}
