package repository

import (
	"context"

	"workspace-tracker/internal/task/domain"
)

// Repository defines persistence for tasks.
type Repository interface {
	GetTaskByID(ctx context.Context, id string) (*domain.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	CreateTask(ctx context.Context, t *domain.Task) error
	UpdateTask(ctx context.Context, t *domain.Task) error
	// SetAssignee sets or clears (empty assigneeID) the task's assignee.
	SetAssignee(ctx context.Context, id, assigneeID string) error
	DeleteTask(ctx context.Context, id string) error
}
