package projectv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"workspace-tracker/internal/server/rpc"
)

const ServiceName = "tracker.project.v1.ProjectService"

type Project struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateProjectRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreateProjectResponse struct {
	Project *Project `json:"project"`
}

type GetProjectRequest struct {
	ProjectID string `json:"projectId"`
}

type GetProjectResponse struct {
	Project *Project `json:"project"`
}

type ListProjectsRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

type ListProjectsResponse struct {
	Projects []*Project `json:"projects"`
}

type UpdateProjectRequest struct {
	ProjectID   string `json:"projectId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UpdateProjectResponse struct {
	Project *Project `json:"project"`
}

type DeleteProjectRequest struct {
	ProjectID string `json:"projectId"`
}

type DeleteProjectResponse struct{}

// ProjectServiceServer is the server API for ProjectService.
type ProjectServiceServer interface {
	CreateProject(context.Context, *CreateProjectRequest) (*CreateProjectResponse, error)
	GetProject(context.Context, *GetProjectRequest) (*GetProjectResponse, error)
	ListProjects(context.Context, *ListProjectsRequest) (*ListProjectsResponse, error)
	UpdateProject(context.Context, *UpdateProjectRequest) (*UpdateProjectResponse, error)
	DeleteProject(context.Context, *DeleteProjectRequest) (*DeleteProjectResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProjectServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "CreateProject", ProjectServiceServer.CreateProject),
		rpc.Unary(ServiceName, "GetProject", ProjectServiceServer.GetProject),
		rpc.Unary(ServiceName, "ListProjects", ProjectServiceServer.ListProjects),
		rpc.Unary(ServiceName, "UpdateProject", ProjectServiceServer.UpdateProject),
		rpc.Unary(ServiceName, "DeleteProject", ProjectServiceServer.DeleteProject),
	},
	Metadata: "project/v1",
}

func RegisterProjectServiceServer(s grpc.ServiceRegistrar, srv ProjectServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
