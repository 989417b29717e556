package workspacev1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"workspace-tracker/internal/server/rpc"
)

const ServiceName = "tracker.workspace.v1.WorkspaceService"

type Workspace struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Settings    map[string]string `json:"settings,omitempty"`
	CreatedBy   string            `json:"createdBy,omitempty"`
	// Role is the caller's role in the workspace.
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreateWorkspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type CreateWorkspaceResponse struct {
	Workspace *Workspace `json:"workspace"`
}

type GetWorkspaceRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

type GetWorkspaceResponse struct {
	Workspace *Workspace `json:"workspace"`
}

type ListWorkspacesRequest struct{}

type ListWorkspacesResponse struct {
	Workspaces []*Workspace `json:"workspaces"`
}

type UpdateWorkspaceRequest struct {
	WorkspaceID string `json:"workspaceId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type UpdateWorkspaceResponse struct {
	Workspace *Workspace `json:"workspace"`
}

type UpdateWorkspaceSettingsRequest struct {
	WorkspaceID string            `json:"workspaceId"`
	Settings    map[string]string `json:"settings"`
}

type UpdateWorkspaceSettingsResponse struct {
	Workspace *Workspace `json:"workspace"`
}

type DeleteWorkspaceRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

type DeleteWorkspaceResponse struct{}

// WorkspaceServiceServer is the server API for WorkspaceService.
type WorkspaceServiceServer interface {
	CreateWorkspace(context.Context, *CreateWorkspaceRequest) (*CreateWorkspaceResponse, error)
	GetWorkspace(context.Context, *GetWorkspaceRequest) (*GetWorkspaceResponse, error)
	ListWorkspaces(context.Context, *ListWorkspacesRequest) (*ListWorkspacesResponse, error)
	UpdateWorkspace(context.Context, *UpdateWorkspaceRequest) (*UpdateWorkspaceResponse, error)
	UpdateWorkspaceSettings(context.Context, *UpdateWorkspaceSettingsRequest) (*UpdateWorkspaceSettingsResponse, error)
	DeleteWorkspace(context.Context, *DeleteWorkspaceRequest) (*DeleteWorkspaceResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkspaceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "CreateWorkspace", WorkspaceServiceServer.CreateWorkspace),
		rpc.Unary(ServiceName, "GetWorkspace", WorkspaceServiceServer.GetWorkspace),
		rpc.Unary(ServiceName, "ListWorkspaces", WorkspaceServiceServer.ListWorkspaces),
		rpc.Unary(ServiceName, "UpdateWorkspace", WorkspaceServiceServer.UpdateWorkspace),
		rpc.Unary(ServiceName, "UpdateWorkspaceSettings", WorkspaceServiceServer.UpdateWorkspaceSettings),
		rpc.Unary(ServiceName, "DeleteWorkspace", WorkspaceServiceServer.DeleteWorkspace),
	},
	Metadata: "workspace/v1",
}

func RegisterWorkspaceServiceServer(s grpc.ServiceRegistrar, srv WorkspaceServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
