package taskv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"workspace-tracker/internal/server/rpc"
)

const ServiceName = "tracker.task.v1.TaskService"

type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	AssigneeID  string    `json:"assigneeId,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateTaskRequest struct {
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	// AssigneeID, when set, additionally requires task.assign.
	AssigneeID string `json:"assigneeId,omitempty"`
}

type CreateTaskResponse struct {
	Task *Task `json:"task"`
}

type GetTaskRequest struct {
	TaskID string `json:"taskId"`
}

type GetTaskResponse struct {
	Task *Task `json:"task"`
}

type ListTasksRequest struct {
	ProjectID string `json:"projectId"`
}

type ListTasksResponse struct {
	Tasks []*Task `json:"tasks"`
}

type UpdateTaskRequest struct {
	TaskID      string `json:"taskId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
}

type UpdateTaskResponse struct {
	Task *Task `json:"task"`
}

type AssignTaskRequest struct {
	TaskID string `json:"taskId"`
	// AssigneeID empty clears the assignment.
	AssigneeID string `json:"assigneeId,omitempty"`
}

type AssignTaskResponse struct {
	Task *Task `json:"task"`
}

type DeleteTaskRequest struct {
	TaskID string `json:"taskId"`
}

type DeleteTaskResponse struct{}

// TaskServiceServer is the server API for TaskService.
type TaskServiceServer interface {
	CreateTask(context.Context, *CreateTaskRequest) (*CreateTaskResponse, error)
	GetTask(context.Context, *GetTaskRequest) (*GetTaskResponse, error)
	ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error)
	UpdateTask(context.Context, *UpdateTaskRequest) (*UpdateTaskResponse, error)
	AssignTask(context.Context, *AssignTaskRequest) (*AssignTaskResponse, error)
	DeleteTask(context.Context, *DeleteTaskRequest) (*DeleteTaskResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "CreateTask", TaskServiceServer.CreateTask),
		rpc.Unary(ServiceName, "GetTask", TaskServiceServer.GetTask),
		rpc.Unary(ServiceName, "ListTasks", TaskServiceServer.ListTasks),
		rpc.Unary(ServiceName, "UpdateTask", TaskServiceServer.UpdateTask),
		rpc.Unary(ServiceName, "AssignTask", TaskServiceServer.AssignTask),
		rpc.Unary(ServiceName, "DeleteTask", TaskServiceServer.DeleteTask),
	},
	Metadata: "task/v1",
}

func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
