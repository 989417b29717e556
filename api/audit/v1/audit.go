package auditv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"workspace-tracker/internal/server/rpc"
)

const ServiceName = "tracker.audit.v1.AuditService"

type AuditLog struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	UserID      string    `json:"userId"`
	Action      string    `json:"action"`
	Resource    string    `json:"resource"`
	Target      string    `json:"target,omitempty"`
	Outcome     string    `json:"outcome"`
	IP          string    `json:"ip,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListAuditLogsRequest struct {
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId,omitempty"`
	Action      string `json:"action,omitempty"`
	Resource    string `json:"resource,omitempty"`
	Limit       int32  `json:"limit,omitempty"`
	Offset      int32  `json:"offset,omitempty"`
}

type ListAuditLogsResponse struct {
	Logs []*AuditLog `json:"logs"`
	// NextOffset is set when another page may exist.
	NextOffset int32 `json:"nextOffset,omitempty"`
}

// AuditServiceServer is the server API for AuditService.
type AuditServiceServer interface {
	ListAuditLogs(context.Context, *ListAuditLogsRequest) (*ListAuditLogsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuditServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ListAuditLogs", AuditServiceServer.ListAuditLogs),
	},
	Metadata: "audit/v1",
}

func RegisterAuditServiceServer(s grpc.ServiceRegistrar, srv AuditServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
