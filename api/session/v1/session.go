package sessionv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"workspace-tracker/internal/server/rpc"
)

const ServiceName = "tracker.session.v1.SessionService"

type Session struct {
	ID         string     `json:"id"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	LastSeenAt *time.Time `json:"lastSeenAt,omitempty"`
	// Current is true for the session the request was made with.
	Current bool `json:"current,omitempty"`
}

type ListSessionsRequest struct {
	Limit  int32 `json:"limit,omitempty"`
	Offset int32 `json:"offset,omitempty"`
}

type ListSessionsResponse struct {
	Sessions   []*Session `json:"sessions"`
	NextOffset int32      `json:"nextOffset,omitempty"`
}

type RevokeSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type RevokeSessionResponse struct{}

type RevokeAllSessionsRequest struct {
	// KeepCurrent leaves the calling session signed in.
	KeepCurrent bool `json:"keepCurrent,omitempty"`
}

type RevokeAllSessionsResponse struct{}

// SessionServiceServer is the server API for SessionService.
type SessionServiceServer interface {
	ListSessions(context.Context, *ListSessionsRequest) (*ListSessionsResponse, error)
	RevokeSession(context.Context, *RevokeSessionRequest) (*RevokeSessionResponse, error)
	RevokeAllSessions(context.Context, *RevokeAllSessionsRequest) (*RevokeAllSessionsResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "ListSessions", SessionServiceServer.ListSessions),
		rpc.Unary(ServiceName, "RevokeSession", SessionServiceServer.RevokeSession),
		rpc.Unary(ServiceName, "RevokeAllSessions", SessionServiceServer.RevokeAllSessions),
	},
	Metadata: "session/v1",
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
