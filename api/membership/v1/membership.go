package membershipv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"workspace-tracker/internal/server/rpc"
)

const ServiceName = "tracker.membership.v1.MembershipService"

type Member struct {
	UserID      string    `json:"userId"`
	WorkspaceID string    `json:"workspaceId"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type AddMemberRequest struct {
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
	// Role defaults to member.
	Role string `json:"role,omitempty"`
}

type AddMemberResponse struct {
	Member *Member `json:"member"`
}

type RemoveMemberRequest struct {
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
}

type RemoveMemberResponse struct{}

type UpdateRoleRequest struct {
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
	Role        string `json:"role"`
}

type UpdateRoleResponse struct {
	Member *Member `json:"member"`
}

type ListMembersRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type LeaveWorkspaceRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

type LeaveWorkspaceResponse struct{}

// MembershipServiceServer is the server API for MembershipService.
type MembershipServiceServer interface {
	AddMember(context.Context, *AddMemberRequest) (*AddMemberResponse, error)
	RemoveMember(context.Context, *RemoveMemberRequest) (*RemoveMemberResponse, error)
	UpdateRole(context.Context, *UpdateRoleRequest) (*UpdateRoleResponse, error)
	ListMembers(context.Context, *ListMembersRequest) (*ListMembersResponse, error)
	LeaveWorkspace(context.Context, *LeaveWorkspaceRequest) (*LeaveWorkspaceResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MembershipServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "AddMember", MembershipServiceServer.AddMember),
		rpc.Unary(ServiceName, "RemoveMember", MembershipServiceServer.RemoveMember),
		rpc.Unary(ServiceName, "UpdateRole", MembershipServiceServer.UpdateRole),
		rpc.Unary(ServiceName, "ListMembers", MembershipServiceServer.ListMembers),
		rpc.Unary(ServiceName, "LeaveWorkspace", MembershipServiceServer.LeaveWorkspace),
	},
	Metadata: "membership/v1",
}

func RegisterMembershipServiceServer(s grpc.ServiceRegistrar, srv MembershipServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
