package userv1

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"workspace-tracker/internal/server/rpc"
)

const ServiceName = "tracker.user.v1.UserService"

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

type GetMeRequest struct{}

type GetUserRequest struct {
	UserID string `json:"userId"`
}

type GetUserByEmailRequest struct {
	Email string `json:"email"`
}

type UserResponse struct {
	User *User `json:"user"`
}

// UserServiceServer is the server API for UserService.
type UserServiceServer interface {
	GetMe(context.Context, *GetMeRequest) (*UserResponse, error)
	GetUser(context.Context, *GetUserRequest) (*UserResponse, error)
	GetUserByEmail(context.Context, *GetUserByEmailRequest) (*UserResponse, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*UserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		rpc.Unary(ServiceName, "GetMe", UserServiceServer.GetMe),
		rpc.Unary(ServiceName, "GetUser", UserServiceServer.GetUser),
		rpc.Unary(ServiceName, "GetUserByEmail", UserServiceServer.GetUserByEmail),
	},
	Metadata: "user/v1",
}

func RegisterUserServiceServer(s grpc.ServiceRegistrar, srv UserServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
