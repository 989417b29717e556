package interceptors

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"workspace-tracker/internal/security"
)

func bearerContext(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
		"authorization": "Bearer " + token,
	}))
}

func echoIdentity(ctx context.Context, req interface{}) (interface{}, error) {
	userID, _ := GetUserID(ctx)
	return userID, nil
}

func TestAuthUnary(t *testing.T) {
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	access, err := tokens.IssueAccess("session-1", "user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _ := tokens.IssueRefresh("session-1", "user-1")
	public := map[string]bool{"/tracker.auth.v1.AuthService/Login": true}

	live := func(ctx context.Context, sessionID, userID string) (bool, error) { return sessionID == "session-1", nil }
	revoked := func(ctx context.Context, sessionID, userID string) (bool, error) { return false, nil }
	broken := func(ctx context.Context, sessionID, userID string) (bool, error) { return false, errors.New("db down") }

	tests := []struct {
		name     string
		ctx      context.Context
		method   string
		sessions SessionValidator
		wantCode codes.Code
		wantUser string
	}{
		{"public without token", context.Background(), "/tracker.auth.v1.AuthService/Login", nil, codes.OK, ""},
		{"public with garbage token", bearerContext("garbage"), "/tracker.auth.v1.AuthService/Login", nil, codes.OK, ""},
		{"protected without token", context.Background(), "/tracker.task.v1.TaskService/CreateTask", nil, codes.Unauthenticated, ""},
		{"protected invalid token", bearerContext("garbage"), "/tracker.task.v1.TaskService/CreateTask", nil, codes.Unauthenticated, ""},
		{"protected refresh token", bearerContext(refresh.Value), "/tracker.task.v1.TaskService/CreateTask", nil, codes.Unauthenticated, ""},
		{"protected valid token", bearerContext(access.Value), "/tracker.task.v1.TaskService/CreateTask", nil, codes.OK, "user-1"},
		{"live session", bearerContext(access.Value), "/tracker.task.v1.TaskService/CreateTask", live, codes.OK, "user-1"},
		{"revoked session", bearerContext(access.Value), "/tracker.task.v1.TaskService/CreateTask", revoked, codes.Unauthenticated, ""},
		{"session lookup error", bearerContext(access.Value), "/tracker.task.v1.TaskService/CreateTask", broken, codes.Unauthenticated, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			interceptor := AuthUnary(tokens, public, tc.sessions)
			resp, err := interceptor(tc.ctx, "request", &grpc.UnaryServerInfo{FullMethod: tc.method}, echoIdentity)
			if status.Code(err) != tc.wantCode {
				t.Fatalf("code = %v, want %v (err %v)", status.Code(err), tc.wantCode, err)
			}
			if err == nil && resp != tc.wantUser {
				t.Errorf("user in context = %v, want %q", resp, tc.wantUser)
			}
		})
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer token123", "token123"},
		{"bearer token123", "token123"},
		{"BEARER   token123  ", "token123"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bear", ""},
	}
	for _, tc := range tests {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{"authorization": tc.header}))
		if got := extractBearer(ctx); got != tc.want {
			t.Errorf("extractBearer(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
	if got := extractBearer(context.Background()); got != "" {
		t.Errorf("extractBearer without metadata = %q", got)
	}
}
