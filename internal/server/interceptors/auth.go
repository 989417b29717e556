package interceptors

import (
	"context"
	"log"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"workspace-tracker/internal/security"
)

const bearerPrefix = "bearer "

// SessionValidator reports whether the session behind an access token is still live.
type SessionValidator func(ctx context.Context, sessionID, userID string) (bool, error)

// AuthUnary returns a unary server interceptor that validates the Bearer access token from gRPC
// metadata and sets user_id and session_id in context. publicMethods is the set of full method
// names that do not require a token (Register, Login, Refresh, health). When sessions is non-nil,
// tokens whose session was revoked are rejected.
func AuthUnary(tokens *security.TokenProvider, publicMethods map[string]bool, sessions SessionValidator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		public := publicMethods[info.FullMethod]
		token := extractBearer(ctx)
		if token == "" {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}

		sub, err := tokens.ValidateAccess(token)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, status.Error(codes.Unauthenticated, "missing or invalid authorization")
		}
		if sessions != nil {
			ok, err := sessions(ctx, sub.SessionID, sub.UserID)
			if err != nil {
				log.Printf("auth: session lookup %s: %v", sub.SessionID, err)
			}
			if err != nil || !ok {
				if public {
					return handler(ctx, req)
				}
				return nil, status.Error(codes.Unauthenticated, "session expired or revoked")
			}
		}

		ctx = WithIdentity(ctx, sub.UserID, sub.SessionID)
		return handler(ctx, req)
	}
}

// extractBearer returns the Bearer token from ctx metadata, or "" if missing or malformed.
func extractBearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	v := strings.TrimSpace(vals[0])
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
