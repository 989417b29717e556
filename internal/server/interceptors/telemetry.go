package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"workspace-tracker/internal/telemetry/domain"
	"workspace-tracker/internal/telemetry/producer"
)

// grpcRequestMetadata is the JSON shape stored in Event.Metadata for grpc_request events.
type grpcRequestMetadata struct {
	FullMethod string `json:"full_method"`
	StatusCode string `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// TelemetryUnary returns a unary server interceptor that emits a grpc_request event after each RPC.
// Best-effort: failures are logged and do not fail the RPC. If producer is nil, the interceptor no-ops.
// skipMethods is the set of full method names to not emit (e.g. health checks).
// When chained inside AuditUnary the event carries the workspace the handler annotated.
func TelemetryUnary(p producer.Producer, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if p == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		event := domain.NewEvent(domain.EventTypeGRPCRequest, "grpc_interceptor", grpcRequestMetadata{
			FullMethod: info.FullMethod,
			StatusCode: status.Code(err).String(),
			DurationMs: time.Since(start).Milliseconds(),
			ClientIP:   ClientIP(ctx),
		})
		event.WorkspaceID = annotatedWorkspace(ctx)
		event.UserID, _ = GetUserID(ctx)
		event.SessionID, _ = GetSessionID(ctx)
		producer.EmitAsync(p, event)
		return resp, err
	}
}

// annotatedWorkspace returns the workspace recorded via AnnotateAudit, or "".
func annotatedWorkspace(ctx context.Context) string {
	sc, ok := ctx.Value(auditScopeKey{}).(*auditScope)
	if !ok {
		return ""
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.workspaceID
}
