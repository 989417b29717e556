package interceptors

import (
	"context"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"workspace-tracker/internal/audit"
	"workspace-tracker/internal/audit/domain"
	auditrepo "workspace-tracker/internal/audit/repository"
)

type auditScopeKey struct{}

// auditScope is filled in by handlers once the workspace an RPC touches is known.
type auditScope struct {
	mu          sync.Mutex
	workspaceID string
	target      string
}

// AnnotateAudit records the workspace (and target) an RPC operated on so AuditUnary can attribute
// the entry. It is a no-op outside an audited call.
func AnnotateAudit(ctx context.Context, workspaceID, target string) {
	sc, ok := ctx.Value(auditScopeKey{}).(*auditScope)
	if !ok || workspaceID == "" {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.workspaceID = workspaceID
	if target != "" {
		sc.target = target
	}
}

// AuditUnary returns a unary server interceptor that records an audit log entry after each
// workspace-scoped RPC, including denied ones whose workspace was resolved. skipMethods is the set
// of full method names to never audit. Create is best-effort: failures are logged and do not fail the RPC.
func AuditUnary(auditRepo auditrepo.Repository, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if auditRepo == nil || skipMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		sc := &auditScope{}
		resp, err := handler(context.WithValue(ctx, auditScopeKey{}, sc), req)

		sc.mu.Lock()
		workspaceID, target := sc.workspaceID, sc.target
		sc.mu.Unlock()
		userID, _ := GetUserID(ctx)
		if workspaceID == "" || userID == "" {
			return resp, err
		}
		ar := audit.ParseFullMethod(info.FullMethod)
		entry := &domain.AuditLog{
			ID:          uuid.New().String(),
			WorkspaceID: workspaceID,
			UserID:      userID,
			Action:      ar.Action,
			Resource:    ar.Resource,
			Target:      target,
			Outcome:     status.Code(err).String(),
			IP:          ClientIP(ctx),
			CreatedAt:   time.Now().UTC(),
		}
		if createErr := auditRepo.Create(ctx, entry); createErr != nil {
			log.Printf("audit: failed to create audit log: %v", createErr)
		}
		return resp, err
	}
}

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get("x-forwarded-for"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				if i := strings.Index(s, ","); i > 0 {
					s = strings.TrimSpace(s[:i])
				}
				return s
			}
		}
		if vals := md.Get("x-real-ip"); len(vals) > 0 {
			if s := strings.TrimSpace(vals[0]); s != "" {
				return s
			}
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
