package handler

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sessionv1 "workspace-tracker/api/session/v1"
	"workspace-tracker/internal/audit"
	"workspace-tracker/internal/platform/rbac"
	"workspace-tracker/internal/server/interceptors"
	"workspace-tracker/internal/session/domain"
	sessionrepo "workspace-tracker/internal/session/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Server implements SessionService: a user manages their own sign-ins.
type Server struct {
	sessionRepo sessionrepo.Repository
	auditLogger audit.AuditLogger
	now         func() time.Time
}

// NewServer returns a new Session gRPC server. If sessionRepo is nil, all RPCs return Unimplemented.
// auditLogger may be nil.
func NewServer(sessionRepo sessionrepo.Repository, auditLogger audit.AuditLogger) *Server {
	return &Server{sessionRepo: sessionRepo, auditLogger: auditLogger, now: time.Now}
}

// ListSessions returns a page of the caller's live sessions.
func (s *Server) ListSessions(ctx context.Context, req *sessionv1.ListSessionsRequest) (*sessionv1.ListSessionsResponse, error) {
	if s.sessionRepo == nil {
		return nil, status.Error(codes.Unimplemented, "method ListSessions not implemented")
	}
	userID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	list, err := s.sessionRepo.ListActiveByUser(ctx, userID, s.now().UTC(), limit+1, offset)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list sessions")
	}
	resp := &sessionv1.ListSessionsResponse{}
	if int32(len(list)) > limit {
		list = list[:limit]
		resp.NextOffset = offset + limit
	}
	current, _ := interceptors.GetSessionID(ctx)
	resp.Sessions = make([]*sessionv1.Session, 0, len(list))
	for _, ses := range list {
		resp.Sessions = append(resp.Sessions, sessionToProto(ses, current))
	}
	return resp, nil
}

// RevokeSession signs out one of the caller's sessions. Sessions of other users are reported as
// access denied, the same as unknown ids.
func (s *Server) RevokeSession(ctx context.Context, req *sessionv1.RevokeSessionRequest) (*sessionv1.RevokeSessionResponse, error) {
	if s.sessionRepo == nil {
		return nil, status.Error(codes.Unimplemented, "method RevokeSession not implemented")
	}
	userID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id required")
	}
	ses, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to get session")
	}
	if ses == nil || ses.UserID != userID {
		return nil, status.Error(codes.PermissionDenied, rbac.MsgAccessDenied)
	}
	if err := s.sessionRepo.Revoke(ctx, sessionID); err != nil {
		return nil, status.Error(codes.Internal, "failed to revoke session")
	}
	s.logEvent(ctx, userID, sessionID)
	return &sessionv1.RevokeSessionResponse{}, nil
}

// RevokeAllSessions signs the caller out everywhere, optionally keeping the calling session.
func (s *Server) RevokeAllSessions(ctx context.Context, req *sessionv1.RevokeAllSessionsRequest) (*sessionv1.RevokeAllSessionsResponse, error) {
	if s.sessionRepo == nil {
		return nil, status.Error(codes.Unimplemented, "method RevokeAllSessions not implemented")
	}
	userID, err := rbac.RequireActor(ctx)
	if err != nil {
		return nil, err
	}
	current, _ := interceptors.GetSessionID(ctx)
	if req.KeepCurrent && current != "" {
		err = s.sessionRepo.RevokeOtherSessionsByUser(ctx, userID, current)
	} else {
		err = s.sessionRepo.RevokeAllSessionsByUser(ctx, userID)
	}
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to revoke sessions")
	}
	s.logEvent(ctx, userID, "all")
	return &sessionv1.RevokeAllSessionsResponse{}, nil
}

func (s *Server) logEvent(ctx context.Context, userID, target string) {
	if s.auditLogger != nil {
		s.auditLogger.LogEvent(ctx, audit.SentinelWorkspaceID, userID, "revoke", "session", target)
	}
}

func sessionToProto(s *domain.Session, current string) *sessionv1.Session {
	return &sessionv1.Session{
		ID:         s.ID,
		IPAddress:  s.IPAddress,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
		LastSeenAt: s.LastSeenAt,
		Current:    current != "" && s.ID == current,
	}
}
