package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	auditv1 "workspace-tracker/api/audit/v1"
	"workspace-tracker/internal/audit/domain"
	auditrepo "workspace-tracker/internal/audit/repository"
	"workspace-tracker/internal/authz"
	"workspace-tracker/internal/platform/rbac"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Server implements AuditService for audit logs.
type Server struct {
	repo  auditrepo.Repository
	guard *authz.Guard
}

// NewServer returns a new Audit gRPC server. If repo or guard is nil, ListAuditLogs returns Unimplemented.
func NewServer(repo auditrepo.Repository, guard *authz.Guard) *Server {
	return &Server{repo: repo, guard: guard}
}

// ListAuditLogs returns a page of the workspace's audit log, newest first. Requires workspace.manage_settings.
func (s *Server) ListAuditLogs(ctx context.Context, req *auditv1.ListAuditLogsRequest) (*auditv1.ListAuditLogsResponse, error) {
	if s.repo == nil || s.guard == nil {
		return nil, status.Error(codes.Unimplemented, "method ListAuditLogs not implemented")
	}
	grant, err := rbac.Authorize(ctx, s.guard, authz.WorkspaceTarget(strings.TrimSpace(req.WorkspaceID)), authz.ModeAll, authz.ManageWorkspaceSettings)
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
	filter := domain.Filter{
		UserID:   strings.TrimSpace(req.UserID),
		Action:   strings.TrimSpace(req.Action),
		Resource: strings.TrimSpace(req.Resource),
	}
	// Fetch one extra row to know whether another page exists.
	list, err := s.repo.ListByWorkspace(ctx, grant.WorkspaceID, filter, limit+1, offset)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list audit logs")
	}
	resp := &auditv1.ListAuditLogsResponse{}
	if int32(len(list)) > limit {
		list = list[:limit]
		resp.NextOffset = offset + limit
	}
	resp.Logs = make([]*auditv1.AuditLog, 0, len(list))
	for _, a := range list {
		resp.Logs = append(resp.Logs, auditLogToProto(a))
	}
	return resp, nil
}

func auditLogToProto(a *domain.AuditLog) *auditv1.AuditLog {
	if a == nil {
		return nil
	}
	return &auditv1.AuditLog{
		ID:          a.ID,
		WorkspaceID: a.WorkspaceID,
		UserID:      a.UserID,
		Action:      a.Action,
		Resource:    a.Resource,
		Target:      a.Target,
		Outcome:     a.Outcome,
		IP:          a.IP,
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
	}
}
