package audit

import (
	"context"
	"errors"
	"testing"

	"workspace-tracker/internal/audit/domain"
)

// mockAuditRepo implements the audit repository for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByWorkspace(ctx context.Context, workspaceID string, filter domain.Filter, limit, offset int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func TestLogger_LogEvent(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, func(ctx context.Context) string { return "192.168.1.1" })

	logger.LogEvent(context.Background(), "ws-1", "user-1", "login_success", "auth", `{"k":"v"}`)

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.WorkspaceID != "ws-1" || e.UserID != "user-1" || e.Action != "login_success" || e.Resource != "auth" {
		t.Errorf("entry = %+v", e)
	}
	if e.IP != "192.168.1.1" || e.ID == "" || e.CreatedAt.IsZero() {
		t.Errorf("entry = %+v", e)
	}
}

func TestLogger_LogEvent_Defaults(t *testing.T) {
	repo := &mockAuditRepo{}
	NewLogger(repo, nil).LogEvent(context.Background(), "", "", "login_failure", "auth", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].WorkspaceID != SentinelWorkspaceID {
		t.Errorf("workspace_id = %q, want %q", repo.entries[0].WorkspaceID, SentinelWorkspaceID)
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want unknown", repo.entries[0].IP)
	}
}

func TestLogger_LogEvent_BestEffort(t *testing.T) {
	repo := &mockAuditRepo{createErr: errors.New("db down")}
	NewLogger(repo, nil).LogEvent(context.Background(), "ws-1", "user-1", "a", "r", "")

	var nilLogger *Logger
	nilLogger.LogEvent(context.Background(), "ws-1", "user-1", "a", "r", "")
	NewLogger(nil, nil).LogEvent(context.Background(), "ws-1", "user-1", "a", "r", "")
}
