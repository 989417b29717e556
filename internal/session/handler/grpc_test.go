package handler

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	sessionv1 "workspace-tracker/api/session/v1"
	"workspace-tracker/internal/server/interceptors"
	sessiondomain "workspace-tracker/internal/session/domain"
)

// mockSessionRepo implements sessionrepo.Repository for tests.
type mockSessionRepo struct {
	sessions  map[string]*sessiondomain.Session
	listErr   error
	revokeErr error
}

func (m *mockSessionRepo) GetByID(ctx context.Context, id string) (*sessiondomain.Session, error) {
	return m.sessions[id], nil
}

func (m *mockSessionRepo) Create(ctx context.Context, s *sessiondomain.Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockSessionRepo) Revoke(ctx context.Context, id string) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	if s, ok := m.sessions[id]; ok && s.RevokedAt == nil {
		t := time.Now()
		s.RevokedAt = &t
	}
	return nil
}

func (m *mockSessionRepo) RevokeAllSessionsByUser(ctx context.Context, userID string) error {
	return m.RevokeOtherSessionsByUser(ctx, userID, "")
}

func (m *mockSessionRepo) RevokeOtherSessionsByUser(ctx context.Context, userID, keepID string) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	t := time.Now()
	for _, s := range m.sessions {
		if s.UserID == userID && s.ID != keepID && s.RevokedAt == nil {
			s.RevokedAt = &t
		}
	}
	return nil
}

func (m *mockSessionRepo) ListActiveByUser(ctx context.Context, userID string, now time.Time, limit, offset int32) ([]*sessiondomain.Session, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var all []*sessiondomain.Session
	for _, s := range m.sessions {
		if s.UserID == userID && s.Active(now) {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := int(offset)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(limit)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *mockSessionRepo) RotateRefreshToken(ctx context.Context, sessionID, expectedJti, newJti, newHash string) (bool, error) {
	return false, nil
}

type recordingAuditLogger struct {
	targets []string
}

func (l *recordingAuditLogger) LogEvent(ctx context.Context, workspaceID, userID, action, resource, metadata string) {
	l.targets = append(l.targets, action+":"+resource+":"+metadata)
}

func newRepo() *mockSessionRepo {
	base := time.Now().Add(-time.Hour)
	expired := base.Add(-time.Hour)
	revoked := base
	mk := func(id, user string, created time.Time, expires time.Time) *sessiondomain.Session {
		return &sessiondomain.Session{ID: id, UserID: user, CreatedAt: created, ExpiresAt: expires, IPAddress: "10.0.0.1"}
	}
	repo := &mockSessionRepo{sessions: map[string]*sessiondomain.Session{
		"s1":      mk("s1", "u1", base, base.Add(48*time.Hour)),
		"s2":      mk("s2", "u1", base.Add(time.Minute), base.Add(48*time.Hour)),
		"s3":      mk("s3", "u1", base.Add(2*time.Minute), base.Add(48*time.Hour)),
		"expired": mk("expired", "u1", expired, expired.Add(time.Minute)),
		"revoked": mk("revoked", "u1", base, base.Add(48*time.Hour)),
		"other":   mk("other", "u2", base, base.Add(48*time.Hour)),
	}}
	repo.sessions["revoked"].RevokedAt = &revoked
	return repo
}

func TestSessionServer_NotConfigured(t *testing.T) {
	srv := NewServer(nil, nil)
	ctx := interceptors.WithIdentity(context.Background(), "u1", "s1")
	if _, err := srv.ListSessions(ctx, &sessionv1.ListSessionsRequest{}); status.Code(err) != codes.Unimplemented {
		t.Errorf("ListSessions: code = %v, want Unimplemented", status.Code(err))
	}
	if _, err := srv.RevokeSession(ctx, &sessionv1.RevokeSessionRequest{SessionID: "s1"}); status.Code(err) != codes.Unimplemented {
		t.Errorf("RevokeSession: code = %v, want Unimplemented", status.Code(err))
	}
	if _, err := srv.RevokeAllSessions(ctx, &sessionv1.RevokeAllSessionsRequest{}); status.Code(err) != codes.Unimplemented {
		t.Errorf("RevokeAllSessions: code = %v, want Unimplemented", status.Code(err))
	}
}

func TestSessionServer_Unauthenticated(t *testing.T) {
	srv := NewServer(newRepo(), nil)
	_, err := srv.ListSessions(context.Background(), &sessionv1.ListSessionsRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestSessionServer_ListSessions(t *testing.T) {
	srv := NewServer(newRepo(), nil)
	ctx := interceptors.WithIdentity(context.Background(), "u1", "s2")

	resp, err := srv.ListSessions(ctx, &sessionv1.ListSessionsRequest{Limit: 2})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(resp.Sessions) != 2 || resp.NextOffset != 2 {
		t.Fatalf("page 1 = %d sessions, next %d; want 2, 2", len(resp.Sessions), resp.NextOffset)
	}
	if resp.Sessions[0].ID != "s3" || resp.Sessions[1].ID != "s2" {
		t.Errorf("order = %s, %s; want s3, s2", resp.Sessions[0].ID, resp.Sessions[1].ID)
	}
	if resp.Sessions[0].Current || !resp.Sessions[1].Current {
		t.Error("only s2 should be marked current")
	}

	resp, err = srv.ListSessions(ctx, &sessionv1.ListSessionsRequest{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListSessions page 2: %v", err)
	}
	if len(resp.Sessions) != 1 || resp.Sessions[0].ID != "s1" || resp.NextOffset != 0 {
		t.Errorf("page 2 = %+v", resp)
	}
}

func TestSessionServer_ListSessionsError(t *testing.T) {
	repo := newRepo()
	repo.listErr = errors.New("db down")
	srv := NewServer(repo, nil)
	ctx := interceptors.WithIdentity(context.Background(), "u1", "s1")
	if _, err := srv.ListSessions(ctx, &sessionv1.ListSessionsRequest{}); status.Code(err) != codes.Internal {
		t.Errorf("code = %v, want Internal", status.Code(err))
	}
}

func TestSessionServer_RevokeSession(t *testing.T) {
	repo := newRepo()
	rec := &recordingAuditLogger{}
	srv := NewServer(repo, rec)
	ctx := interceptors.WithIdentity(context.Background(), "u1", "s1")

	tests := []struct {
		name      string
		sessionID string
		want      codes.Code
	}{
		{"own session", "s2", codes.OK},
		{"empty id", " ", codes.InvalidArgument},
		{"unknown id", "nope", codes.PermissionDenied},
		{"other user's session", "other", codes.PermissionDenied},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := srv.RevokeSession(ctx, &sessionv1.RevokeSessionRequest{SessionID: tc.sessionID})
			if status.Code(err) != tc.want {
				t.Fatalf("code = %v, want %v", status.Code(err), tc.want)
			}
			if tc.want == codes.PermissionDenied {
				if st, _ := status.FromError(err); st.Message() != "access denied" {
					t.Errorf("message = %q, want access denied", st.Message())
				}
			}
		})
	}
	if repo.sessions["s2"].RevokedAt == nil {
		t.Error("s2 should be revoked")
	}
	if repo.sessions["other"].RevokedAt != nil {
		t.Error("another user's session must not be revoked")
	}
	if len(rec.targets) != 1 || rec.targets[0] != "revoke:session:s2" {
		t.Errorf("audit = %v", rec.targets)
	}
}

func TestSessionServer_RevokeAllSessions(t *testing.T) {
	t.Run("keep current", func(t *testing.T) {
		repo := newRepo()
		srv := NewServer(repo, nil)
		ctx := interceptors.WithIdentity(context.Background(), "u1", "s1")
		if _, err := srv.RevokeAllSessions(ctx, &sessionv1.RevokeAllSessionsRequest{KeepCurrent: true}); err != nil {
			t.Fatalf("RevokeAllSessions: %v", err)
		}
		if repo.sessions["s1"].RevokedAt != nil {
			t.Error("current session should stay live")
		}
		if repo.sessions["s2"].RevokedAt == nil || repo.sessions["s3"].RevokedAt == nil {
			t.Error("other sessions should be revoked")
		}
		if repo.sessions["other"].RevokedAt != nil {
			t.Error("another user's session must not be revoked")
		}
	})
	t.Run("all", func(t *testing.T) {
		repo := newRepo()
		srv := NewServer(repo, nil)
		ctx := interceptors.WithIdentity(context.Background(), "u1", "s1")
		if _, err := srv.RevokeAllSessions(ctx, &sessionv1.RevokeAllSessionsRequest{}); err != nil {
			t.Fatalf("RevokeAllSessions: %v", err)
		}
		for _, id := range []string{"s1", "s2", "s3"} {
			if repo.sessions[id].RevokedAt == nil {
				t.Errorf("%s should be revoked", id)
			}
		}
	})
	t.Run("error", func(t *testing.T) {
		repo := newRepo()
		repo.revokeErr = errors.New("db down")
		srv := NewServer(repo, nil)
		ctx := interceptors.WithIdentity(context.Background(), "u1", "s1")
		if _, err := srv.RevokeAllSessions(ctx, &sessionv1.RevokeAllSessionsRequest{}); status.Code(err) != codes.Internal {
			t.Errorf("code = %v, want Internal", status.Code(err))
		}
	})
}
