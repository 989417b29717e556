package authz

import (
	"context"
	"errors"
	"testing"

	"workspace-tracker/internal/membership/domain"
)

func TestResolve_Success(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.addMember("u1", "w1", domain.RoleAdmin)
	r := NewResolver(s, s)

	m, err := r.Resolve(context.Background(), "u1", "w1")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if m.Role != domain.RoleAdmin {
		t.Errorf("role = %s, want admin", m.Role)
	}
}

func TestResolve_Failures(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.addWorkspace("w2")
	s.addMember("u1", "w2", domain.RoleOwner)
	r := NewResolver(s, s)

	tests := []struct {
		name      string
		actor, ws string
		code      Code
		sentinel  error
	}{
		{"workspace missing", "u1", "w-missing", CodeWorkspaceNotFound, ErrWorkspaceNotFound},
		{"empty workspace id", "u1", "", CodeWorkspaceNotFound, ErrWorkspaceNotFound},
		{"not a member", "u1", "w1", CodeMembershipNotFound, ErrMembershipNotFound},
		{"empty actor", "", "w1", CodeMembershipNotFound, ErrMembershipNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tc.actor, tc.ws)
			if CodeOf(err) != tc.code {
				t.Errorf("code = %q, want %q (err %v)", CodeOf(err), tc.code, err)
			}
			if !errors.Is(err, tc.sentinel) {
				t.Errorf("err = %v, want %v", err, tc.sentinel)
			}
		})
	}
}

func TestResolve_StorageErrors(t *testing.T) {
	dbErr := errors.New("timeout")

	s := newMemStore()
	s.workspaceErr = dbErr
	if _, err := NewResolver(s, s).Resolve(context.Background(), "u1", "w1"); !errors.Is(err, dbErr) || CodeOf(err) != "" {
		t.Errorf("workspace lookup failure: err = %v, code = %q", err, CodeOf(err))
	}

	s = newMemStore()
	s.addWorkspace("w1")
	s.membershipErr = dbErr
	if _, err := NewResolver(s, s).Resolve(context.Background(), "u1", "w1"); !errors.Is(err, dbErr) || CodeOf(err) != "" {
		t.Errorf("membership lookup failure: err = %v, code = %q", err, CodeOf(err))
	}
}
