package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	userv1 "workspace-tracker/api/user/v1"
	identitydomain "workspace-tracker/internal/identity/domain"
	"workspace-tracker/internal/server/interceptors"
	"workspace-tracker/internal/user/domain"
)

// mockUserRepo implements userrepo.Repository for tests.
type mockUserRepo struct {
	usersByID     map[string]*domain.User
	usersByEmail  map[string]*domain.User
	getByIDErr    error
	getByEmailErr error
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}
	return m.usersByID[id], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailErr != nil {
		return nil, m.getByEmailErr
	}
	return m.usersByEmail[email], nil
}

func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, u *domain.User, i *identitydomain.Identity) error {
	return nil
}

func newRepo() *mockUserRepo {
	now := time.Now().UTC()
	u := &domain.User{ID: "user-1", Email: "test@example.com", Name: "Test User", Status: domain.UserStatusActive, CreatedAt: now, UpdatedAt: now}
	return &mockUserRepo{
		usersByID:    map[string]*domain.User{"user-1": u},
		usersByEmail: map[string]*domain.User{"test@example.com": u},
	}
}

func authed() context.Context {
	return interceptors.WithIdentity(context.Background(), "user-1", "session-1")
}

func TestGetMe(t *testing.T) {
	srv := NewServer(newRepo())
	resp, err := srv.GetMe(authed(), &userv1.GetMeRequest{})
	if err != nil {
		t.Fatalf("GetMe: %v", err)
	}
	if resp.User.ID != "user-1" || resp.User.Email != "test@example.com" || resp.User.Status != "active" {
		t.Errorf("user = %+v", resp.User)
	}

	_, err = srv.GetMe(context.Background(), &userv1.GetMeRequest{})
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("no identity: code = %v, want Unauthenticated", status.Code(err))
	}
}

func TestGetUser(t *testing.T) {
	srv := NewServer(newRepo())
	tests := []struct {
		name   string
		userID string
		code   codes.Code
	}{
		{"found", "user-1", codes.OK},
		{"not found", "nonexistent", codes.NotFound},
		{"empty", "", codes.InvalidArgument},
		{"whitespace", " \t", codes.InvalidArgument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := srv.GetUser(authed(), &userv1.GetUserRequest{UserID: tc.userID})
			if status.Code(err) != tc.code {
				t.Fatalf("code = %v, want %v", status.Code(err), tc.code)
			}
			if tc.code == codes.OK && resp.User.Name != "Test User" {
				t.Errorf("user = %+v", resp.User)
			}
		})
	}
}

func TestGetUserByEmail(t *testing.T) {
	srv := NewServer(newRepo())
	tests := []struct {
		name  string
		email string
		code  codes.Code
	}{
		{"found", "test@example.com", codes.OK},
		{"normalized", "  TEST@Example.com ", codes.OK},
		{"not found", "nobody@example.com", codes.NotFound},
		{"empty", "", codes.InvalidArgument},
		{"no at sign", "test.example.com", codes.InvalidArgument},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := srv.GetUserByEmail(authed(), &userv1.GetUserByEmailRequest{Email: tc.email})
			if status.Code(err) != tc.code {
				t.Fatalf("code = %v, want %v", status.Code(err), tc.code)
			}
			if tc.code == codes.OK && resp.User.ID != "user-1" {
				t.Errorf("user = %+v", resp.User)
			}
		})
	}
}

func TestUser_RepositoryError(t *testing.T) {
	repo := newRepo()
	repo.getByIDErr = errors.New("db down")
	repo.getByEmailErr = errors.New("db down")
	srv := NewServer(repo)
	if _, err := srv.GetUser(authed(), &userv1.GetUserRequest{UserID: "user-1"}); status.Code(err) != codes.Internal {
		t.Errorf("GetUser: code = %v, want Internal", status.Code(err))
	}
	if _, err := srv.GetUserByEmail(authed(), &userv1.GetUserByEmailRequest{Email: "test@example.com"}); status.Code(err) != codes.Internal {
		t.Errorf("GetUserByEmail: code = %v, want Internal", status.Code(err))
	}
}

func TestUser_NilRepo(t *testing.T) {
	srv := NewServer(nil)
	if _, err := srv.GetMe(authed(), &userv1.GetMeRequest{}); status.Code(err) != codes.Unimplemented {
		t.Errorf("code = %v, want Unimplemented", status.Code(err))
	}
}

func TestGetUser_DisabledStatus(t *testing.T) {
	repo := newRepo()
	repo.usersByID["user-2"] = &domain.User{ID: "user-2", Email: "off@example.com", Status: domain.UserStatusDisabled}
	resp, err := NewServer(repo).GetUser(authed(), &userv1.GetUserRequest{UserID: "user-2"})
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if resp.User.Status != "disabled" {
		t.Errorf("status = %q, want disabled", resp.User.Status)
	}
}
