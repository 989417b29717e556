package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"workspace-tracker/internal/audit"
	identitydomain "workspace-tracker/internal/identity/domain"
	"workspace-tracker/internal/security"
	"workspace-tracker/internal/server/interceptors"
	sessiondomain "workspace-tracker/internal/session/domain"
	userdomain "workspace-tracker/internal/user/domain"
)

// Sentinel errors for auth service; handler maps them to gRPC codes.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidRefreshToken    = errors.New("invalid or expired refresh token")
	ErrRefreshTokenReuse      = errors.New("refresh token reuse detected; all sessions revoked")
)

// AuthResult holds the outcome of Register (UserID only), Login or Refresh (tokens).
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
}

// UserRepo is the minimal user repository needed by the auth service.
// CreateWithIdentity must write both rows atomically and return userdomain.ErrEmailTaken on a duplicate email.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*userdomain.User, error)
	CreateWithIdentity(ctx context.Context, u *userdomain.User, ident *identitydomain.Identity) error
}

// IdentityRepo is the minimal identity repository needed by the auth service.
type IdentityRepo interface {
	GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error)
}

// SessionRepo is the minimal session repository needed by the auth service.
type SessionRepo interface {
	GetByID(ctx context.Context, id string) (*sessiondomain.Session, error)
	Create(ctx context.Context, s *sessiondomain.Session) error
	Revoke(ctx context.Context, id string) error
	RevokeAllSessionsByUser(ctx context.Context, userID string) error
	RotateRefreshToken(ctx context.Context, sessionID, expectedJti, newJti, newHash string) (bool, error)
}

// AuthService implements password register, login, refresh-token rotation and logout.
// It only establishes who the actor is; what the actor may do is decided per workspace by authz.
type AuthService struct {
	users      UserRepo
	identities IdentityRepo
	sessions   SessionRepo
	hasher     *security.Hasher
	tokens     *security.TokenProvider
	audit      audit.AuditLogger
	now        func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies. auditLogger may be nil.
func NewAuthService(users UserRepo, identities IdentityRepo, sessions SessionRepo, hasher *security.Hasher, tokens *security.TokenProvider, auditLogger audit.AuditLogger) *AuthService {
	return &AuthService{
		users:      users,
		identities: identities,
		sessions:   sessions,
		hasher:     hasher,
		tokens:     tokens,
		audit:      auditLogger,
		now:        time.Now,
	}
}

// Register creates a user and its local identity in one write. Returns AuthResult with UserID only.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	now := s.now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := security.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	existing, err := s.users.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	identity := &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   user.Email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := s.users.CreateWithIdentity(ctx, user, identity); err != nil {
		if errors.Is(err, userdomain.ErrEmailTaken) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return &AuthResult{UserID: user.ID}, nil
}

// Login authenticates with email and password, opens a session and returns its tokens.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (*AuthResult, error) {
	email = userdomain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		s.hasher.CompareDummy([]byte(password))
		s.logEvent(ctx, "", "login_failure", "unknown or disabled user")
		return nil, ErrInvalidCredentials
	}
	ident, err := s.identities.GetByUserAndProvider(ctx, user.ID, identitydomain.IdentityProviderLocal)
	if err != nil {
		return nil, err
	}
	if ident == nil || ident.PasswordHash == "" {
		s.hasher.CompareDummy([]byte(password))
		s.logEvent(ctx, user.ID, "login_failure", "no local identity")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		s.logEvent(ctx, user.ID, "login_failure", "wrong password")
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	refresh, err := s.tokens.IssueRefresh(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	sess := &sessiondomain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		ExpiresAt:        refresh.ExpiresAt,
		IPAddress:        clientIP,
		RefreshJti:       refresh.ID,
		RefreshTokenHash: security.HashToken(refresh.Value),
		CreatedAt:        s.now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}
	access, err := s.tokens.IssueAccess(sessionID, user.ID)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, user.ID, "login_success", "")
	return &AuthResult{
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		ExpiresAt:    access.ExpiresAt,
		UserID:       user.ID,
	}, nil
}

// Refresh validates the refresh token, rotates it and returns new tokens. Presenting a refresh
// token that was already rotated away revokes every session of the user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}
	sub, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	sess, err := s.sessions.GetByID(ctx, sub.SessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Active(s.now()) || sess.UserID != sub.UserID {
		return nil, ErrInvalidRefreshToken
	}
	if sess.RefreshJti != sub.TokenID {
		s.revokeAll(ctx, sub.UserID)
		return nil, ErrRefreshTokenReuse
	}
	if !security.TokenHashEqual(refreshToken, sess.RefreshTokenHash) {
		return nil, ErrInvalidRefreshToken
	}

	next, err := s.tokens.IssueRefresh(sess.ID, sub.UserID)
	if err != nil {
		return nil, err
	}
	rotated, err := s.sessions.RotateRefreshToken(ctx, sess.ID, sub.TokenID, next.ID, security.HashToken(next.Value))
	if err != nil {
		return nil, err
	}
	if !rotated {
		s.revokeAll(ctx, sub.UserID)
		return nil, ErrRefreshTokenReuse
	}
	access, err := s.tokens.IssueAccess(sess.ID, sub.UserID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  access.Value,
		RefreshToken: next.Value,
		ExpiresAt:    access.ExpiresAt,
		UserID:       sub.UserID,
	}, nil
}

// Logout revokes the session named by refreshToken, or, when it is empty, the session of the
// access token in ctx. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken != "" {
		sub, err := s.tokens.ValidateRefresh(refreshToken)
		if err != nil {
			return nil
		}
		return s.revoke(ctx, sub.SessionID, sub.UserID)
	}
	sessionID, ok := interceptors.GetSessionID(ctx)
	if !ok || sessionID == "" {
		return nil
	}
	userID, _ := interceptors.GetUserID(ctx)
	return s.revoke(ctx, sessionID, userID)
}

func (s *AuthService) revoke(ctx context.Context, sessionID, userID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return err
	}
	s.logEvent(ctx, userID, "logout", "")
	return nil
}

// SessionActive reports whether sessionID belongs to userID and is neither revoked nor expired.
// The auth interceptor calls it for every authenticated request.
func (s *AuthService) SessionActive(ctx context.Context, sessionID, userID string) (bool, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return sess.Active(s.now()) && sess.UserID == userID, nil
}

func (s *AuthService) revokeAll(ctx context.Context, userID string) {
	if err := s.sessions.RevokeAllSessionsByUser(ctx, userID); err != nil {
		log.Printf("auth: revoke sessions for user %s: %v", userID, err)
	}
	s.logEvent(ctx, userID, "refresh_token_reuse", "all sessions revoked")
}

// logEvent records an account event outside any workspace. Best-effort.
func (s *AuthService) logEvent(ctx context.Context, userID, action, detail string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, audit.SentinelWorkspaceID, userID, action, "authentication", detail)
}
