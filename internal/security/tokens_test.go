package security

import (
	"testing"
	"time"
)

func TestTokenProvider_IssueAndValidate(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}

	access, err := p.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if access.Value == "" || access.ID == "" {
		t.Fatal("access token or jti empty")
	}
	if !access.ExpiresAt.After(time.Now()) {
		t.Fatal("access token already expired")
	}
	sub, err := p.ValidateAccess(access.Value)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if sub.UserID != "u1" || sub.SessionID != "s1" || sub.TokenID != access.ID {
		t.Errorf("ValidateAccess = %+v", sub)
	}

	refresh, err := p.IssueRefresh("s1", "u1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if !refresh.ExpiresAt.After(access.ExpiresAt) {
		t.Error("refresh token should outlive access token")
	}
	sub, err = p.ValidateRefresh(refresh.Value)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if sub.TokenID != refresh.ID || sub.UserID != "u1" {
		t.Errorf("ValidateRefresh = %+v", sub)
	}
}

func TestTokenProvider_UseIsEnforced(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	access, _ := p.IssueAccess("s1", "u1")
	refresh, _ := p.IssueRefresh("s1", "u1")

	if _, err := p.ValidateRefresh(access.Value); err != ErrInvalidToken {
		t.Errorf("access token accepted as refresh: %v", err)
	}
	if _, err := p.ValidateAccess(refresh.Value); err != ErrInvalidToken {
		t.Errorf("refresh token accepted as access: %v", err)
	}
}

func TestTokenProvider_Invalid(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	for _, tok := range []string{"", "invalid-token", "a.b.c"} {
		if _, err := p.ValidateAccess(tok); err != ErrInvalidToken {
			t.Errorf("ValidateAccess(%q) = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestTokenProvider_Expired(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	p.now = func() time.Time { return time.Now().Add(-time.Hour) }
	access, err := p.IssueAccess("s1", "u1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	p.now = time.Now
	if _, err := p.ValidateAccess(access.Value); err != ErrInvalidToken {
		t.Errorf("expired token accepted: %v", err)
	}
}

func TestTokenProvider_WrongAudienceOrIssuer(t *testing.T) {
	p, err := NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	access, _ := p.IssueAccess("s1", "u1")

	other := NewTokenProvider(p.privateKey, p.publicKey, "test-issuer", "other-audience", time.Minute, time.Hour)
	if _, err := other.ValidateAccess(access.Value); err != ErrInvalidToken {
		t.Errorf("wrong audience accepted: %v", err)
	}
	other = NewTokenProvider(p.privateKey, p.publicKey, "other-issuer", "test-audience", time.Minute, time.Hour)
	if _, err := other.ValidateAccess(access.Value); err != ErrInvalidToken {
		t.Errorf("wrong issuer accepted: %v", err)
	}
}
