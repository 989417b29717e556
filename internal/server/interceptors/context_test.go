package interceptors

import (
	"context"
	"testing"
)

func TestWithIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), "user-1", "session-1")

	if userID, ok := GetUserID(ctx); !ok || userID != "user-1" {
		t.Errorf("GetUserID = (%q, %v), want (user-1, true)", userID, ok)
	}
	if sessionID, ok := GetSessionID(ctx); !ok || sessionID != "session-1" {
		t.Errorf("GetSessionID = (%q, %v), want (session-1, true)", sessionID, ok)
	}
}

func TestGetters_NotSet(t *testing.T) {
	ctx := context.Background()
	if _, ok := GetUserID(ctx); ok {
		t.Error("GetUserID should return false on empty context")
	}
	if _, ok := GetSessionID(ctx); ok {
		t.Error("GetSessionID should return false on empty context")
	}
	ctx = WithIdentity(ctx, "", "")
	if _, ok := GetUserID(ctx); ok {
		t.Error("GetUserID should return false for an empty user id")
	}
}
