package domain

import "time"

// AuditLog records one workspace-scoped operation and its outcome.
type AuditLog struct {
	ID          string
	WorkspaceID string
	UserID      string
	Action      string
	Resource    string
	Target      string // "kind/id" of the addressed resource, when known
	Outcome     string // gRPC status code name, e.g. "OK", "PermissionDenied"
	IP          string
	Metadata    string
	CreatedAt   time.Time
}

// Filter narrows a workspace's audit log listing. Empty fields match everything.
type Filter struct {
	UserID   string
	Action   string
	Resource string
}
