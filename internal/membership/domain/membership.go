package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrLastOwner is returned by repositories when a conditional write would leave a workspace without an owner.
	ErrLastOwner = errors.New("workspace must keep at least one owner")
	// ErrAlreadyMember is returned by repositories when the user already holds a membership in the workspace.
	ErrAlreadyMember = errors.New("user is already a member of the workspace")
)

// Membership links a user to a workspace with exactly one role.
type Membership struct {
	ID          string
	UserID      string
	WorkspaceID string
	Role        Role
	CreatedAt   time.Time
}

// IsOwner reports whether the membership holds the owner role.
func (m *Membership) IsOwner() bool {
	return m != nil && m.Role == RoleOwner
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Roles returns every role in descending privilege order.
func Roles() []Role {
	return []Role{RoleOwner, RoleAdmin, RoleMember}
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// ParseRole converts wire or storage text (case-insensitive, optional "ROLE_" prefix) to a Role.
// Unknown values are rejected here so they never reach the decision engine.
func ParseRole(s string) (Role, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "role_")
	r := Role(v)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
