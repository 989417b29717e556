// Package authz decides whether an actor may perform an operation on a workspace, project or task.
//
// Permissions are workspace-scoped: every check resolves the actor's membership in the workspace
// that (transitively) owns the target and evaluates the membership's role against an immutable
// role→permission catalog.
package authz

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"workspace-tracker/internal/membership/domain"
)

// Permission is an atomic capability. The set is closed; there is no hierarchy among permissions.
type Permission uint8

const (
	CreateWorkspace Permission = iota + 1
	DeleteWorkspace
	EditWorkspace
	ManageWorkspaceSettings
	AddMember
	ChangeMemberRole
	RemoveMember
	CreateProject
	EditProject
	DeleteProject
	CreateTask
	EditTask
	DeleteTask
	AssignTask

	maxPermission = AssignTask
)

var permissionNames = map[Permission]string{
	CreateWorkspace:         "workspace.create",
	DeleteWorkspace:         "workspace.delete",
	EditWorkspace:           "workspace.edit",
	ManageWorkspaceSettings: "workspace.manage_settings",
	AddMember:               "member.add",
	ChangeMemberRole:        "member.change_role",
	RemoveMember:            "member.remove",
	CreateProject:           "project.create",
	EditProject:             "project.edit",
	DeleteProject:           "project.delete",
	CreateTask:              "task.create",
	EditTask:                "task.edit",
	DeleteTask:              "task.delete",
	AssignTask:              "task.assign",
}

// AllPermissions returns every permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, 0, maxPermission)
	for p := CreateWorkspace; p <= maxPermission; p++ {
		out = append(out, p)
	}
	return out
}

func (p Permission) Valid() bool {
	return p >= CreateWorkspace && p <= maxPermission
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", uint8(p))
}

// ParsePermission accepts the dotted name ("task.edit") or the constant form ("EDIT_TASK").
func ParsePermission(s string) (Permission, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for p, name := range permissionNames {
		if v == name || v == constantName(name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown permission %q", s)
}

// constantName turns "task.edit" into "edit_task" and "member.change_role" into "change_member_role".
func constantName(dotted string) string {
	resource, verb, _ := strings.Cut(dotted, ".")
	if first, rest, ok := strings.Cut(verb, "_"); ok {
		return first + "_" + resource + "_" + rest
	}
	return verb + "_" + resource
}

// PermissionSet is a value-typed set of permissions. Copies never alias.
type PermissionSet uint32

// NewPermissionSet returns the set containing perms. Invalid permissions are ignored.
func NewPermissionSet(perms ...Permission) PermissionSet {
	var s PermissionSet
	for _, p := range perms {
		if p.Valid() {
			s |= 1 << p
		}
	}
	return s
}

func (s PermissionSet) Has(p Permission) bool {
	return p.Valid() && s&(1<<p) != 0
}

func (s PermissionSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

func (s PermissionSet) IsEmpty() bool {
	return s == 0
}

// Slice returns the members in declaration order.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, s.Len())
	for _, p := range AllPermissions() {
		if s.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s PermissionSet) String() string {
	names := make([]string, 0, s.Len())
	for _, p := range s.Slice() {
		names = append(names, p.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// ErrInvalidCatalog is returned by NewCatalog when the mapping breaks a structural rule.
var ErrInvalidCatalog = errors.New("invalid role permission catalog")

// Catalog is the immutable role→permission mapping. It is built once at startup and shared by
// all requests without synchronization; there are no mutating methods.
type Catalog struct {
	sets map[domain.Role]PermissionSet
}

// NewCatalog validates grants and returns a Catalog holding a private copy. Every role must map to
// a non-empty set and only the owner role may hold workspace deletion.
func NewCatalog(grants map[domain.Role][]Permission) (*Catalog, error) {
	sets := make(map[domain.Role]PermissionSet, len(grants))
	for role, perms := range grants {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidCatalog, role)
		}
		for _, p := range perms {
			if !p.Valid() {
				return nil, fmt.Errorf("%w: role %s: unknown permission %d", ErrInvalidCatalog, role, uint8(p))
			}
		}
		sets[role] = NewPermissionSet(perms...)
	}
	for _, role := range domain.Roles() {
		if sets[role].IsEmpty() {
			return nil, fmt.Errorf("%w: role %s has no permissions", ErrInvalidCatalog, role)
		}
		if role != domain.RoleOwner && sets[role].Has(DeleteWorkspace) {
			return nil, fmt.Errorf("%w: only owner may hold %s", ErrInvalidCatalog, DeleteWorkspace)
		}
	}
	if !sets[domain.RoleOwner].Has(DeleteWorkspace) {
		return nil, fmt.Errorf("%w: owner must hold %s", ErrInvalidCatalog, DeleteWorkspace)
	}
	return &Catalog{sets: sets}, nil
}

// DefaultCatalog returns the built-in catalog:
// owner holds everything, admin everything except workspace deletion, member can create
// workspaces, projects and tasks and edit or assign tasks.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultGrants())
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultGrants returns a fresh copy of the built-in role grants.
func DefaultGrants() map[domain.Role][]Permission {
	all := AllPermissions()
	admin := make([]Permission, 0, len(all)-1)
	for _, p := range all {
		if p != DeleteWorkspace {
			admin = append(admin, p)
		}
	}
	return map[domain.Role][]Permission{
		domain.RoleOwner: all,
		domain.RoleAdmin: admin,
		domain.RoleMember: {
			CreateWorkspace,
			CreateProject,
			CreateTask,
			EditTask,
			AssignTask,
		},
	}
}

// PermissionsFor returns the permission set of role. Roles are validated at the parse boundary;
// an unknown role yields the empty set.
func (c *Catalog) PermissionsFor(role domain.Role) PermissionSet {
	if c == nil {
		return 0
	}
	return c.sets[role]
}

// Equal reports whether both catalogs grant identical sets to every role.
func (c *Catalog) Equal(other *Catalog) bool {
	for _, role := range domain.Roles() {
		if c.PermissionsFor(role) != other.PermissionsFor(role) {
			return false
		}
	}
	return true
}

// Describe renders the catalog as "role: {perms}" lines sorted by role, for startup logs.
func (c *Catalog) Describe() string {
	lines := make([]string, 0, len(c.sets))
	for role, set := range c.sets {
		lines = append(lines, string(role)+": "+set.String())
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}
