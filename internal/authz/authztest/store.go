// Package authztest provides an in-memory store implementing the workspace, membership, project,
// task, user and identity repositories, and a Guard wired to it. For tests only.
package authztest

import (
	"context"
	"sort"
	"sync"
	"time"

	"workspace-tracker/internal/authz"
	identitydomain "workspace-tracker/internal/identity/domain"
	membershipdomain "workspace-tracker/internal/membership/domain"
	projectdomain "workspace-tracker/internal/project/domain"
	taskdomain "workspace-tracker/internal/task/domain"
	userdomain "workspace-tracker/internal/user/domain"
	workspacedomain "workspace-tracker/internal/workspace/domain"
)

// Store keeps every entity in maps. Err, when set, is returned by every method.
type Store struct {
	mu          sync.Mutex
	users       map[string]*userdomain.User
	identities  map[string]*identitydomain.Identity // key: userID:provider
	workspaces  map[string]*workspacedomain.Workspace
	memberships map[string]*membershipdomain.Membership // key: userID:workspaceID
	projects    map[string]*projectdomain.Project
	tasks       map[string]*taskdomain.Task
	seq         int

	Err error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]*userdomain.User),
		identities:  make(map[string]*identitydomain.Identity),
		workspaces:  make(map[string]*workspacedomain.Workspace),
		memberships: make(map[string]*membershipdomain.Membership),
		projects:    make(map[string]*projectdomain.Project),
		tasks:       make(map[string]*taskdomain.Task),
	}
}

// NewGuard returns a guard over s using the default catalog.
func NewGuard(s *Store, opts ...authz.Option) *authz.Guard {
	return authz.NewGuard(authz.NewResolver(s, s), authz.NewChain(s, s), authz.NewEngine(nil), s, opts...)
}

func key(userID, workspaceID string) string { return userID + ":" + workspaceID }

func (s *Store) tick() time.Time {
	s.seq++
	return time.Date(2026, 1, 1, 0, 0, s.seq, 0, time.UTC)
}

// AddUser seeds an active user.
func (s *Store) AddUser(id, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &userdomain.User{ID: id, Email: email, Name: id, Status: userdomain.UserStatusActive}
}

// AddWorkspace seeds a workspace without memberships.
func (s *Store) AddWorkspace(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces[id] = &workspacedomain.Workspace{ID: id, Name: id, Settings: map[string]string{}, CreatedAt: s.tick()}
}

// AddMember seeds a membership.
func (s *Store) AddMember(userID, workspaceID string, role membershipdomain.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[key(userID, workspaceID)] = &membershipdomain.Membership{
		ID: "m-" + userID + "-" + workspaceID, UserID: userID, WorkspaceID: workspaceID, Role: role, CreatedAt: s.tick(),
	}
}

// AddProject seeds a project.
func (s *Store) AddProject(id, workspaceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[id] = &projectdomain.Project{ID: id, WorkspaceID: workspaceID, Name: id, CreatedAt: s.tick()}
}

// AddTask seeds a task.
func (s *Store) AddTask(id, projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[id] = &taskdomain.Task{ID: id, ProjectID: projectID, Title: id, Status: taskdomain.StatusTodo, CreatedAt: s.tick()}
}

// Role returns userID's role in workspaceID, or "" when not a member.
func (s *Store) Role(userID, workspaceID string) membershipdomain.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.memberships[key(userID, workspaceID)]; m != nil {
		return m.Role
	}
	return ""
}

// Users

func (s *Store) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if u := s.users[id]; u != nil {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateWithIdentity(ctx context.Context, u *userdomain.User, i *identitydomain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return userdomain.ErrEmailTaken
		}
	}
	c := *u
	s.users[u.ID] = &c
	ic := *i
	s.identities[key(i.UserID, string(i.Provider))] = &ic
	return nil
}

// Identities

func (s *Store) GetByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if i := s.identities[key(userID, string(provider))]; i != nil {
		c := *i
		return &c, nil
	}
	return nil, nil
}

// Workspaces

func (s *Store) GetWorkspaceByID(ctx context.Context, id string) (*workspacedomain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return cloneWorkspace(s.workspaces[id]), nil
}

func (s *Store) ListWorkspacesByMember(ctx context.Context, userID string) ([]*workspacedomain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*workspacedomain.Workspace
	for _, m := range s.memberships {
		if m.UserID == userID {
			if w := s.workspaces[m.WorkspaceID]; w != nil {
				out = append(out, cloneWorkspace(w))
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateWorkspaceWithOwner(ctx context.Context, w *workspacedomain.Workspace, owner *membershipdomain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.workspaces[w.ID] = cloneWorkspace(w)
	m := *owner
	s.memberships[key(owner.UserID, owner.WorkspaceID)] = &m
	return nil
}

func (s *Store) UpdateWorkspace(ctx context.Context, w *workspacedomain.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if cur := s.workspaces[w.ID]; cur != nil {
		cur.Name, cur.Description, cur.UpdatedAt = w.Name, w.Description, w.UpdatedAt
	}
	return nil
}

func (s *Store) UpdateSettings(ctx context.Context, id string, settings map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if cur := s.workspaces[id]; cur != nil {
		cur.Settings = make(map[string]string, len(settings))
		for k, v := range settings {
			cur.Settings[k] = v
		}
	}
	return nil
}

func (s *Store) DeleteWorkspace(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.workspaces, id)
	for k, m := range s.memberships {
		if m.WorkspaceID == id {
			delete(s.memberships, k)
		}
	}
	for pid, p := range s.projects {
		if p.WorkspaceID == id {
			s.deleteProjectLocked(pid)
		}
	}
	return nil
}

// Memberships

func (s *Store) GetMembershipByID(ctx context.Context, id string) (*membershipdomain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, m := range s.memberships {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*membershipdomain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if m := s.memberships[key(userID, workspaceID)]; m != nil {
		c := *m
		return &c, nil
	}
	return nil, nil
}

func (s *Store) ListMembershipsByWorkspace(ctx context.Context, workspaceID string) ([]*membershipdomain.Membership, error) {
	return s.listMemberships(func(m *membershipdomain.Membership) bool { return m.WorkspaceID == workspaceID })
}

func (s *Store) ListMembershipsByUser(ctx context.Context, userID string) ([]*membershipdomain.Membership, error) {
	return s.listMemberships(func(m *membershipdomain.Membership) bool { return m.UserID == userID })
}

func (s *Store) ListOwnersByWorkspace(ctx context.Context, workspaceID string) ([]*membershipdomain.Membership, error) {
	return s.listMemberships(func(m *membershipdomain.Membership) bool {
		return m.WorkspaceID == workspaceID && m.Role == membershipdomain.RoleOwner
	})
}

func (s *Store) listMemberships(keep func(*membershipdomain.Membership) bool) ([]*membershipdomain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*membershipdomain.Membership
	for _, m := range s.memberships {
		if keep(m) {
			c := *m
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateMembership(ctx context.Context, m *membershipdomain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	k := key(m.UserID, m.WorkspaceID)
	if s.memberships[k] != nil {
		return membershipdomain.ErrAlreadyMember
	}
	c := *m
	s.memberships[k] = &c
	return nil
}

func (s *Store) DeleteByUserAndWorkspace(ctx context.Context, userID, workspaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if s.soleOwnerLocked(userID, workspaceID) {
		return membershipdomain.ErrLastOwner
	}
	delete(s.memberships, key(userID, workspaceID))
	return nil
}

func (s *Store) UpdateRole(ctx context.Context, userID, workspaceID string, role membershipdomain.Role) (*membershipdomain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if role != membershipdomain.RoleOwner && s.soleOwnerLocked(userID, workspaceID) {
		return nil, membershipdomain.ErrLastOwner
	}
	m := s.memberships[key(userID, workspaceID)]
	if m == nil {
		return nil, nil
	}
	m.Role = role
	c := *m
	return &c, nil
}

func (s *Store) soleOwnerLocked(userID, workspaceID string) bool {
	var owners []string
	for _, m := range s.memberships {
		if m.WorkspaceID == workspaceID && m.Role == membershipdomain.RoleOwner {
			owners = append(owners, m.UserID)
		}
	}
	return len(owners) == 1 && owners[0] == userID
}

// Projects

func (s *Store) GetProjectByID(ctx context.Context, id string) (*projectdomain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if p := s.projects[id]; p != nil {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (s *Store) ListProjectsByWorkspace(ctx context.Context, workspaceID string) ([]*projectdomain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*projectdomain.Project
	for _, p := range s.projects {
		if p.WorkspaceID == workspaceID {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateProject(ctx context.Context, p *projectdomain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c := *p
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.tick()
	}
	s.projects[p.ID] = &c
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *projectdomain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if cur := s.projects[p.ID]; cur != nil {
		cur.Name, cur.Description, cur.UpdatedAt = p.Name, p.Description, p.UpdatedAt
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.deleteProjectLocked(id)
	return nil
}

func (s *Store) deleteProjectLocked(id string) {
	delete(s.projects, id)
	for tid, t := range s.tasks {
		if t.ProjectID == id {
			delete(s.tasks, tid)
		}
	}
}

// Tasks

func (s *Store) GetTaskByID(ctx context.Context, id string) (*taskdomain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if t := s.tasks[id]; t != nil {
		c := *t
		return &c, nil
	}
	return nil, nil
}

func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]*taskdomain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*taskdomain.Task
	for _, t := range s.tasks {
		if t.ProjectID == projectID {
			c := *t
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, t *taskdomain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c := *t
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.tick()
	}
	s.tasks[t.ID] = &c
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, t *taskdomain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if cur := s.tasks[t.ID]; cur != nil {
		cur.Title, cur.Description, cur.Status, cur.UpdatedAt = t.Title, t.Description, t.Status, t.UpdatedAt
	}
	return nil
}

func (s *Store) SetAssignee(ctx context.Context, id, assigneeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if cur := s.tasks[id]; cur != nil {
		cur.AssigneeID = assigneeID
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.tasks, id)
	return nil
}

func cloneWorkspace(w *workspacedomain.Workspace) *workspacedomain.Workspace {
	if w == nil {
		return nil
	}
	c := *w
	c.Settings = make(map[string]string, len(w.Settings))
	for k, v := range w.Settings {
		c.Settings[k] = v
	}
	return &c
}
