package authz

import (
	"context"
	"sync"

	"workspace-tracker/internal/membership/domain"
	projectdomain "workspace-tracker/internal/project/domain"
	taskdomain "workspace-tracker/internal/task/domain"
	workspacedomain "workspace-tracker/internal/workspace/domain"
)

// memStore implements every getter the authz package needs, backed by maps.
type memStore struct {
	workspaces  map[string]*workspacedomain.Workspace
	memberships map[string]*domain.Membership // key: userID:workspaceID
	projects    map[string]*projectdomain.Project
	tasks       map[string]*taskdomain.Task

	workspaceErr  error
	membershipErr error
	projectErr    error
	taskErr       error
	ownersErr     error

	workspaceCalls int
}

func newMemStore() *memStore {
	return &memStore{
		workspaces:  make(map[string]*workspacedomain.Workspace),
		memberships: make(map[string]*domain.Membership),
		projects:    make(map[string]*projectdomain.Project),
		tasks:       make(map[string]*taskdomain.Task),
	}
}

func (s *memStore) addWorkspace(id string) {
	s.workspaces[id] = &workspacedomain.Workspace{ID: id, Name: id}
}

func (s *memStore) addMember(userID, workspaceID string, role domain.Role) *domain.Membership {
	m := &domain.Membership{ID: "m-" + userID + "-" + workspaceID, UserID: userID, WorkspaceID: workspaceID, Role: role}
	s.memberships[userID+":"+workspaceID] = m
	return m
}

func (s *memStore) addProject(id, workspaceID string) {
	s.projects[id] = &projectdomain.Project{ID: id, WorkspaceID: workspaceID, Name: id}
}

func (s *memStore) addTask(id, projectID string) {
	s.tasks[id] = &taskdomain.Task{ID: id, ProjectID: projectID, Title: id}
}

func (s *memStore) GetWorkspaceByID(ctx context.Context, id string) (*workspacedomain.Workspace, error) {
	s.workspaceCalls++
	if s.workspaceErr != nil {
		return nil, s.workspaceErr
	}
	return s.workspaces[id], nil
}

func (s *memStore) GetMembershipByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Membership, error) {
	if s.membershipErr != nil {
		return nil, s.membershipErr
	}
	return s.memberships[userID+":"+workspaceID], nil
}

func (s *memStore) GetProjectByID(ctx context.Context, id string) (*projectdomain.Project, error) {
	if s.projectErr != nil {
		return nil, s.projectErr
	}
	return s.projects[id], nil
}

func (s *memStore) GetTaskByID(ctx context.Context, id string) (*taskdomain.Task, error) {
	if s.taskErr != nil {
		return nil, s.taskErr
	}
	return s.tasks[id], nil
}

func (s *memStore) ListOwnersByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Membership, error) {
	if s.ownersErr != nil {
		return nil, s.ownersErr
	}
	var out []*domain.Membership
	for _, m := range s.memberships {
		if m.WorkspaceID == workspaceID && m.Role == domain.RoleOwner {
			out = append(out, m)
		}
	}
	return out, nil
}

// recordingObserver captures decision events.
type recordingObserver struct {
	mu     sync.Mutex
	events []DecisionEvent
}

func (o *recordingObserver) ObserveDecision(ctx context.Context, ev DecisionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func (o *recordingObserver) last() DecisionEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.events) == 0 {
		return DecisionEvent{}
	}
	return o.events[len(o.events)-1]
}

func newTestGuard(s *memStore, opts ...Option) *Guard {
	return NewGuard(NewResolver(s, s), NewChain(s, s), NewEngine(nil), s, opts...)
}
