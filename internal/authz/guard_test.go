package authz

import (
	"context"
	"errors"
	"testing"

	"workspace-tracker/internal/membership/domain"
)

func TestGuard_NonMemberNeverAllowed(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.addWorkspace("w2")
	s.addMember("outsider", "w2", domain.RoleOwner)
	g := newTestGuard(s)

	for _, p := range AllPermissions() {
		for _, mode := range []Mode{ModeAll, ModeAny} {
			grant, err := g.Check(context.Background(), "outsider", WorkspaceTarget("w1"), mode, p)
			if err == nil || grant != nil {
				t.Fatalf("Check(%s, %s) allowed a non-member", p, mode)
			}
			if !errors.Is(err, ErrMembershipNotFound) {
				t.Fatalf("err = %v, want ErrMembershipNotFound", err)
			}
		}
	}
	if _, err := g.RequireMember(context.Background(), "outsider", WorkspaceTarget("w1")); !errors.Is(err, ErrMembershipNotFound) {
		t.Errorf("RequireMember err = %v, want ErrMembershipNotFound", err)
	}
}

func TestGuard_TaskResolvesToRootWorkspace(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.addWorkspace("w2")
	s.addProject("p", "w1")
	s.addTask("t", "p")
	s.addMember("a", "w1", domain.RoleMember)
	g := newTestGuard(s)

	grant, err := g.Check(context.Background(), "a", TaskTarget("t"), ModeAll, EditTask)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if grant.WorkspaceID != "w1" {
		t.Errorf("grant workspace = %q, want w1", grant.WorkspaceID)
	}
	if grant.Role != domain.RoleMember || grant.Target != TaskTarget("t") {
		t.Errorf("grant = %+v", grant)
	}

	// Owner of an unrelated workspace gains nothing on t.
	s.addMember("b", "w2", domain.RoleOwner)
	if _, err := g.Check(context.Background(), "b", TaskTarget("t"), ModeAll, EditTask); !errors.Is(err, ErrMembershipNotFound) {
		t.Errorf("err = %v, want ErrMembershipNotFound", err)
	}
}

func TestGuard_MissingResource(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.addMember("a", "w1", domain.RoleOwner)
	obs := &recordingObserver{}
	g := newTestGuard(s, WithObserver(obs))

	_, err := g.Check(context.Background(), "a", ProjectTarget("gone"), ModeAll, EditProject)
	if CodeOf(err) != CodeResourceNotFound {
		t.Fatalf("code = %q, want resource_not_found", CodeOf(err))
	}
	if ev := obs.last(); ev.Code != CodeResourceNotFound || ev.Allowed {
		t.Errorf("observed %+v", ev)
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.ActorID != "a" {
		t.Errorf("error should carry actor id, got %+v", ae)
	}
}

func TestGuard_StorageFailurePropagates(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.membershipErr = errors.New("db down")
	obs := &recordingObserver{}
	g := newTestGuard(s, WithObserver(obs))

	_, err := g.Check(context.Background(), "a", WorkspaceTarget("w1"), ModeAll, EditWorkspace)
	if !errors.Is(err, s.membershipErr) {
		t.Fatalf("err = %v, want storage error", err)
	}
	if errors.Is(err, ErrForbidden) || CodeOf(err) != "" {
		t.Error("storage failure must not be treated as a denial")
	}
	if len(obs.events) != 0 {
		t.Errorf("storage failure observed as decision: %+v", obs.events)
	}
}

func TestGuard_CancelledContext(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.addMember("a", "w1", domain.RoleOwner)
	g := newTestGuard(s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grant, err := g.Check(ctx, "a", WorkspaceTarget("w1"), ModeAll, EditWorkspace)
	if grant != nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("Check on cancelled ctx = (%v, %v)", grant, err)
	}
	if s.workspaceCalls != 0 {
		t.Error("storage consulted after cancellation")
	}
}

func TestGuard_ObserverSeesAllowAndDeny(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.addMember("m", "w1", domain.RoleMember)
	obs := &recordingObserver{}
	g := newTestGuard(s, WithObserver(obs))
	ctx := context.Background()

	if _, err := g.Check(ctx, "m", WorkspaceTarget("w1"), ModeAll, CreateProject); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if ev := obs.last(); !ev.Allowed || ev.WorkspaceID != "w1" {
		t.Errorf("allow event = %+v", ev)
	}
	_, err := g.Check(ctx, "m", WorkspaceTarget("w1"), ModeAll, EditWorkspace)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if ev := obs.last(); ev.Allowed || ev.Code != CodeForbidden || ev.Reason != ReasonInsufficientRole {
		t.Errorf("deny event = %+v", ev)
	}
}

func TestGuard_LastOwner(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	owner := s.addMember("o", "w1", domain.RoleOwner)
	admin := s.addMember("ad", "w1", domain.RoleAdmin)
	g := newTestGuard(s)
	ctx := context.Background()

	ownerGrant, err := g.Check(ctx, "o", WorkspaceTarget("w1"), ModeAll, RemoveMember)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := g.CheckRemoval(ctx, ownerGrant, owner); !errors.Is(err, ErrLastOwnerViolation) {
		t.Errorf("self removal of sole owner: err = %v, want ErrLastOwnerViolation", err)
	}
	if err := g.CheckRoleChange(ctx, ownerGrant, owner, domain.RoleMember); !errors.Is(err, ErrLastOwnerViolation) {
		t.Errorf("self demotion of sole owner: err = %v, want ErrLastOwnerViolation", err)
	}
	if err := g.CheckRoleChange(ctx, ownerGrant, owner, domain.RoleOwner); err != nil {
		t.Errorf("owner to owner is a no-op: %v", err)
	}

	adminGrant, err := g.Check(ctx, "ad", WorkspaceTarget("w1"), ModeAll, RemoveMember)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if err := g.CheckRemoval(ctx, adminGrant, owner); CodeOf(err) != CodeLastOwnerViolation {
		t.Errorf("admin removing sole owner: err = %v, want last_owner_violation", err)
	}
	if err := g.CheckRemoval(ctx, ownerGrant, admin); err != nil {
		t.Errorf("owner removing admin: %v", err)
	}
}

func TestGuard_OwnerProtectionWithSecondOwner(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	o1 := s.addMember("o1", "w1", domain.RoleOwner)
	s.addMember("o2", "w1", domain.RoleOwner)
	s.addMember("ad", "w1", domain.RoleAdmin)
	g := newTestGuard(s)
	ctx := context.Background()

	adminGrant, _ := g.Check(ctx, "ad", WorkspaceTarget("w1"), ModeAll, ChangeMemberRole)
	err := g.CheckRoleChange(ctx, adminGrant, o1, domain.RoleMember)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin demoting owner: err = %v, want ErrForbidden", err)
	}
	var ae *Error
	if !errors.As(err, &ae) || ae.Reason != ReasonOwnerProtected {
		t.Errorf("reason = %v, want owner protected", ae)
	}

	ownerGrant, _ := g.Check(ctx, "o2", WorkspaceTarget("w1"), ModeAll, RemoveMember)
	if err := g.CheckRemoval(ctx, ownerGrant, o1); err != nil {
		t.Errorf("owner removing one of two owners: %v", err)
	}
}

func TestGuard_OwnerGrant(t *testing.T) {
	s := newMemStore()
	s.addWorkspace("w1")
	s.addMember("o", "w1", domain.RoleOwner)
	s.addMember("ad", "w1", domain.RoleAdmin)
	m := s.addMember("m", "w1", domain.RoleMember)
	ctx := context.Background()

	locked := newTestGuard(s)
	ownerGrant, _ := locked.Check(ctx, "o", WorkspaceTarget("w1"), ModeAll, ChangeMemberRole)
	if err := locked.CheckRoleChange(ctx, ownerGrant, m, domain.RoleOwner); !errors.Is(err, ErrOwnerGrantForbidden) || !errors.Is(err, ErrForbidden) {
		t.Errorf("owner transfer disabled: err = %v", err)
	}

	open := newTestGuard(s, WithOwnerTransfer(true))
	ownerGrant, _ = open.Check(ctx, "o", WorkspaceTarget("w1"), ModeAll, ChangeMemberRole)
	if err := open.CheckRoleChange(ctx, ownerGrant, m, domain.RoleOwner); err != nil {
		t.Errorf("owner transfer enabled: %v", err)
	}
	adminGrant, _ := open.Check(ctx, "ad", WorkspaceTarget("w1"), ModeAll, ChangeMemberRole)
	if err := open.CheckRoleChange(ctx, adminGrant, m, domain.RoleOwner); !errors.Is(err, ErrOwnerGrantForbidden) {
		t.Errorf("admin granting owner: err = %v", err)
	}
}

// TestGuard_WorkspaceLifecycleScenario walks the create/invite/promote/demote sequence end to end.
func TestGuard_WorkspaceLifecycleScenario(t *testing.T) {
	s := newMemStore()
	ctx := context.Background()
	g := newTestGuard(s)

	// U1 creates W and becomes its owner.
	s.addWorkspace("W")
	u1 := s.addMember("U1", "W", domain.RoleOwner)
	s.addProject("P", "W")

	// U1 invites U2 as member.
	if _, err := g.Check(ctx, "U1", WorkspaceTarget("W"), ModeAll, AddMember); err != nil {
		t.Fatalf("U1 add member: %v", err)
	}
	u2 := s.addMember("U2", "W", domain.RoleMember)

	// U2 cannot delete the project.
	if _, err := g.Check(ctx, "U2", ProjectTarget("P"), ModeAll, DeleteProject); !errors.Is(err, ErrForbidden) {
		t.Fatalf("member delete project: err = %v, want ErrForbidden", err)
	}

	// U1 promotes U2 to admin.
	grant, err := g.Check(ctx, "U1", WorkspaceTarget("W"), ModeAll, ChangeMemberRole)
	if err != nil {
		t.Fatalf("U1 change role: %v", err)
	}
	if err := g.CheckRoleChange(ctx, grant, u2, domain.RoleAdmin); err != nil {
		t.Fatalf("promote U2: %v", err)
	}
	u2.Role = domain.RoleAdmin

	// Same call now succeeds.
	if _, err := g.Check(ctx, "U2", ProjectTarget("P"), ModeAll, DeleteProject); err != nil {
		t.Fatalf("admin delete project: %v", err)
	}

	// Admin can never delete the workspace.
	if _, err := g.Check(ctx, "U2", WorkspaceTarget("W"), ModeAll, DeleteWorkspace); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admin delete workspace: err = %v, want ErrForbidden", err)
	}

	// U1, still the sole owner, cannot demote themself.
	if err := g.CheckRoleChange(ctx, grant, u1, domain.RoleMember); !errors.Is(err, ErrLastOwnerViolation) {
		t.Fatalf("sole owner self-demotion: err = %v, want ErrLastOwnerViolation", err)
	}

	// Owner deleting the workspace is the normal path.
	if _, err := g.Check(ctx, "U1", WorkspaceTarget("W"), ModeAll, DeleteWorkspace); err != nil {
		t.Fatalf("owner delete workspace: %v", err)
	}
}
