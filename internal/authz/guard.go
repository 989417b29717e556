package authz

import (
	"context"
	"fmt"

	"workspace-tracker/internal/membership/domain"
)

// Grant is the explicit result of a successful guard check. Handlers receive it from the Guard and
// pass it into the mutation; nothing is attached to the request context.
type Grant struct {
	ActorID     string
	WorkspaceID string
	Target      Target
	Role        domain.Role
	Membership  *domain.Membership
	Permissions PermissionSet
}

// Can reports whether the grant's role holds p.
func (g *Grant) Can(p Permission) bool {
	return g != nil && g.Permissions.Has(p)
}

// OwnerLister returns the owner memberships of a workspace.
type OwnerLister interface {
	ListOwnersByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Membership, error)
}

// DecisionEvent describes one authorization outcome for logs and telemetry.
type DecisionEvent struct {
	ActorID     string
	WorkspaceID string
	Target      Target
	Mode        Mode
	Required    []Permission
	Allowed     bool
	Code        Code
	Reason      Reason
}

// Observer receives every authorization outcome. Implementations must not block the request.
type Observer interface {
	ObserveDecision(ctx context.Context, ev DecisionEvent)
}

type Option func(*Guard)

// WithObserver reports every decision to o.
func WithObserver(o Observer) Option {
	return func(g *Guard) { g.observer = o }
}

// WithOwnerTransfer allows owners to grant the owner role to other members. Disabled by default,
// in which case a workspace only ever has the owner it was created with.
func WithOwnerTransfer(allowed bool) Option {
	return func(g *Guard) { g.allowOwnerTransfer = allowed }
}

// Guard is the single enforcement point around protected operations.
type Guard struct {
	resolver           *Resolver
	chain              *Chain
	engine             *Engine
	owners             OwnerLister
	observer           Observer
	allowOwnerTransfer bool
}

// NewGuard wires the resolver, ownership chain, decision engine and owner lister together.
func NewGuard(resolver *Resolver, chain *Chain, engine *Engine, owners OwnerLister, opts ...Option) *Guard {
	g := &Guard{resolver: resolver, chain: chain, engine: engine, owners: owners}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Engine returns the decision engine.
func (g *Guard) Engine() *Engine {
	return g.engine
}

// Check authorizes actorID to perform an operation requiring required (combined by mode) on target.
// Project and task targets are first resolved to their root workspace; the actor's membership there
// is the only source of permissions. Returns a Grant on Allow; an *Error on any authorization
// failure; a wrapped storage error otherwise.
func (g *Guard) Check(ctx context.Context, actorID string, target Target, mode Mode, required ...Permission) (*Grant, error) {
	return g.check(ctx, actorID, target, mode, required, false)
}

// RequireMember authorizes any member of target's workspace regardless of role (read operations).
func (g *Guard) RequireMember(ctx context.Context, actorID string, target Target) (*Grant, error) {
	return g.check(ctx, actorID, target, ModeAny, nil, true)
}

func (g *Guard) check(ctx context.Context, actorID string, target Target, mode Mode, required []Permission, membershipOnly bool) (*Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ev := DecisionEvent{ActorID: actorID, Target: target, Mode: mode, Required: required}

	workspaceID, err := g.chain.WorkspaceOf(ctx, target)
	if err != nil {
		return nil, g.fail(ctx, ev, err)
	}
	ev.WorkspaceID = workspaceID

	m, err := g.resolver.Resolve(ctx, actorID, workspaceID)
	if err != nil {
		return nil, g.fail(ctx, ev, err)
	}

	if !membershipOnly {
		d := g.engine.Authorize(m, mode, required...)
		if !d.Allowed {
			ae := newError(CodeForbidden, ErrForbidden, actorID, workspaceID, target)
			ae.Reason = d.Reason
			ae.Missing = d.Missing
			return nil, g.fail(ctx, ev, ae)
		}
	}

	ev.Allowed = true
	g.observe(ctx, ev)
	return &Grant{
		ActorID:     actorID,
		WorkspaceID: workspaceID,
		Target:      target,
		Role:        m.Role,
		Membership:  m,
		Permissions: g.engine.Catalog().PermissionsFor(m.Role),
	}, nil
}

// CheckRemoval enforces the structural rules for removing subject from the grant's workspace:
// the only owner can never be removed (even by themself), and only owners may remove owners.
func (g *Guard) CheckRemoval(ctx context.Context, grant *Grant, subject *domain.Membership) error {
	if err := g.checkLastOwner(ctx, grant, subject); err != nil {
		return err
	}
	if subject.IsOwner() && grant.Role != domain.RoleOwner {
		return g.deny(ctx, grant, ReasonOwnerProtected, nil)
	}
	return nil
}

// CheckRoleChange enforces the structural rules for changing subject's role to newRole: demoting
// the only owner fails with ErrLastOwnerViolation; only owners may change an owner's role; granting
// owner requires an owner actor and owner transfer to be enabled.
func (g *Guard) CheckRoleChange(ctx context.Context, grant *Grant, subject *domain.Membership, newRole domain.Role) error {
	if subject.IsOwner() && newRole != domain.RoleOwner {
		if err := g.checkLastOwner(ctx, grant, subject); err != nil {
			return err
		}
	}
	if subject.IsOwner() && grant.Role != domain.RoleOwner {
		return g.deny(ctx, grant, ReasonOwnerProtected, nil)
	}
	if newRole == domain.RoleOwner && !subject.IsOwner() {
		return g.CheckOwnerGrant(ctx, grant)
	}
	return nil
}

// CheckOwnerGrant fails unless the grant's actor is an owner and owner transfer is enabled.
func (g *Guard) CheckOwnerGrant(ctx context.Context, grant *Grant) error {
	if !g.allowOwnerTransfer || grant.Role != domain.RoleOwner {
		return g.deny(ctx, grant, ReasonOwnerGrant, ErrOwnerGrantForbidden)
	}
	return nil
}

func (g *Guard) checkLastOwner(ctx context.Context, grant *Grant, subject *domain.Membership) error {
	if !subject.IsOwner() {
		return nil
	}
	owners, err := g.owners.ListOwnersByWorkspace(ctx, subject.WorkspaceID)
	if err != nil {
		return fmt.Errorf("list owners %s: %w", subject.WorkspaceID, err)
	}
	for _, o := range owners {
		if o.UserID != subject.UserID {
			return nil
		}
	}
	ae := newError(CodeLastOwnerViolation, ErrLastOwnerViolation, grant.ActorID, subject.WorkspaceID, grant.Target)
	g.observe(ctx, DecisionEvent{
		ActorID: grant.ActorID, WorkspaceID: subject.WorkspaceID, Target: grant.Target,
		Code: CodeLastOwnerViolation,
	})
	return ae
}

func (g *Guard) deny(ctx context.Context, grant *Grant, reason Reason, sentinel error) error {
	ae := Forbidden(grant, reason, sentinel)
	g.observe(ctx, DecisionEvent{
		ActorID: ae.ActorID, WorkspaceID: ae.WorkspaceID, Target: ae.Target,
		Code: CodeForbidden, Reason: reason,
	})
	return ae
}

// fail records authorization failures and passes storage errors through untouched.
func (g *Guard) fail(ctx context.Context, ev DecisionEvent, err error) error {
	code := CodeOf(err)
	if code == "" {
		return err
	}
	var reason Reason
	if ae, ok := err.(*Error); ok {
		if ae.ActorID == "" {
			ae.ActorID = ev.ActorID
		}
		if ae.WorkspaceID == "" {
			ae.WorkspaceID = ev.WorkspaceID
		}
		reason = ae.Reason
	}
	if code == CodeMembershipNotFound || code == CodeWorkspaceNotFound {
		reason = ReasonNoMembership
	}
	ev.Code = code
	ev.Reason = reason
	g.observe(ctx, ev)
	return err
}

func (g *Guard) observe(ctx context.Context, ev DecisionEvent) {
	if g.observer != nil {
		g.observer.ObserveDecision(ctx, ev)
	}
}
