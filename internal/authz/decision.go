package authz

import (
	"workspace-tracker/internal/membership/domain"
)

// Mode selects how multiple required permissions combine.
type Mode int

const (
	// ModeAll requires every listed permission.
	ModeAll Mode = iota
	// ModeAny requires at least one listed permission.
	ModeAny
)

func (m Mode) String() string {
	if m == ModeAny {
		return "any"
	}
	return "all"
}

// Reason explains a Deny.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonInsufficientRole means the role's permission set does not satisfy the requirement.
	ReasonInsufficientRole
	// ReasonNoMembership is propagated from membership resolution; the engine never re-derives it.
	ReasonNoMembership
	// ReasonEmptyRequirement means the caller asked for no permissions. Membership-only checks use
	// Guard.RequireMember instead.
	ReasonEmptyRequirement
	// ReasonOwnerProtected means an actor without the owner role tried to act on an owner membership.
	ReasonOwnerProtected
	// ReasonOwnerGrant means the owner role cannot be granted under the current configuration or by this actor.
	ReasonOwnerGrant
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInsufficientRole:
		return "insufficient role"
	case ReasonNoMembership:
		return "no membership"
	case ReasonEmptyRequirement:
		return "empty requirement"
	case ReasonOwnerProtected:
		return "owner membership protected"
	case ReasonOwnerGrant:
		return "owner role grant not permitted"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Engine.Authorize.
type Decision struct {
	Allowed bool
	// Reason is meaningful only when Allowed is false.
	Reason Reason
	// Missing lists required permissions absent from the role (ModeAll), or all of them (ModeAny).
	Missing []Permission
}

// Engine evaluates a resolved membership against required permissions. It holds only the immutable
// catalog, never suspends and keeps no per-request state.
type Engine struct {
	catalog *Catalog
}

// NewEngine returns an Engine backed by catalog. A nil catalog selects DefaultCatalog.
func NewEngine(catalog *Catalog) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Engine{catalog: catalog}
}

// Catalog returns the catalog the engine decides with.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Authorize decides whether m's role satisfies required under mode. The result depends only on
// (role, required, mode).
func (e *Engine) Authorize(m *domain.Membership, mode Mode, required ...Permission) Decision {
	if m == nil {
		return Decision{Reason: ReasonNoMembership, Missing: required}
	}
	if len(required) == 0 {
		return Decision{Reason: ReasonEmptyRequirement}
	}
	granted := e.catalog.PermissionsFor(m.Role)
	var missing []Permission
	for _, p := range required {
		if !granted.Has(p) {
			missing = append(missing, p)
		}
	}
	switch mode {
	case ModeAny:
		if len(missing) < len(required) {
			return Decision{Allowed: true}
		}
	default:
		if len(missing) == 0 {
			return Decision{Allowed: true}
		}
	}
	return Decision{Reason: ReasonInsufficientRole, Missing: missing}
}
