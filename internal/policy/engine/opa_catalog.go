// Package engine authors the role→permission catalog in Rego and evaluates it with OPA into an
// immutable authz.Catalog. Evaluation happens once at startup; requests never touch OPA.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"workspace-tracker/internal/authz"
	membershipdomain "workspace-tracker/internal/membership/domain"
)

const grantsQuery = "data.tracker.roles.grants"

// DefaultRegoPolicy is the built-in catalog. It grants exactly what authz.DefaultGrants does.
const DefaultRegoPolicy = `package tracker.roles

all_permissions := {
	"workspace.create",
	"workspace.delete",
	"workspace.edit",
	"workspace.manage_settings",
	"member.add",
	"member.change_role",
	"member.remove",
	"project.create",
	"project.edit",
	"project.delete",
	"task.create",
	"task.edit",
	"task.delete",
	"task.assign",
}

owner_only := {"workspace.delete"}

grants := {
	"owner": all_permissions,
	"admin": all_permissions - owner_only,
	"member": {
		"workspace.create",
		"project.create",
		"task.create",
		"task.edit",
		"task.assign",
	},
}
`

// ErrNoGrants is returned when the policy does not define data.tracker.roles.grants.
var ErrNoGrants = errors.New("policy defines no tracker.roles grants")

// CatalogLoader compiles a Rego role policy and turns its grants into an authz.Catalog.
type CatalogLoader struct {
	name   string
	policy string
}

// NewCatalogLoader returns a loader for the Rego file at policyFile, or for DefaultRegoPolicy when
// policyFile is empty.
func NewCatalogLoader(policyFile string) (*CatalogLoader, error) {
	if policyFile == "" {
		return &CatalogLoader{name: "roles.rego", policy: DefaultRegoPolicy}, nil
	}
	b, err := os.ReadFile(policyFile)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return &CatalogLoader{name: policyFile, policy: string(b)}, nil
}

// NewCatalogLoaderFromSource returns a loader over an in-memory Rego module.
func NewCatalogLoaderFromSource(name, policy string) *CatalogLoader {
	return &CatalogLoader{name: name, policy: policy}
}

// Load compiles and evaluates the policy and validates the resulting catalog.
func (l *CatalogLoader) Load(ctx context.Context) (*authz.Catalog, error) {
	compiler, err := ast.CompileModules(map[string]string{l.name: l.policy})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	rs, err := rego.New(
		rego.Query(grantsQuery),
		rego.Compiler(compiler),
	).Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, ErrNoGrants
	}
	grants, err := toGrants(rs[0].Expressions[0].Value)
	if err != nil {
		return nil, err
	}
	return authz.NewCatalog(grants)
}

// HealthCheck verifies that the policy still compiles and yields a valid catalog.
// It does not touch the database.
func (l *CatalogLoader) HealthCheck(ctx context.Context) error {
	_, err := l.Load(ctx)
	return err
}

func toGrants(v interface{}) (map[membershipdomain.Role][]authz.Permission, error) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: grants must be an object, got %T", authz.ErrInvalidCatalog, v)
	}
	roles := make([]string, 0, len(obj))
	for r := range obj {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	out := make(map[membershipdomain.Role][]authz.Permission, len(obj))
	for _, r := range roles {
		role, err := membershipdomain.ParseRole(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", authz.ErrInvalidCatalog, err)
		}
		names, ok := obj[r].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: role %s: permissions must be a set, got %T", authz.ErrInvalidCatalog, role, obj[r])
		}
		perms := make([]authz.Permission, 0, len(names))
		for _, n := range names {
			s, ok := n.(string)
			if !ok {
				return nil, fmt.Errorf("%w: role %s: permission must be a string, got %T", authz.ErrInvalidCatalog, role, n)
			}
			p, err := authz.ParsePermission(s)
			if err != nil {
				return nil, fmt.Errorf("%w: role %s: %v", authz.ErrInvalidCatalog, role, err)
			}
			perms = append(perms, p)
		}
		out[role] = perms
	}
	return out, nil
}
