package authz

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/teamgate/teamgate/internal/observability/metrics"
	"github.com/teamgate/teamgate/pkg/principal"
)

// UserDirectory checks that a principal's user row exists and is not
// soft-deleted. Implemented by the user repository.
type UserDirectory interface {
	IsActive(ctx context.Context, id snowflake.ID) (bool, error)
}

type Params struct {
	fx.In

	Log      *zap.Logger
	Index    *Index
	Users    UserDirectory
	Enforcer *casbin.SyncedEnforcer
	Metrics  *metrics.Metrics `optional:"true"`
}

// Engine decides read and write access. Decisions are pure functions of the
// principal, the resource and the current membership state; absence of a
// grant is always a deny.
type Engine struct {
	log      *zap.Logger
	index    *Index
	users    UserDirectory
	enforcer *casbin.SyncedEnforcer
	metrics  *metrics.Metrics
}

func NewEngine(p Params) *Engine {
	return &Engine{
		log:      p.Log.Named("authz.engine"),
		index:    p.Index,
		users:    p.Users,
		enforcer: p.Enforcer,
		metrics:  p.Metrics,
	}
}

// Index exposes the membership index for callers that serialize mutations
// through it.
func (e *Engine) Index() *Index { return e.index }

// CanRead evaluates the row-visibility policy:
//   - a user row is visible to its own user only
//   - a team-scoped row is visible to members of that team
//   - soft-deleted principals see nothing
func (e *Engine) CanRead(ctx context.Context, p principal.Principal, res Resource) (bool, error) {
	allowed, err := e.canRead(ctx, p, res)
	if err != nil {
		return false, err
	}
	e.observe(res, allowed)
	return allowed, nil
}

func (e *Engine) canRead(ctx context.Context, p principal.Principal, res Resource) (bool, error) {
	if !p.Valid() {
		return false, nil
	}
	if p.IsSystem() {
		return true, nil
	}

	active, err := e.users.IsActive(ctx, p.UserID)
	if err != nil {
		return false, err
	}
	if !active {
		return false, nil
	}

	switch scoped := res.(type) {
	case UserScoped:
		return scoped.UserScope() == p.UserID, nil
	case TeamScoped:
		return e.index.IsMember(ctx, scoped.TeamScope(), p.UserID)
	default:
		return false, nil
	}
}

// CanWrite evaluates the write policy: self-service rules handled inline,
// role grants delegated to the enforcer, and anything without a grant denied.
func (e *Engine) CanWrite(ctx context.Context, p principal.Principal, res Resource, op Operation) (bool, error) {
	allowed, err := e.canWrite(ctx, p, res, op)
	if err != nil {
		return false, err
	}
	e.observe(res, allowed)
	return allowed, nil
}

func (e *Engine) canWrite(ctx context.Context, p principal.Principal, res Resource, op Operation) (bool, error) {
	if !p.Valid() {
		return false, nil
	}

	if p.IsSystem() {
		return e.enforce("system", "role:system", e.domain(res), res.ResourceKind(), op)
	}

	active, err := e.users.IsActive(ctx, p.UserID)
	if err != nil {
		return false, err
	}
	if !active {
		return false, nil
	}

	// Self-service rules: any active principal may found a team, and may
	// update or delete its own user row.
	if team, ok := res.(TeamScoped); ok && res.ResourceKind() == ObjectTeam && op == OpCreate && team.TeamScope() == 0 {
		return true, nil
	}
	if user, ok := res.(UserScoped); ok && res.ResourceKind() == ObjectUser {
		return user.UserScope() == p.UserID && op != OpCreate, nil
	}

	scoped, ok := res.(TeamScoped)
	if !ok {
		return false, nil
	}

	role, member, err := e.index.RoleOf(ctx, scoped.TeamScope(), p.UserID)
	if err != nil {
		return false, err
	}
	if !member {
		return false, nil
	}

	subject := fmt.Sprintf("user:%d", p.UserID)
	roleName := "role:" + principal.NormalizeRole(role)
	return e.enforce(subject, roleName, e.domain(res), res.ResourceKind(), op)
}

func (e *Engine) domain(res Resource) string {
	if scoped, ok := res.(TeamScoped); ok && scoped.TeamScope() != 0 {
		return fmt.Sprintf("team:%d", scoped.TeamScope())
	}
	return "global"
}

func (e *Engine) enforce(subject, roleName, domain, object string, op Operation) (bool, error) {
	if err := e.ensureGrouping(subject, roleName, domain); err != nil {
		return false, err
	}
	return e.enforcer.Enforce(subject, domain, object, string(op))
}

// ensureGrouping keeps exactly one subject->role mapping per domain, so a
// changed membership role takes effect on the next decision.
func (e *Engine) ensureGrouping(subject, roleName, domain string) error {
	existing, err := e.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		_, _ = e.enforcer.RemoveGroupingPolicy(params...)
	}

	has, err := e.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = e.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (e *Engine) observe(res Resource, allowed bool) {
	if e.metrics != nil {
		e.metrics.ObserveDecision(res.ResourceKind(), allowed)
	}
}
