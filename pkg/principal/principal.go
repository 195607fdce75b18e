// Package principal carries the authenticated identity through request context.
package principal

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Global role tags. Team-level roles live on the membership row, not here.
const (
	RoleMember = "member"
	RoleOwner  = "owner"
	RoleSystem = "system"
)

// Principal is the resolved, non-deleted identity making a request. The
// session collaborator builds it; the core never authenticates.
type Principal struct {
	UserID snowflake.ID
	Email  string
	Role   string
}

// System returns the machine principal used by out-of-band collaborators
// (billing webhooks, schedulers). It has no user row.
func System() Principal {
	return Principal{Role: RoleSystem}
}

// IsSystem reports whether p is the machine principal.
func (p Principal) IsSystem() bool { return p.Role == RoleSystem }

// Valid reports whether p identifies anyone at all.
func (p Principal) Valid() bool { return p.IsSystem() || p.UserID != 0 }

type contextKey struct{}

// WithPrincipal stores p in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// FromContext returns the principal from context, if set.
func FromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(contextKey{}).(Principal)
	if !ok || !p.Valid() {
		return Principal{}, false
	}
	return p, true
}

// NormalizeRole lowercases and trims a role tag, defaulting to member.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return RoleMember
	}
	return role
}
