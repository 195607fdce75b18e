package authz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/teamgate/teamgate/internal/cache"
)

// MembershipSource answers role lookups from the team_members table.
// Implemented by the team repository.
type MembershipSource interface {
	RoleOf(ctx context.Context, teamID, userID snowflake.ID) (string, error)
}

// Index answers "is P a member of T, with what role" in O(1) amortized. It
// caches lookups with a short TTL and serializes membership mutations per
// team so readers see either the pre- or post-mutation state, never a torn
// intermediate.
type Index struct {
	source MembershipSource
	roles  cache.Cache[string, string]
	ttl    time.Duration
	locks  sync.Map // snowflake.ID -> *sync.Mutex
	gens   sync.Map // snowflake.ID -> *atomic.Uint64
}

// NewIndex builds an index over source. ttl bounds staleness between an
// out-of-band membership change and its visibility here; mutations routed
// through Mutate invalidate immediately.
func NewIndex(source MembershipSource, ttl time.Duration) *Index {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Index{
		source: source,
		roles:  cache.NewTTLCache[string, string](),
		ttl:    ttl,
	}
}

// RoleOf returns the membership role, or ok=false when the pair is absent.
func (i *Index) RoleOf(ctx context.Context, teamID, userID snowflake.ID) (string, bool, error) {
	if teamID == 0 || userID == 0 {
		return "", false, nil
	}

	key := roleKey(teamID, userID)
	if role, ok := i.roles.Get(key); ok {
		return role, role != "", nil
	}

	gen := i.generation(teamID)
	before := gen.Load()
	role, err := i.source.RoleOf(ctx, teamID, userID)
	if err != nil {
		return "", false, err
	}
	// Absence is cached too: a non-member stays denied without a query per
	// check, and Mutate invalidates when the membership appears. A lookup
	// that raced an invalidation may have read the pre-mutation role, so it
	// is answered but never cached.
	if gen.Load() == before {
		i.roles.Set(key, role, i.ttl)
	}
	return role, role != "", nil
}

// IsMember reports membership regardless of role.
func (i *Index) IsMember(ctx context.Context, teamID, userID snowflake.ID) (bool, error) {
	_, ok, err := i.RoleOf(ctx, teamID, userID)
	return ok, err
}

// Mutate serializes fn against other membership mutations for the same team
// and drops the team's cached roles once fn succeeds. fn runs the storage
// transaction; the lock only orders writers, readers are never blocked.
func (i *Index) Mutate(teamID snowflake.ID, fn func() error) error {
	lock := i.teamLock(teamID)
	lock.Lock()
	defer lock.Unlock()

	if err := fn(); err != nil {
		return err
	}
	i.InvalidateTeam(teamID)
	return nil
}

// InvalidateTeam drops every cached role for the team and bumps the team's
// generation so in-flight lookups cannot re-cache the pre-mutation role.
func (i *Index) InvalidateTeam(teamID snowflake.ID) {
	i.generation(teamID).Add(1)
	prefix := fmt.Sprintf("%d/", teamID)
	i.roles.DeleteFunc(func(key string) bool {
		return len(key) > len(prefix) && key[:len(prefix)] == prefix
	})
}

// InvalidateUser drops cached roles for the user across all teams, used when
// a user is soft-deleted.
func (i *Index) InvalidateUser(userID snowflake.ID) {
	i.gens.Range(func(_, value any) bool {
		value.(*atomic.Uint64).Add(1)
		return true
	})
	suffix := fmt.Sprintf("/%d", userID)
	i.roles.DeleteFunc(func(key string) bool {
		return len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix
	})
}

func (i *Index) generation(teamID snowflake.ID) *atomic.Uint64 {
	actual, _ := i.gens.LoadOrStore(teamID, new(atomic.Uint64))
	return actual.(*atomic.Uint64)
}

func (i *Index) teamLock(teamID snowflake.ID) *sync.Mutex {
	actual, _ := i.locks.LoadOrStore(teamID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

func roleKey(teamID, userID snowflake.ID) string {
	return fmt.Sprintf("%d/%d", teamID, userID)
}
