package authz

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
)

type fakeSource struct {
	mu    sync.Mutex
	roles map[string]string
	calls int
}

func (s *fakeSource) RoleOf(ctx context.Context, teamID, userID snowflake.ID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.roles[roleKey(teamID, userID)], nil
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestIndexCachesLookups(t *testing.T) {
	teamID := snowflake.ID(10)
	userID := snowflake.ID(20)
	source := &fakeSource{roles: map[string]string{roleKey(teamID, userID): "owner"}}
	index := NewIndex(source, time.Minute)

	for i := 0; i < 3; i++ {
		role, ok, err := index.RoleOf(context.Background(), teamID, userID)
		if err != nil {
			t.Fatalf("role lookup failed: %v", err)
		}
		if !ok || role != "owner" {
			t.Fatalf("expected owner membership, got role=%q ok=%v", role, ok)
		}
	}
	if got := source.callCount(); got != 1 {
		t.Fatalf("expected 1 source query, got %d", got)
	}
}

func TestIndexCachesAbsence(t *testing.T) {
	source := &fakeSource{roles: map[string]string{}}
	index := NewIndex(source, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := index.IsMember(context.Background(), 10, 20)
		if err != nil {
			t.Fatalf("membership check failed: %v", err)
		}
		if ok {
			t.Fatal("expected non-membership")
		}
	}
	if got := source.callCount(); got != 1 {
		t.Fatalf("expected 1 source query, got %d", got)
	}
}

func TestIndexZeroIDsAreNeverMembers(t *testing.T) {
	source := &fakeSource{roles: map[string]string{}}
	index := NewIndex(source, time.Minute)

	if ok, err := index.IsMember(context.Background(), 0, 20); err != nil || ok {
		t.Fatalf("expected no membership for zero team, got ok=%v err=%v", ok, err)
	}
	if ok, err := index.IsMember(context.Background(), 10, 0); err != nil || ok {
		t.Fatalf("expected no membership for zero user, got ok=%v err=%v", ok, err)
	}
	if got := source.callCount(); got != 0 {
		t.Fatalf("expected no source queries, got %d", got)
	}
}

func TestMutateInvalidatesTeamOnSuccess(t *testing.T) {
	teamID := snowflake.ID(10)
	userID := snowflake.ID(20)
	source := &fakeSource{roles: map[string]string{}}
	index := NewIndex(source, time.Minute)

	if ok, _ := index.IsMember(context.Background(), teamID, userID); ok {
		t.Fatal("expected non-membership before mutation")
	}

	err := index.Mutate(teamID, func() error {
		source.mu.Lock()
		source.roles[roleKey(teamID, userID)] = "member"
		source.mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("mutate failed: %v", err)
	}

	ok, err := index.IsMember(context.Background(), teamID, userID)
	if err != nil {
		t.Fatalf("membership check failed: %v", err)
	}
	if !ok {
		t.Fatal("expected membership visible after mutation")
	}
}

func TestMutateKeepsCacheOnFailure(t *testing.T) {
	teamID := snowflake.ID(10)
	userID := snowflake.ID(20)
	source := &fakeSource{roles: map[string]string{roleKey(teamID, userID): "member"}}
	index := NewIndex(source, time.Minute)

	if ok, _ := index.IsMember(context.Background(), teamID, userID); !ok {
		t.Fatal("expected membership")
	}

	wantErr := errors.New("boom")
	if err := index.Mutate(teamID, func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("expected mutation error to surface, got %v", err)
	}

	if _, _, err := index.RoleOf(context.Background(), teamID, userID); err != nil {
		t.Fatalf("role lookup failed: %v", err)
	}
	if got := source.callCount(); got != 1 {
		t.Fatalf("expected cached entry to survive failed mutation, got %d queries", got)
	}
}

func TestInvalidateUserDropsAllTeams(t *testing.T) {
	userID := snowflake.ID(20)
	source := &fakeSource{roles: map[string]string{
		roleKey(10, userID): "member",
		roleKey(11, userID): "owner",
	}}
	index := NewIndex(source, time.Minute)

	for _, teamID := range []snowflake.ID{10, 11} {
		if ok, _ := index.IsMember(context.Background(), teamID, userID); !ok {
			t.Fatalf("expected membership in team %d", teamID)
		}
	}

	index.InvalidateUser(userID)
	source.mu.Lock()
	delete(source.roles, roleKey(10, userID))
	delete(source.roles, roleKey(11, userID))
	source.mu.Unlock()

	for _, teamID := range []snowflake.ID{10, 11} {
		if ok, _ := index.IsMember(context.Background(), teamID, userID); ok {
			t.Fatalf("expected membership in team %d to be gone", teamID)
		}
	}
}

// gatedSource parks its first lookup so the test can interleave an
// invalidation with an in-flight query.
type gatedSource struct {
	mu      sync.Mutex
	role    string
	calls   int
	started chan struct{}
	release chan struct{}
}

func (s *gatedSource) RoleOf(ctx context.Context, teamID, userID snowflake.ID) (string, error) {
	s.mu.Lock()
	s.calls++
	first := s.calls == 1
	role := s.role
	s.mu.Unlock()

	if first {
		close(s.started)
		<-s.release
	}
	return role, nil
}

func (s *gatedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *gatedSource) setRole(role string) {
	s.mu.Lock()
	s.role = role
	s.mu.Unlock()
}

func TestLookupRacingInvalidationIsNotCached(t *testing.T) {
	teamID := snowflake.ID(10)
	userID := snowflake.ID(20)
	source := &gatedSource{role: "owner", started: make(chan struct{}), release: make(chan struct{})}
	index := NewIndex(source, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		role, ok, err := index.RoleOf(context.Background(), teamID, userID)
		if err != nil || !ok || role != "owner" {
			t.Errorf("unexpected in-flight lookup: role=%q ok=%v err=%v", role, ok, err)
		}
	}()

	// The role changes while the first lookup is parked inside the source.
	<-source.started
	source.setRole("member")
	index.InvalidateTeam(teamID)
	close(source.release)
	<-done

	// The raced result must not have been cached over the invalidation.
	role, ok, err := index.RoleOf(context.Background(), teamID, userID)
	if err != nil {
		t.Fatalf("role lookup failed: %v", err)
	}
	if !ok || role != "member" {
		t.Fatalf("expected post-mutation role, got role=%q ok=%v", role, ok)
	}
	if got := source.callCount(); got != 2 {
		t.Fatalf("expected a fresh source query after invalidation, got %d", got)
	}
}
