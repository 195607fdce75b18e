package store

import (
	"errors"
	"testing"

	userdomain "github.com/teamgate/teamgate/internal/user/domain"
	"github.com/teamgate/teamgate/pkg/apperr"
)

func TestCreateUserIsSystemOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	req := CreateUserRequest{
		Name:         "Carol",
		Email:        "carol@example.com",
		PasswordHash: "argon2id$test",
	}

	if _, err := f.store.CreateUser(f.ctxFor(alice), req); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden for regular user, got %v", err)
	}

	user, err := f.store.CreateUser(f.systemCtx(), req)
	if err != nil {
		t.Fatalf("system create user failed: %v", err)
	}
	if user.Email != "carol@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}

	// Email uniqueness surfaces as conflict.
	if _, err := f.store.CreateUser(f.systemCtx(), req); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}

func TestGetUserIsSelfOnly(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	if _, err := f.store.GetUser(f.ctxFor(alice), alice.ID); err != nil {
		t.Fatalf("self read failed: %v", err)
	}

	// Another user's row and a missing row answer identically.
	if _, err := f.store.GetUser(f.ctxFor(alice), bob.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden reading another user, got %v", err)
	}
	if _, err := f.store.GetUser(f.ctxFor(alice), f.node.Generate()); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden reading missing user, got %v", err)
	}
}

func TestUpdateUserIsSelfService(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")
	bob := f.createUser(t, "bob")

	if _, err := f.store.UpdateUser(f.ctxFor(alice), bob.ID, UpdateUserRequest{Name: "Hijacked"}); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden updating another user, got %v", err)
	}

	updated, err := f.store.UpdateUser(f.ctxFor(alice), alice.ID, UpdateUserRequest{Name: "Alice A."})
	if err != nil {
		t.Fatalf("self update failed: %v", err)
	}
	if updated.Name != "Alice A." {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}

	if _, err := f.store.UpdateUser(f.ctxFor(alice), alice.ID, UpdateUserRequest{Email: "not-an-email"}); !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("expected invalid for malformed email, got %v", err)
	}
}

func TestSoftDeletedUserReadsAsNotFound(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	if err := f.store.SoftDeleteUser(f.ctxFor(alice), alice.ID); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	// Even the system principal sees the tombstone, not the row.
	if _, err := f.store.GetUser(f.systemCtx(), alice.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for deleted user, got %v", err)
	}
}

func TestDuplicateEmailSurfacesEmailTaken(t *testing.T) {
	f := newFixture(t)
	alice := f.createUser(t, "alice")

	_, err := f.store.CreateUser(f.systemCtx(), CreateUserRequest{
		Name:         "Alice Again",
		Email:        alice.Email,
		PasswordHash: "argon2id$test",
	})
	if !errors.Is(err, apperr.ErrConflict) || !errors.Is(err, userdomain.ErrEmailTaken) {
		t.Fatalf("expected email_taken conflict, got %v", err)
	}
}
