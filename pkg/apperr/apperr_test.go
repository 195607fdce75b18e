package apperr

import (
	"errors"
	"testing"
)

func TestErrorMatchesKind(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := E(ErrUnavailable, "store.GetTeam", cause)

	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected error to match its kind, got %v", err)
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatal("expected error not to match other kinds")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected the cause to stay reachable through Unwrap")
	}
}

func TestKindExtraction(t *testing.T) {
	if got := Kind(E(ErrConflict, "op", nil)); got != ErrConflict {
		t.Fatalf("expected conflict kind, got %v", got)
	}
	if got := Kind(errors.New("plain")); got != nil {
		t.Fatalf("expected nil kind for plain error, got %v", got)
	}
	if got := Kind(nil); got != nil {
		t.Fatalf("expected nil kind for nil error, got %v", got)
	}
}

func TestErrorTextIncludesOp(t *testing.T) {
	err := E(ErrNotFound, "store.GetUser", nil)
	if err.Error() != "store.GetUser: not_found" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}
