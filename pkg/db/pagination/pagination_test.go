package pagination

import (
	"fmt"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "123", CreatedAt: "2026-08-28T10:00:00Z"})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	cursor, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cursor.ID != "123" || cursor.CreatedAt != "2026-08-28T10:00:00Z" {
		t.Fatalf("unexpected cursor %+v", cursor)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	if _, err := DecodeCursor("not-base64!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
}

func TestBuildCursorPageInfo(t *testing.T) {
	extract := func(v *int) string { return fmt.Sprintf("cursor-%d", *v) }

	if info := BuildCursorPageInfo(nil, 10, extract); info.HasMore {
		t.Fatal("expected no more pages for empty set")
	}

	rows := []*int{ptr(1), ptr(2), ptr(3)}
	info := BuildCursorPageInfo(rows, 2, extract)
	if !info.HasMore {
		t.Fatal("expected more pages when limit+1 rows returned")
	}
	if info.NextPageToken != "cursor-2" {
		t.Fatalf("expected token for last visible row, got %q", info.NextPageToken)
	}

	info = BuildCursorPageInfo(rows, 3, extract)
	if info.HasMore {
		t.Fatal("expected no more pages when result fits the limit")
	}
}

func ptr(v int) *int { return &v }
