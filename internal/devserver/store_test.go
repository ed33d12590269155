// ABOUTME: Tests for the in-memory development store
// ABOUTME: Covers seed integrity, stats aggregation and status normalization

package devserver

import (
	"testing"
	"time"
)

func TestSeedBooks_SharedAuthorIDs(t *testing.T) {
	books := SeedBooks()
	if len(books) != 12 {
		t.Fatalf("expected 12 books, got %d", len(books))
	}
	// 1984 and Animal Farm share an author.
	if books[1].Authors[0].ID != books[6].Authors[0].ID {
		t.Errorf("expected shared author id, got %d and %d", books[1].Authors[0].ID, books[6].Authors[0].ID)
	}
	store := NewStore(books)
	if got := len(store.Authors("", 100)); got != 11 {
		t.Errorf("expected 11 distinct authors, got %d", got)
	}
}

func TestStore_StatsAverageRating(t *testing.T) {
	store := NewStore(SeedBooks())
	u, err := store.CreateUser("a@b.c", "secret123", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	four, two := 4.0, 2.0
	store.AddEntry(u.UserID, 1, NewEntry{Status: "completed", UserRating: &four})
	store.AddEntry(u.UserID, 2, NewEntry{Status: "DROPPED", UserRating: &two})
	store.AddEntry(u.UserID, 3, NewEntry{Status: "want"})

	stats, err := store.Stats(u.UserID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalBooks != 3 {
		t.Errorf("expected 3 books, got %d", stats.TotalBooks)
	}
	if stats.AverageRating == nil || *stats.AverageRating != 3 {
		t.Errorf("expected average 3, got %v", stats.AverageRating)
	}
	want := map[string]int{"want": 1, "reading": 0, "completed": 1, "dropped": 1}
	for k, v := range want {
		if stats.StatusCounts[k] != v {
			t.Errorf("status %s: expected %d, got %d", k, v, stats.StatusCounts[k])
		}
	}
}

func TestStore_ListEntriesNewestFirst(t *testing.T) {
	store := NewStore(SeedBooks())
	u, _ := store.CreateUser("a@b.c", "secret123", "")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []int{5, 9} {
		at := base.Add(time.Duration(i) * time.Hour)
		store.now = func() time.Time { return at }
		if _, err := store.AddEntry(u.UserID, id, NewEntry{Status: "WANT"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, err := store.ListEntries(u.UserID, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].BookID != 9 {
		t.Errorf("expected newest entry first, got %+v", entries)
	}
}

func TestStore_InvalidStatus(t *testing.T) {
	store := NewStore(SeedBooks())
	u, _ := store.CreateUser("a@b.c", "secret123", "")
	if _, err := store.AddEntry(u.UserID, 1, NewEntry{Status: "shelved"}); err != ErrInvalidStatus {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}
