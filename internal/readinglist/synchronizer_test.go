// ABOUTME: Tests for the reading-list synchronizer
// ABOUTME: Uses an in-memory service to check confirm-then-reflect behavior

package readinglist

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/markalston/bookshelf/internal/client"
)

type call struct {
	method string
	bookID int
}

type memoryService struct {
	entries map[int]client.ReadingListEntry
	books   map[int]client.Book
	calls   []call
	patches []client.ReadingListPatch
	failAll error

	afterCreate func()
}

func newMemoryService() *memoryService {
	pages := 300
	return &memoryService{
		entries: map[int]client.ReadingListEntry{},
		books: map[int]client.Book{
			5: {BookID: 5, Title: "The Hobbit", PageCount: &pages},
			8: {BookID: 8, Title: "Dune"},
		},
	}
}

func (m *memoryService) ListReadingList(ctx context.Context, userID, limit int, status string) ([]client.ReadingListEntry, error) {
	m.calls = append(m.calls, call{"list", 0})
	if m.failAll != nil {
		return nil, m.failAll
	}
	var out []client.ReadingListEntry
	for _, e := range m.entries {
		if status == "" || strings.EqualFold(e.Status, status) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryService) GetReadingListEntry(ctx context.Context, userID, bookID int) (*client.ReadingListEntry, error) {
	m.calls = append(m.calls, call{"get", bookID})
	if m.failAll != nil {
		return nil, m.failAll
	}
	e, ok := m.entries[bookID]
	if !ok {
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "not in list"}
	}
	return &e, nil
}

func (m *memoryService) CreateReadingListEntry(ctx context.Context, userID int, in client.NewReadingListEntry) (*client.ReadingListEntry, error) {
	m.calls = append(m.calls, call{"create", in.BookID})
	if m.failAll != nil {
		return nil, m.failAll
	}
	if _, dup := m.entries[in.BookID]; dup {
		return nil, &client.APIError{StatusCode: http.StatusBadRequest, Message: "Book already exists in the user's reading list"}
	}
	e := client.ReadingListEntry{UserID: userID, BookID: in.BookID, Status: in.Status, Book: m.books[in.BookID]}
	m.entries[in.BookID] = e
	if m.afterCreate != nil {
		m.afterCreate()
	}
	return &e, nil
}

func (m *memoryService) UpdateReadingListEntry(ctx context.Context, userID, bookID int, p client.ReadingListPatch) (*client.ReadingListEntry, error) {
	m.calls = append(m.calls, call{"update", bookID})
	m.patches = append(m.patches, p)
	if m.failAll != nil {
		return nil, m.failAll
	}
	e, ok := m.entries[bookID]
	if !ok {
		return nil, &client.APIError{StatusCode: http.StatusNotFound}
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.ProgressPages.Set {
		e.ProgressPages = p.ProgressPages.Value
	}
	if p.UserRating.Set {
		e.UserRating = p.UserRating.Value
	}
	if p.Note.Set {
		e.Note = p.Note.Value
	}
	m.entries[bookID] = e
	return &e, nil
}

func (m *memoryService) DeleteReadingListEntry(ctx context.Context, userID, bookID int) error {
	m.calls = append(m.calls, call{"delete", bookID})
	if m.failAll != nil {
		return m.failAll
	}
	delete(m.entries, bookID)
	return nil
}

func (m *memoryService) ReadingStats(ctx context.Context, userID int) (*client.ReadingStats, error) {
	return &client.ReadingStats{TotalBooks: len(m.entries)}, nil
}

func (m *memoryService) count(method string) int {
	n := 0
	for _, c := range m.calls {
		if c.method == method {
			n++
		}
	}
	return n
}

func TestAddThenLookup_RoundTrip(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()

	added, err := s.Add(ctx, 1, 5, Reading)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.entries[5].Status != "READING" {
		t.Errorf("expected uppercase wire status, got %q", svc.entries[5].Status)
	}
	if added.Status != Reading {
		t.Errorf("expected canonical status, got %q", added.Status)
	}

	got, err := s.Lookup(ctx, 1, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Status != Reading {
		t.Errorf("expected reading entry, got %+v", got)
	}
	if len(s.Entries()) != 1 {
		t.Errorf("expected one entry in collection, got %d", len(s.Entries()))
	}
}

func TestAdd_SendsNullFields(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	e, err := s.Add(context.Background(), 1, 8, Want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ProgressPages != nil || e.UserRating != nil || e.Note != nil {
		t.Errorf("expected null fields, got %+v", e)
	}
	if s.Current() == nil || s.Current().BookID != 8 {
		t.Error("expected added entry to become current")
	}
}

func TestWireStatus_CanonicalForAliases(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()

	if _, err := s.Add(ctx, 1, 5, Status("Currently Reading")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := svc.entries[5].Status; got != "READING" {
		t.Errorf("expected READING on the wire, got %q", got)
	}

	label := Status("Want to Read")
	if _, err := s.Update(ctx, 1, 5, Patch{Status: &label}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent := svc.patches[0].Status; sent == nil || *sent != "WANT" {
		t.Errorf("expected WANT on the wire, got %v", sent)
	}
	if label != "Want to Read" {
		t.Error("expected the caller's patch left untouched")
	}
}

func TestAdd_AlreadyListedSkipsRequest(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()
	s.Add(ctx, 1, 5, Want)

	if _, err := s.Add(ctx, 1, 5, Want); !errors.Is(err, ErrAlreadyListed) {
		t.Errorf("expected ErrAlreadyListed, got %v", err)
	}
	if svc.count("create") != 1 {
		t.Errorf("expected a single create call, got %d", svc.count("create"))
	}
}

func TestAdd_NoDuplicateAfterConcurrentLoad(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()

	// A load lands while the create request is in flight.
	svc.afterCreate = func() {
		if err := s.Load(ctx, 1); err != nil {
			t.Errorf("load: %v", err)
		}
	}
	if _, err := s.Add(ctx, 1, 5, Want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(s.Entries()); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}

func TestLookup_NotFoundClearsCurrent(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()
	s.Add(ctx, 1, 5, Want)

	got, err := s.Lookup(ctx, 1, 8)
	if err != nil {
		t.Fatalf("not-found should not be an error: %v", err)
	}
	if got != nil || s.Current() != nil {
		t.Error("expected current entry cleared")
	}
}

func TestLookup_OtherErrorsKeepCurrent(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()
	s.Add(ctx, 1, 5, Want)

	svc.failAll = errors.New("connection refused")
	if _, err := s.Lookup(ctx, 1, 5); err == nil {
		t.Fatal("expected transport error")
	}
	if s.Current() == nil {
		t.Error("transport failure should not clear current entry")
	}
}

func TestLoad_NormalizesStatus(t *testing.T) {
	svc := newMemoryService()
	svc.entries[5] = client.ReadingListEntry{UserID: 1, BookID: 5, Status: "COMPLETED"}
	svc.entries[8] = client.ReadingListEntry{UserID: 1, BookID: 8, Status: "dropped"}
	s := New(svc, 0, nil)

	if err := s.Load(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e5, _ := s.Find(5)
	e8, _ := s.Find(8)
	if e5.Status != Completed || e8.Status != Dropped {
		t.Errorf("expected normalized statuses, got %q %q", e5.Status, e8.Status)
	}
	sum := s.Summary()
	if sum.Total != 2 || sum.ByStatus[Completed] != 1 || sum.ByStatus[Want] != 0 {
		t.Errorf("unexpected summary %+v", sum)
	}
}

func TestLoad_FailureKeepsCollection(t *testing.T) {
	svc := newMemoryService()
	svc.entries[5] = client.ReadingListEntry{UserID: 1, BookID: 5, Status: "WANT"}
	s := New(svc, 0, nil)
	s.Load(context.Background(), 1)

	svc.failAll = errors.New("boom")
	if err := s.Load(context.Background(), 1); err == nil {
		t.Fatal("expected error")
	}
	if len(s.Entries()) != 1 {
		t.Error("failed load should keep previous collection")
	}
}

func TestUpdate_ProgressScenario(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()
	s.Add(ctx, 1, 5, Reading)

	e, err := s.Update(ctx, 1, 5, Patch{ProgressPages: client.Some(120)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ProgressPages == nil || *e.ProgressPages != 120 {
		t.Fatalf("expected progress 120, got %v", e.ProgressPages)
	}
	if r := e.ProgressRatio(); r != 0.4 {
		t.Errorf("expected ratio 0.4, got %v", r)
	}
	if cur := s.Current(); cur == nil || *cur.ProgressPages != 120 {
		t.Error("expected current entry replaced")
	}
	if member, _ := s.Find(5); member.ProgressPages == nil || *member.ProgressPages != 120 {
		t.Error("expected collection member replaced")
	}

	sent := svc.patches[0]
	if sent.Status != nil || sent.UserRating.Set || sent.Note.Set {
		t.Errorf("expected only progress in patch, got %+v", sent)
	}
}

func TestUpdate_FieldMapping(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()
	s.Add(ctx, 1, 5, Want)

	done := Completed
	neg := -10
	blank := "  "
	_, err := s.Update(ctx, 1, 5, Patch{
		Status:        &done,
		ProgressPages: client.FromPtr(&neg),
		UserRating:    client.Some(4),
		Note:          client.FromPtr(&blank),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent := svc.patches[0]
	if sent.Status == nil || *sent.Status != "COMPLETED" {
		t.Errorf("expected uppercase status, got %v", sent.Status)
	}
	if *sent.ProgressPages.Value != 0 {
		t.Errorf("expected negative progress clamped to 0, got %d", *sent.ProgressPages.Value)
	}
	if *sent.UserRating.Value != 4.0 {
		t.Errorf("expected rating 4, got %v", *sent.UserRating.Value)
	}
	if !sent.Note.Set || sent.Note.Value != nil {
		t.Errorf("expected blank note sent as null, got %+v", sent.Note)
	}
	if e, _ := s.Find(5); e.UserRating == nil || *e.UserRating != 4 {
		t.Errorf("expected rating 4 reflected, got %v", e.UserRating)
	}
}

func TestUpdate_FailureLeavesStateUnchanged(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()
	s.Add(ctx, 1, 5, Want)

	svc.failAll = errors.New("boom")
	if _, err := s.Update(ctx, 1, 5, Patch{ProgressPages: client.Some(50)}); err == nil {
		t.Fatal("expected error")
	}
	if s.Current().ProgressPages != nil {
		t.Error("failed update modified current entry")
	}
}

func TestUpdate_Validation(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	if _, err := s.Update(context.Background(), 1, 5, Patch{}); !errors.Is(err, ErrEmptyPatch) {
		t.Errorf("expected ErrEmptyPatch, got %v", err)
	}
	if _, err := s.Update(context.Background(), 1, 5, Patch{UserRating: client.Some(6)}); !errors.Is(err, ErrInvalidRating) {
		t.Errorf("expected ErrInvalidRating, got %v", err)
	}
	if svc.count("update") != 0 {
		t.Error("invalid patches must not reach the service")
	}
}

func TestRemove_RequiresConfirmation(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()
	s.Add(ctx, 1, 5, Want)

	if err := s.Remove(ctx, 1, 5, false); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
	if svc.count("delete") != 0 {
		t.Fatal("delete endpoint called without confirmation")
	}

	if err := s.Remove(ctx, 1, 5, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.count("delete") != 1 {
		t.Errorf("expected one delete call, got %d", svc.count("delete"))
	}
	if s.Current() != nil {
		t.Error("expected current entry cleared")
	}
	if _, ok := s.Find(5); ok {
		t.Error("expected entry removed from collection")
	}
}

func TestRemove_FailureKeepsEntry(t *testing.T) {
	svc := newMemoryService()
	s := New(svc, 0, nil)
	ctx := context.Background()
	s.Add(ctx, 1, 5, Want)

	svc.failAll = errors.New("boom")
	if err := s.Remove(ctx, 1, 5, true); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := s.Find(5); !ok || s.Current() == nil {
		t.Error("failed removal changed local state")
	}
}
