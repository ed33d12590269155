// ABOUTME: End-to-end tests for the development service through the API client
// ABOUTME: Covers auth, catalog filters, reading-list lifecycle and error bodies

package devserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markalston/bookshelf/internal/client"
)

func newTestServer(t *testing.T) (*httptest.Server, *client.Client) {
	t.Helper()
	srv, err := New(Options{JWTSecret: "test-secret"})
	if err != nil {
		t.Fatalf("unexpected error creating server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL)
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	return ts, c
}

func loginAs(t *testing.T, c *client.Client, email string) client.User {
	t.Helper()
	ctx := context.Background()
	if _, err := c.Register(ctx, client.RegisterRequest{Email: email, Password: "secret123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	resp, err := c.Login(ctx, email, "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	c.SetToken(resp.AccessToken)
	return resp.User
}

func TestRegisterAndLogin(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	u, err := c.Register(ctx, client.RegisterRequest{Email: "Reader@Example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.DisplayName != "reader" {
		t.Errorf("expected display name from email local part, got %q", u.DisplayName)
	}

	resp, err := c.Login(ctx, "reader@example.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Errorf("unexpected login response: %+v", resp)
	}
	if resp.User.UserID != u.UserID {
		t.Errorf("expected user %d, got %d", u.UserID, resp.User.UserID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	if _, err := c.Register(ctx, client.RegisterRequest{Email: "a@b.c", Password: "secret123"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := c.Login(ctx, "a@b.c", "nope")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if apiErr.Message != "Incorrect email or password" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	req := client.RegisterRequest{Email: "a@b.c", Password: "secret123"}
	if _, err := c.Register(ctx, req); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, err := c.Register(ctx, req)
	if err == nil || !strings.Contains(err.Error(), "Email already registered") {
		t.Errorf("expected duplicate email error, got %v", err)
	}
}

func TestRegister_ValidationDetail(t *testing.T) {
	_, c := newTestServer(t)
	_, err := c.Register(context.Background(), client.RegisterRequest{Email: "nope", Password: "x"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if !strings.Contains(apiErr.Message, "email") || !strings.Contains(apiErr.Message, "; ") {
		t.Errorf("expected both problems joined, got %q", apiErr.Message)
	}
}

func TestListBooks_Filters(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		query     client.BookQuery
		wantTotal int
	}{
		{name: "all", query: client.BookQuery{Limit: 50}, wantTotal: 12},
		{name: "title substring", query: client.BookQuery{Limit: 50, Title: "the"}, wantTotal: 6},
		{name: "authors are OR", query: client.BookQuery{Limit: 50, Authors: []string{"George Orwell", "Aldous Huxley"}}, wantTotal: 3},
		{name: "author AND genre", query: client.BookQuery{Limit: 50, Authors: []string{"George Orwell"}, Genres: []string{"Science Fiction"}}, wantTotal: 1},
		{name: "rating range", query: client.BookQuery{Limit: 50, MinRating: ptr(4.7)}, wantTotal: 4},
		{name: "max rating", query: client.BookQuery{Limit: 50, MaxRating: ptr(4.1)}, wantTotal: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := c.ListBooks(ctx, tt.query)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page.Total != tt.wantTotal {
				t.Errorf("expected total %d, got %d", tt.wantTotal, page.Total)
			}
			if len(page.Items) != tt.wantTotal {
				t.Errorf("expected %d items, got %d", tt.wantTotal, len(page.Items))
			}
		})
	}
}

func TestListBooks_PaginationEnvelope(t *testing.T) {
	_, c := newTestServer(t)
	page, err := c.ListBooks(context.Background(), client.BookQuery{Skip: 10, Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Page != 3 || page.Pages != 3 || page.Limit != 5 || page.Total != 12 {
		t.Errorf("unexpected envelope: %+v", page)
	}
	if len(page.Items) != 2 {
		t.Errorf("expected 2 items on the last page, got %d", len(page.Items))
	}
}

func TestListBooks_LimitTooLarge(t *testing.T) {
	_, c := newTestServer(t)
	_, err := c.ListBooks(context.Background(), client.BookQuery{Limit: 101})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
}

func TestGetBook(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	book, err := c.GetBook(ctx, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Title != "The Hobbit" || book.AuthorNames()[0] != "J.R.R. Tolkien" {
		t.Errorf("unexpected book: %+v", book)
	}

	_, err = c.GetBook(ctx, 999)
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSearchFacets(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	authors, err := c.SearchAuthors(ctx, "tol", 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(authors) != 1 || authors[0].Name != "J.R.R. Tolkien" {
		t.Errorf("expected Tolkien, got %+v", authors)
	}

	genres, err := c.SearchGenres(ctx, "fi", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(genres) != 2 {
		t.Errorf("expected limit to cap genres at 2, got %+v", genres)
	}
}

func TestReadingList_Lifecycle(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	u := loginAs(t, c, "reader@example.com")

	created, err := c.CreateReadingListEntry(ctx, u.UserID, client.NewReadingListEntry{BookID: 8, Status: "WANT"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Status != "WANT" || created.Book.Title != "The Hobbit" || created.AddedAt.IsZero() {
		t.Errorf("unexpected created entry: %+v", created)
	}

	_, err = c.CreateReadingListEntry(ctx, u.UserID, client.NewReadingListEntry{BookID: 8, Status: "WANT"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate, got %v", err)
	}
	if apiErr.Message != "Book already exists in the user's reading list" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}

	note := "slow start"
	updated, err := c.UpdateReadingListEntry(ctx, u.UserID, 8, client.ReadingListPatch{
		Status:        ptr("READING"),
		ProgressPages: client.Some(120),
		Note:          client.Some(note),
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != "READING" || *updated.ProgressPages != 120 || *updated.Note != note {
		t.Errorf("unexpected updated entry: %+v", updated)
	}

	// Absent fields stay, explicit null clears.
	cleared, err := c.UpdateReadingListEntry(ctx, u.UserID, 8, client.ReadingListPatch{Note: client.Null[string]()})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if cleared.Note != nil || cleared.ProgressPages == nil || *cleared.ProgressPages != 120 {
		t.Errorf("expected note cleared and progress kept, got %+v", cleared)
	}

	stats, err := c.ReadingStats(ctx, u.UserID)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalBooks != 1 || stats.StatusCounts["reading"] != 1 || stats.AverageRating != nil {
		t.Errorf("unexpected stats: %+v", stats)
	}

	if err := c.DeleteReadingListEntry(ctx, u.UserID, 8); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := c.GetReadingListEntry(ctx, u.UserID, 8); !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestReadingList_StatusFilter(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	u := loginAs(t, c, "reader@example.com")

	for id, status := range map[int]string{1: "WANT", 2: "READING", 3: "READING"} {
		if _, err := c.CreateReadingListEntry(ctx, u.UserID, client.NewReadingListEntry{BookID: id, Status: status}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	reading, err := c.ListReadingList(ctx, u.UserID, 100, "reading")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reading) != 2 {
		t.Errorf("expected 2 reading entries, got %d", len(reading))
	}

	_, err = c.ListReadingList(ctx, u.UserID, 100, "shelved")
	if err == nil || !strings.Contains(err.Error(), "Invalid status") {
		t.Errorf("expected invalid status error, got %v", err)
	}
}

func TestReadingList_UnknownBook(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()
	u := loginAs(t, c, "reader@example.com")

	_, err := c.CreateReadingListEntry(ctx, u.UserID, client.NewReadingListEntry{BookID: 404, Status: "WANT"})
	if !errors.Is(err, client.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestReadingList_RequiresToken(t *testing.T) {
	_, c := newTestServer(t)
	_, err := c.ListReadingList(context.Background(), 1, 100, "")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestReadingList_OtherUserForbidden(t *testing.T) {
	_, c := newTestServer(t)
	u := loginAs(t, c, "reader@example.com")

	_, err := c.ListReadingList(context.Background(), u.UserID+1, 100, "")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestUnknownRoute_JSONDetail(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected request ID header")
	}
}
