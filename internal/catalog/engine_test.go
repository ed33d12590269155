// ABOUTME: Tests for the catalog query engine
// ABOUTME: Covers page resets, rating bounds, idempotent selection and stale results

package catalog

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/markalston/bookshelf/internal/client"
)

type fakeFetcher struct {
	mu      sync.Mutex
	queries []client.BookQuery
	page    *client.BookPage
	err     error
}

func (f *fakeFetcher) ListBooks(ctx context.Context, q client.BookQuery) (*client.BookPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func bookPage(total, pages int, titles ...string) *client.BookPage {
	p := &client.BookPage{Total: total, Pages: pages}
	for i, title := range titles {
		p.Items = append(p.Items, client.Book{BookID: i + 1, Title: title})
	}
	return p
}

// loadedEngine returns an engine sitting on page 3 of 20.
func loadedEngine(t *testing.T) (*Engine, *fakeFetcher) {
	t.Helper()
	f := &fakeFetcher{page: bookPage(1000, 20, "1984")}
	e := New(f, 50, nil)
	if err := e.Run(context.Background(), e.Refresh()); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	if err := e.Run(context.Background(), e.SetPage(3)); err != nil {
		t.Fatalf("page load: %v", err)
	}
	if e.Page().CurrentPage != 3 {
		t.Fatalf("expected page 3, got %d", e.Page().CurrentPage)
	}
	return e, f
}

func TestNew_Defaults(t *testing.T) {
	e := New(&fakeFetcher{}, 0, nil)
	if e.Page().PageSize != DefaultPageSize {
		t.Errorf("expected default page size %d, got %d", DefaultPageSize, e.Page().PageSize)
	}
	if e.Page().CurrentPage != 1 {
		t.Errorf("expected page 1, got %d", e.Page().CurrentPage)
	}
	if e.Filter().MaxRating != MaxRating {
		t.Errorf("expected max rating %v, got %v", MaxRating, e.Filter().MaxRating)
	}
}

func TestFilterChangesResetPage(t *testing.T) {
	tests := []struct {
		name   string
		intent func(e *Engine) *Query
	}{
		{"add author", func(e *Engine) *Query { return e.AddAuthor("George Orwell") }},
		{"add genre", func(e *Engine) *Query { return e.AddGenre("Fantasy") }},
		{"min rating", func(e *Engine) *Query { q, _ := e.SetMinRating(4); return q }},
		{"max rating", func(e *Engine) *Query { q, _ := e.SetMaxRating(4.5); return q }},
		{"submit", func(e *Engine) *Query { return e.Submit() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := loadedEngine(t)
			q := tt.intent(e)
			if q == nil {
				t.Fatal("expected a query")
			}
			if q.Page != 1 {
				t.Errorf("expected query for page 1, got %d", q.Page)
			}
			if q.BookQuery().Skip != 0 {
				t.Errorf("expected skip 0, got %d", q.BookQuery().Skip)
			}
		})
	}
}

func TestRemoveFilterResetsPage(t *testing.T) {
	e, _ := loadedEngine(t)
	e.Run(context.Background(), e.AddGenre("Fantasy"))
	e.Run(context.Background(), e.SetPage(4))

	q := e.RemoveGenre("Fantasy")
	if q == nil || q.Page != 1 {
		t.Fatalf("expected page-1 query, got %+v", q)
	}
	if e.RemoveGenre("Fantasy") != nil {
		t.Error("removing an absent genre should not query")
	}
}

func TestSetTitle_DoesNotQueryOrReset(t *testing.T) {
	e, f := loadedEngine(t)
	before := len(f.queries)

	e.SetTitle("hobbit")

	if e.Page().CurrentPage != 3 {
		t.Errorf("title edit reset page to %d", e.Page().CurrentPage)
	}
	if len(f.queries) != before {
		t.Error("title edit issued a query")
	}
	if e.Filter().Title != "hobbit" {
		t.Errorf("expected title hobbit, got %q", e.Filter().Title)
	}
}

func TestAddAuthor_Idempotent(t *testing.T) {
	e, _ := loadedEngine(t)
	if q := e.AddAuthor("George Orwell"); q == nil {
		t.Fatal("expected first selection to query")
	}
	if q := e.AddAuthor("George Orwell"); q != nil {
		t.Error("expected repeated selection to issue no query")
	}
	if got := e.Filter().Authors; len(got) != 1 {
		t.Errorf("expected one author, got %v", got)
	}
}

func TestRatingBounds_Rejected(t *testing.T) {
	e := New(&fakeFetcher{}, 50, nil)
	if _, err := e.SetMaxRating(3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q, err := e.SetMinRating(3.5)
	if !errors.Is(err, ErrInvalidRatingRange) {
		t.Errorf("expected ErrInvalidRatingRange, got %v", err)
	}
	if q != nil {
		t.Error("rejected bound should not query")
	}
	if e.Filter().MinRating != 0 {
		t.Errorf("rejected min applied: %v", e.Filter().MinRating)
	}

	if _, err := e.SetMinRating(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.SetMaxRating(1.5); !errors.Is(err, ErrInvalidRatingRange) {
		t.Errorf("expected max below min to be rejected, got %v", err)
	}
	if e.Filter().MaxRating != 3 {
		t.Errorf("rejected max applied: %v", e.Filter().MaxRating)
	}
	if _, err := e.SetMaxRating(5.5); !errors.Is(err, ErrInvalidRatingRange) {
		t.Errorf("expected max above 5 to be rejected, got %v", err)
	}
	if _, err := e.SetMinRating(-1); !errors.Is(err, ErrInvalidRatingRange) {
		t.Errorf("expected negative min to be rejected, got %v", err)
	}
}

func TestRatingBounds_NonFinite(t *testing.T) {
	tests := []struct {
		name     string
		min, max float64
	}{
		{"NaN min", math.NaN(), MaxRating},
		{"NaN max", 4, math.NaN()},
		{"infinite max", 0, math.Inf(1)},
		{"negative infinite min", math.Inf(-1), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeFetcher{}, 50, nil)
			q, err := e.SetFilter(FilterState{MinRating: tt.min, MaxRating: tt.max})
			if !errors.Is(err, ErrInvalidRatingRange) || q != nil {
				t.Errorf("expected ErrInvalidRatingRange and no query, got %v", err)
			}
			if f := e.Filter(); f.MinRating != 0 || f.MaxRating != MaxRating {
				t.Errorf("rejected bounds applied: %+v", f)
			}
		})
	}

	e := New(&fakeFetcher{}, 50, nil)
	if _, err := e.SetMinRating(math.NaN()); !errors.Is(err, ErrInvalidRatingRange) {
		t.Errorf("expected NaN min to be rejected, got %v", err)
	}
	if _, err := e.SetMaxRating(math.NaN()); !errors.Is(err, ErrInvalidRatingRange) {
		t.Errorf("expected NaN max to be rejected, got %v", err)
	}
}

func TestQueryParams(t *testing.T) {
	e := New(&fakeFetcher{}, 50, nil)
	e.SetTitle("  ring ")
	e.AddAuthor("J.R.R. Tolkien")
	e.AddGenre("Fantasy")
	e.AddGenre("Classics")
	q, _ := e.SetMinRating(4)

	params := q.Params()
	if params.Get("title") != "ring" {
		t.Errorf("expected trimmed title, got %q", params.Get("title"))
	}
	if params.Get("author") != "J.R.R. Tolkien" {
		t.Errorf("expected author param, got %v", params["author"])
	}
	if got := params["genre"]; len(got) != 2 || got[0] != "Fantasy" || got[1] != "Classics" {
		t.Errorf("expected repeated genres in order, got %v", got)
	}
	if params.Get("min_rating") != "4" {
		t.Errorf("expected min_rating 4, got %q", params.Get("min_rating"))
	}
	if _, ok := params["max_rating"]; ok {
		t.Error("max_rating 5 should be omitted")
	}
	if params.Get("limit") != "50" || params.Get("skip") != "0" {
		t.Errorf("unexpected skip/limit %v", params)
	}
}

func TestQueryParams_EmptyTitleOmitted(t *testing.T) {
	e := New(&fakeFetcher{}, 50, nil)
	e.SetTitle("   ")
	if _, ok := e.Submit().Params()["title"]; ok {
		t.Error("blank title should not be sent")
	}
}

func TestApply_StaleResultIgnored(t *testing.T) {
	e := New(&fakeFetcher{}, 50, nil)
	slow := e.AddAuthor("George Orwell")
	fast := e.AddAuthor("Aldous Huxley")

	if !e.Apply(Result{Generation: fast.Generation, Page: bookPage(1, 1, "Brave New World")}) {
		t.Fatal("expected latest result to apply")
	}
	if e.Apply(Result{Generation: slow.Generation, Page: bookPage(2, 1, "1984", "Animal Farm")}) {
		t.Error("expected superseded result to be discarded")
	}
	books := e.Books()
	if len(books) != 1 || books[0].Title != "Brave New World" {
		t.Errorf("stale result overwrote newer one: %+v", books)
	}
	if e.Loading() {
		t.Error("expected loading cleared after current result")
	}
}

func TestApply_FailureKeepsPreviousResults(t *testing.T) {
	e, f := loadedEngine(t)
	f.err = errors.New("boom")

	q := e.NextPage()
	if !e.Loading() {
		t.Error("expected loading while query outstanding")
	}
	if err := e.Run(context.Background(), q); err == nil {
		t.Fatal("expected error")
	}

	if len(e.Books()) != 1 || e.Books()[0].Title != "1984" {
		t.Errorf("expected previous books retained, got %+v", e.Books())
	}
	if e.Page().TotalItems != 1000 {
		t.Errorf("expected previous total retained, got %d", e.Page().TotalItems)
	}
	if e.LastError() == nil {
		t.Error("expected last error recorded")
	}
	if e.Loading() {
		t.Error("expected loading cleared after failure")
	}
}

func TestApply_FailedPageChangeRestoresShownPage(t *testing.T) {
	e, f := loadedEngine(t)
	f.err = errors.New("boom")

	if err := e.Run(context.Background(), e.SetPage(7)); err == nil {
		t.Fatal("expected error")
	}
	if got := e.Page().CurrentPage; got != 3 {
		t.Errorf("expected page 3 to match the books on screen, got %d", got)
	}
	if c := e.Controls(); c.Current != 3 {
		t.Errorf("expected controls on page 3, got %d", c.Current)
	}

	f.err = nil
	q := e.NextPage()
	if q == nil || q.Page != 4 {
		t.Fatalf("expected retry to request page 4, got %+v", q)
	}
}

func TestSetPage(t *testing.T) {
	e, _ := loadedEngine(t)

	if q := e.SetPage(3); q != nil {
		t.Error("same page should not query")
	}
	q := e.SetPage(99)
	if q == nil || q.Page != 20 {
		t.Fatalf("expected clamp to 20, got %+v", q)
	}
	if q.Filter.Active() {
		t.Error("page change altered filters")
	}
	if q.BookQuery().Skip != 19*50 {
		t.Errorf("expected skip %d, got %d", 19*50, q.BookQuery().Skip)
	}
	e.Run(context.Background(), q)
	if e.NextPage() != nil {
		t.Error("next on last page should not query")
	}
}

func TestPrevPage_AtFirstPage(t *testing.T) {
	e := New(&fakeFetcher{page: bookPage(10, 1, "a")}, 50, nil)
	e.Run(context.Background(), e.Refresh())
	if e.PrevPage() != nil {
		t.Error("prev on first page should not query")
	}
}

func TestApply_ClampsPageWhenResultsShrink(t *testing.T) {
	e, f := loadedEngine(t)
	f.page = bookPage(60, 2)
	e.Run(context.Background(), e.Refresh())
	if e.Page().CurrentPage != 2 {
		t.Errorf("expected page clamped to 2, got %d", e.Page().CurrentPage)
	}
}

func TestClearFilters(t *testing.T) {
	e, _ := loadedEngine(t)
	if e.ClearFilters() != nil {
		t.Error("clearing empty filters should not query")
	}
	e.AddGenre("Fantasy")
	e.SetMinRating(3)
	q := e.ClearFilters()
	if q == nil || q.Page != 1 {
		t.Fatalf("expected page-1 query, got %+v", q)
	}
	if e.Filter().Active() {
		t.Errorf("expected no active filters, got %+v", e.Filter())
	}
}

func TestSetFilter(t *testing.T) {
	e := New(&fakeFetcher{}, 50, nil)
	q, err := e.SetFilter(FilterState{
		Authors:   []string{"George Orwell", "George Orwell", " "},
		MinRating: 1,
		MaxRating: 4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Filter.Authors) != 1 {
		t.Errorf("expected duplicate and blank authors dropped, got %v", q.Filter.Authors)
	}
	if _, err := e.SetFilter(FilterState{MinRating: 4, MaxRating: 2}); !errors.Is(err, ErrInvalidRatingRange) {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestQueryFilterIsSnapshot(t *testing.T) {
	e := New(&fakeFetcher{}, 50, nil)
	q := e.AddAuthor("A")
	e.AddAuthor("B")
	if len(q.Filter.Authors) != 1 {
		t.Errorf("issued query mutated by later intent: %v", q.Filter.Authors)
	}
}
