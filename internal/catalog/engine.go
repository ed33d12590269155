// ABOUTME: Catalog query engine: turns filter and page intents into book queries
// ABOUTME: Results are applied last-request-wins by generation

package catalog

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/pagination"
	"go.uber.org/zap"
)

// DefaultPageSize is the number of books per page.
const DefaultPageSize = 50

// Fetcher runs a catalog search. *client.Client satisfies it.
type Fetcher interface {
	ListBooks(ctx context.Context, q client.BookQuery) (*client.BookPage, error)
}

// Query is one issued search. Generation orders queries by issue time.
type Query struct {
	Generation uint64
	Filter     FilterState
	Page       int
	PageSize   int
}

// BookQuery maps the query onto request parameters. Rating bounds are sent
// only when they narrow the 0..5 range.
func (q Query) BookQuery() client.BookQuery {
	bq := client.BookQuery{
		Skip:    (q.Page - 1) * q.PageSize,
		Limit:   q.PageSize,
		Title:   strings.TrimSpace(q.Filter.Title),
		Authors: q.Filter.Authors,
		Genres:  q.Filter.Genres,
	}
	if q.Filter.MinRating > 0 {
		v := q.Filter.MinRating
		bq.MinRating = &v
	}
	if q.Filter.MaxRating < MaxRating {
		v := q.Filter.MaxRating
		bq.MaxRating = &v
	}
	return bq
}

// Params is the encoded query string for the search.
func (q Query) Params() url.Values {
	return q.BookQuery().Values()
}

// Result is the outcome of running a Query.
type Result struct {
	Generation uint64
	Page       *client.BookPage
	Err        error
}

// Engine owns the catalog filter, page and result state.
type Engine struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu      sync.Mutex
	filter  FilterState
	page    PageState
	books   []client.Book
	shown   int // page the held books belong to
	loading bool
	lastErr error
	gen     uint64
}

// New creates an engine on page 1 with no filters.
func New(fetcher Fetcher, pageSize int, logger *zap.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		fetcher: fetcher,
		logger:  logger.Named("catalog"),
		filter:  DefaultFilter(),
		page:    PageState{CurrentPage: 1, PageSize: pageSize},
		shown:   1,
	}
}

// issue starts a new generation. Callers hold e.mu.
func (e *Engine) issue() *Query {
	e.gen++
	e.loading = true
	return &Query{
		Generation: e.gen,
		Filter:     e.filter.clone(),
		Page:       e.page.CurrentPage,
		PageSize:   e.page.PageSize,
	}
}

// resetAndIssue moves to page 1 and issues. Callers hold e.mu.
func (e *Engine) resetAndIssue() *Query {
	e.page.CurrentPage = 1
	return e.issue()
}

// SetTitle edits the title text without searching.
func (e *Engine) SetTitle(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter.Title = text
}

// Submit searches with the current title text from page 1.
func (e *Engine) Submit() *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetAndIssue()
}

// Refresh re-issues the current search unchanged.
func (e *Engine) Refresh() *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.issue()
}

// AddAuthor selects an author. Selecting an already-selected name is a no-op.
func (e *Engine) AddAuthor(name string) *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" || e.filter.HasAuthor(name) {
		return nil
	}
	e.filter.Authors = append(e.filter.Authors, name)
	return e.resetAndIssue()
}

// RemoveAuthor deselects an author.
func (e *Engine) RemoveAuthor(name string) *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	var removed bool
	if e.filter.Authors, removed = without(e.filter.Authors, name); !removed {
		return nil
	}
	return e.resetAndIssue()
}

// AddGenre selects a genre. Selecting an already-selected name is a no-op.
func (e *Engine) AddGenre(name string) *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" || e.filter.HasGenre(name) {
		return nil
	}
	e.filter.Genres = append(e.filter.Genres, name)
	return e.resetAndIssue()
}

// RemoveGenre deselects a genre.
func (e *Engine) RemoveGenre(name string) *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	var removed bool
	if e.filter.Genres, removed = without(e.filter.Genres, name); !removed {
		return nil
	}
	return e.resetAndIssue()
}

// SetMinRating moves the lower rating bound. Values above the current upper
// bound are rejected and not applied.
func (e *Engine) SetMinRating(v float64) (*Query, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ValidateRange(v, e.filter.MaxRating); err != nil {
		return nil, err
	}
	if v == e.filter.MinRating {
		return nil, nil
	}
	e.filter.MinRating = v
	return e.resetAndIssue(), nil
}

// SetMaxRating moves the upper rating bound. Values below the current lower
// bound are rejected and not applied.
func (e *Engine) SetMaxRating(v float64) (*Query, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := ValidateRange(e.filter.MinRating, v); err != nil {
		return nil, err
	}
	if v == e.filter.MaxRating {
		return nil, nil
	}
	e.filter.MaxRating = v
	return e.resetAndIssue(), nil
}

// SetFilter replaces every facet at once, as when a CLI invocation builds the
// whole filter up front. The range is validated first.
func (e *Engine) SetFilter(f FilterState) (*Query, error) {
	if err := ValidateRange(f.MinRating, f.MaxRating); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter = FilterState{Title: f.Title, MinRating: f.MinRating, MaxRating: f.MaxRating}
	for _, a := range f.Authors {
		if a = strings.TrimSpace(a); a != "" && !e.filter.HasAuthor(a) {
			e.filter.Authors = append(e.filter.Authors, a)
		}
	}
	for _, g := range f.Genres {
		if g = strings.TrimSpace(g); g != "" && !e.filter.HasGenre(g) {
			e.filter.Genres = append(e.filter.Genres, g)
		}
	}
	return e.resetAndIssue(), nil
}

// ClearFilters drops every facet including the title.
func (e *Engine) ClearFilters() *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.filter.Active() {
		return nil
	}
	e.filter = DefaultFilter()
	return e.resetAndIssue()
}

// SetPage jumps to page n, clamped to the known page range. Filters are not
// touched. Returns nil when the page does not change.
func (e *Engine) SetPage(n int) *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	n = pagination.Clamp(n, e.page.TotalPages)
	if n == e.page.CurrentPage {
		return nil
	}
	e.page.CurrentPage = n
	return e.issue()
}

// NextPage advances one page.
func (e *Engine) NextPage() *Query {
	e.mu.Lock()
	current := e.page.CurrentPage
	e.mu.Unlock()
	return e.SetPage(current + 1)
}

// PrevPage goes back one page.
func (e *Engine) PrevPage() *Query {
	e.mu.Lock()
	current := e.page.CurrentPage
	e.mu.Unlock()
	return e.SetPage(current - 1)
}

// Fetch runs q against the service without touching engine state, so it is
// safe to call from any goroutine.
func (e *Engine) Fetch(ctx context.Context, q *Query) Result {
	page, err := e.fetcher.ListBooks(ctx, q.BookQuery())
	return Result{Generation: q.Generation, Page: page, Err: err}
}

// Apply installs a result if it belongs to the latest issued query. Results of
// superseded queries are dropped and Apply returns false. A failed search
// keeps the previous books on screen along with the page they came from.
func (e *Engine) Apply(r Result) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if r.Generation != e.gen {
		e.logger.Debug("discarding stale catalog result",
			zap.Uint64("generation", r.Generation),
			zap.Uint64("current", e.gen))
		return false
	}
	e.loading = false

	if r.Err != nil {
		e.lastErr = r.Err
		e.page.CurrentPage = e.shown
		e.logger.Warn("catalog query failed", zap.Error(r.Err), zap.Uint64("generation", r.Generation))
		return true
	}
	if r.Page == nil {
		return true
	}

	e.lastErr = nil
	e.books = r.Page.Items
	e.page.TotalItems = r.Page.Total
	e.page.TotalPages = r.Page.Pages
	if e.page.TotalPages > 0 {
		e.page.CurrentPage = pagination.Clamp(e.page.CurrentPage, e.page.TotalPages)
	}
	e.shown = e.page.CurrentPage
	e.logger.Debug("catalog results applied",
		zap.Int("items", len(r.Page.Items)),
		zap.Int("total", r.Page.Total),
		zap.Int("page", e.page.CurrentPage))
	return true
}

// Run fetches and applies q in one step.
func (e *Engine) Run(ctx context.Context, q *Query) error {
	if q == nil {
		return nil
	}
	r := e.Fetch(ctx, q)
	e.Apply(r)
	return r.Err
}

// Filter returns a copy of the current filter.
func (e *Engine) Filter() FilterState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter.clone()
}

// Page returns the current page state.
func (e *Engine) Page() PageState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.page
}

// Controls returns the pagination row for the current page state.
func (e *Engine) Controls() pagination.Controls {
	e.mu.Lock()
	defer e.mu.Unlock()
	return pagination.New(e.page.CurrentPage, e.page.TotalPages)
}

// Books returns the held result page.
func (e *Engine) Books() []client.Book {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]client.Book(nil), e.books...)
}

// Loading reports whether the latest query is still outstanding.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// LastError returns the failure of the latest applied query, if any.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}
