// ABOUTME: Debounced suggestion state for one filter dimension (authors or genres)
// ABOUTME: Sequence numbers make superseded keystrokes and late responses inert

package autocomplete

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/markalston/bookshelf/internal/client"
	"go.uber.org/zap"
)

const (
	// DefaultDebounce is the quiet period before a lookup fires.
	DefaultDebounce = 300 * time.Millisecond
	// DefaultLimit caps the suggestions requested per lookup.
	DefaultLimit = 200
)

// Kind names a filter dimension.
type Kind int

const (
	Authors Kind = iota
	Genres
)

func (k Kind) String() string {
	switch k {
	case Authors:
		return "authors"
	case Genres:
		return "genres"
	default:
		return "unknown"
	}
}

// Suggestion is one selectable facet value.
type Suggestion struct {
	ID   int
	Name string
}

// SuggestFunc looks up facet values matching text.
type SuggestFunc func(ctx context.Context, text string, limit int) ([]Suggestion, error)

// Searcher is the part of the API client that serves suggestions.
type Searcher interface {
	SearchAuthors(ctx context.Context, name string, limit int) ([]client.AuthorRef, error)
	SearchGenres(ctx context.Context, name string, limit int) ([]client.GenreRef, error)
}

// Source adapts a Searcher to the lookup for kind.
func Source(kind Kind, s Searcher) SuggestFunc {
	if kind == Genres {
		return func(ctx context.Context, text string, limit int) ([]Suggestion, error) {
			genres, err := s.SearchGenres(ctx, text, limit)
			if err != nil {
				return nil, err
			}
			out := make([]Suggestion, len(genres))
			for i, g := range genres {
				out[i] = Suggestion{ID: g.ID, Name: g.Name}
			}
			return out, nil
		}
	}
	return func(ctx context.Context, text string, limit int) ([]Suggestion, error) {
		authors, err := s.SearchAuthors(ctx, text, limit)
		if err != nil {
			return nil, err
		}
		out := make([]Suggestion, len(authors))
		for i, a := range authors {
			out[i] = Suggestion{ID: a.ID, Name: a.Name}
		}
		return out, nil
	}
}

// Options tunes a Field. Zero values take the defaults.
type Options struct {
	Debounce time.Duration
	Limit    int
	Logger   *zap.Logger
}

// Debounce asks the caller to call Settle(Seq) after Delay.
type Debounce struct {
	Kind  Kind
	Seq   uint64
	Delay time.Duration
}

// Lookup is a settled request for suggestions.
type Lookup struct {
	Kind  Kind
	Seq   uint64
	Text  string
	Limit int
}

// Outcome is the response to a Lookup.
type Outcome struct {
	Kind        Kind
	Seq         uint64
	Suggestions []Suggestion
	Err         error
}

// Field holds the input text, pending debounce and suggestion panel for one
// dimension. The selected values live with the catalog filter.
type Field struct {
	kind     Kind
	suggest  SuggestFunc
	debounce time.Duration
	limit    int
	logger   *zap.Logger

	mu          sync.Mutex
	text        string
	seq         uint64
	suggestions []Suggestion
	visible     bool
	cursor      int
}

// New creates a field for kind backed by suggest.
func New(kind Kind, suggest SuggestFunc, opts Options) *Field {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Field{
		kind:     kind,
		suggest:  suggest,
		debounce: opts.Debounce,
		limit:    opts.Limit,
		logger:   opts.Logger.Named("autocomplete").With(zap.Stringer("kind", kind)),
	}
}

// Kind returns the dimension this field serves.
func (f *Field) Kind() Kind {
	return f.kind
}

// Input records new text and restarts the debounce. Blank text clears the
// suggestions and hides the panel at once; no lookup is scheduled.
func (f *Field) Input(text string) (Debounce, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.text = text
	f.seq++
	if strings.TrimSpace(text) == "" {
		f.suggestions = nil
		f.visible = false
		f.cursor = 0
		return Debounce{}, false
	}
	return Debounce{Kind: f.kind, Seq: f.seq, Delay: f.debounce}, true
}

// Settle is called when a debounce delay elapses. Only the most recent
// keystroke yields a lookup.
func (f *Field) Settle(seq uint64) (*Lookup, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.seq || strings.TrimSpace(f.text) == "" {
		return nil, false
	}
	return &Lookup{Kind: f.kind, Seq: seq, Text: strings.TrimSpace(f.text), Limit: f.limit}, true
}

// Fetch performs the lookup. It does not touch field state.
func (f *Field) Fetch(ctx context.Context, l *Lookup) Outcome {
	suggestions, err := f.suggest(ctx, l.Text, l.Limit)
	return Outcome{Kind: f.kind, Seq: l.Seq, Suggestions: suggestions, Err: err}
}

// Apply installs an outcome if no newer input arrived meanwhile. Failures
// hide the panel without surfacing an error.
func (f *Field) Apply(o Outcome) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if o.Seq != f.seq {
		return false
	}
	f.cursor = 0
	if o.Err != nil {
		f.logger.Debug("suggestion lookup failed", zap.Error(o.Err))
		f.suggestions = nil
		f.visible = false
		return true
	}
	f.suggestions = o.Suggestions
	f.visible = true
	return true
}

// Move shifts the highlighted suggestion by delta, wrapping around.
func (f *Field) Move(delta int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.suggestions)
	if n == 0 {
		return
	}
	f.cursor = ((f.cursor+delta)%n + n) % n
}

// Highlighted returns the suggestion under the cursor.
func (f *Field) Highlighted() (Suggestion, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.visible || len(f.suggestions) == 0 {
		return Suggestion{}, false
	}
	return f.suggestions[f.cursor], true
}

// Cursor returns the highlighted index.
func (f *Field) Cursor() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor
}

// Select takes name as the chosen value: the text is cleared, the panel
// hidden and any pending debounce invalidated. The caller adds the returned
// name to the catalog filter.
func (f *Field) Select(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = ""
	f.seq++
	f.suggestions = nil
	f.visible = false
	f.cursor = 0
	return name
}

// SelectHighlighted selects the suggestion under the cursor.
func (f *Field) SelectHighlighted() (string, bool) {
	s, ok := f.Highlighted()
	if !ok {
		return "", false
	}
	return f.Select(s.Name), true
}

// Dismiss hides the panel. Text and suggestions are kept.
func (f *Field) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = false
}

// Text returns the current input text.
func (f *Field) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text
}

// Suggestions returns the last applied suggestions.
func (f *Field) Suggestions() []Suggestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Suggestion(nil), f.suggestions...)
}

// Visible reports whether the suggestion panel is shown.
func (f *Field) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}
