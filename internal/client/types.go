// ABOUTME: Wire types for the bookshelf service API
// ABOUTME: JSON field names follow the service's lowercase column naming

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AuthorRef is an author facet
type AuthorRef struct {
	ID   int    `json:"authorid"`
	Name string `json:"name"`
}

// GenreRef is a genre facet
type GenreRef struct {
	ID   int    `json:"genreid"`
	Name string `json:"name"`
}

// Book is an immutable catalog snapshot
type Book struct {
	BookID        int         `json:"bookid"`
	Title         string      `json:"title"`
	Description   *string     `json:"description,omitempty"`
	Format        *string     `json:"bookformat,omitempty"`
	PageCount     *int        `json:"pages,omitempty"`
	AverageRating *float64    `json:"averagerating,omitempty"`
	TotalRatings  *int        `json:"totalratings,omitempty"`
	ISBN          string      `json:"isbn"`
	ImageURL      *string     `json:"imageurl,omitempty"`
	ExternalLink  *string     `json:"goodreadslink,omitempty"`
	Authors       []AuthorRef `json:"authors"`
	Genres        []GenreRef  `json:"genres"`
}

// AuthorNames returns author names in catalog order.
func (b Book) AuthorNames() []string {
	names := make([]string, len(b.Authors))
	for i, a := range b.Authors {
		names[i] = a.Name
	}
	return names
}

// GenreNames returns genre names in catalog order.
func (b Book) GenreNames() []string {
	names := make([]string, len(b.Genres))
	for i, g := range b.Genres {
		names[i] = g.Name
	}
	return names
}

// Link returns the external link, falling back to a Goodreads search for the title.
func (b Book) Link() string {
	if b.ExternalLink != nil && *b.ExternalLink != "" {
		return *b.ExternalLink
	}
	return "https://www.goodreads.com/search?q=" + strings.ReplaceAll(strings.TrimSpace(b.Title), " ", "+")
}

// BookPage is the paginated /books envelope
type BookPage struct {
	Items []Book `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Pages int    `json:"pages"`
}

// User is the authenticated identity returned by the service
type User struct {
	UserID      int    `json:"userid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayname"`
	Role        string `json:"role,omitempty"`
}

// LoginResponse represents the /auth/login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// RegisterRequest represents the /auth/register body
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayname,omitempty"`
}

// ReadingListEntry is a per-(user, book) record as sent on the wire.
// Status is uppercase here.
type ReadingListEntry struct {
	UserID        int       `json:"userid"`
	BookID        int       `json:"bookid"`
	Status        string    `json:"status"`
	ProgressPages *int      `json:"progresspages"`
	UserRating    *float64  `json:"userrating"`
	Note          *string   `json:"note"`
	AddedAt       Timestamp `json:"addedat"`
	Book          Book      `json:"book"`
}

// NewReadingListEntry is the create body. Nil fields are sent as null.
type NewReadingListEntry struct {
	BookID        int      `json:"bookid"`
	Status        string   `json:"status"`
	ProgressPages *int     `json:"progresspages"`
	UserRating    *float64 `json:"userrating"`
	Note          *string  `json:"note"`
}

// ReadingListPatch is a partial update. Zero-valued fields are left out of
// the body entirely; Null fields are sent as JSON null.
type ReadingListPatch struct {
	Status        *string           `json:"status,omitempty"`
	ProgressPages Optional[int]     `json:"progresspages,omitzero"`
	UserRating    Optional[float64] `json:"userrating,omitzero"`
	Note          Optional[string]  `json:"note,omitzero"`
}

// Empty reports whether the patch changes nothing.
func (p ReadingListPatch) Empty() bool {
	return p.Status == nil && !p.ProgressPages.Set && !p.UserRating.Set && !p.Note.Set
}

// ReadingStats represents the /readinglist/stats/{userId} response
type ReadingStats struct {
	TotalBooks    int            `json:"total_books"`
	AverageRating *float64       `json:"average_rating"`
	StatusCounts  map[string]int `json:"status_counts"`
}

// Optional distinguishes an absent field from an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present, non-null value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present, null value.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// FromPtr returns a present value that is null when p is nil.
func FromPtr[T any](p *T) Optional[T] {
	return Optional[T]{Set: true, Value: p}
}

// IsZero reports absence, so omitzero drops the field.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// timestampLayouts covers zone-less datetimes as well as RFC 3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp accepts datetimes with or without a zone. Zone-less values are UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
