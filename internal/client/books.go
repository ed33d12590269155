// ABOUTME: Catalog endpoints: paginated book search, detail and facet suggestions
// ABOUTME: Filters are sent as repeated query parameters

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// BookQuery is one catalog search request. Nil rating bounds are not sent.
type BookQuery struct {
	Skip      int
	Limit     int
	Title     string
	Authors   []string
	Genres    []string
	MinRating *float64
	MaxRating *float64
}

// Values encodes the query string.
func (q BookQuery) Values() url.Values {
	v := url.Values{}
	v.Set("skip", strconv.Itoa(q.Skip))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if title := strings.TrimSpace(q.Title); title != "" {
		v.Set("title", title)
	}
	for _, a := range q.Authors {
		v.Add("author", a)
	}
	for _, g := range q.Genres {
		v.Add("genre", g)
	}
	if q.MinRating != nil {
		v.Set("min_rating", strconv.FormatFloat(*q.MinRating, 'f', -1, 64))
	}
	if q.MaxRating != nil {
		v.Set("max_rating", strconv.FormatFloat(*q.MaxRating, 'f', -1, 64))
	}
	return v
}

// ListBooks calls GET /books
func (c *Client) ListBooks(ctx context.Context, q BookQuery) (*BookPage, error) {
	var page BookPage
	err := c.do(ctx, request{method: http.MethodGet, path: "/books", query: q.Values()}, &page)
	if err != nil {
		return nil, err
	}
	if page.Items == nil {
		page.Items = []Book{}
	}
	return &page, nil
}

// GetBook calls GET /books/{id}
func (c *Client) GetBook(ctx context.Context, bookID int) (*Book, error) {
	var book Book
	path := fmt.Sprintf("/books/%d", bookID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// SearchAuthors calls GET /authors/?name=&limit=
func (c *Client) SearchAuthors(ctx context.Context, name string, limit int) ([]AuthorRef, error) {
	var authors []AuthorRef
	if err := c.do(ctx, request{method: http.MethodGet, path: "/authors/", query: suggestQuery(name, limit)}, &authors); err != nil {
		return nil, err
	}
	return authors, nil
}

// SearchGenres calls GET /genres/?name=&limit=
func (c *Client) SearchGenres(ctx context.Context, name string, limit int) ([]GenreRef, error) {
	var genres []GenreRef
	if err := c.do(ctx, request{method: http.MethodGet, path: "/genres/", query: suggestQuery(name, limit)}, &genres); err != nil {
		return nil, err
	}
	return genres, nil
}

func suggestQuery(name string, limit int) url.Values {
	v := url.Values{}
	v.Set("name", name)
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	return v
}
