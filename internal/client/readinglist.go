// ABOUTME: Reading-list endpoints for the bookshelf service
// ABOUTME: Status values on this boundary are uppercase

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListReadingList calls GET /readinglist/{userId}. An empty status lists all.
func (c *Client) ListReadingList(ctx context.Context, userID, limit int, status string) ([]ReadingListEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if status != "" {
		q.Set("status", status)
	}

	var entries []ReadingListEntry
	path := fmt.Sprintf("/readinglist/%d", userID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path, query: q}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetReadingListEntry calls GET /readinglist/{userId}/{bookId}. A missing
// entry yields an error matching ErrNotFound.
func (c *Client) GetReadingListEntry(ctx context.Context, userID, bookID int) (*ReadingListEntry, error) {
	var entry ReadingListEntry
	if err := c.do(ctx, request{method: http.MethodGet, path: entryPath(userID, bookID)}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateReadingListEntry calls POST /readinglist/?user_id={userId}
func (c *Client) CreateReadingListEntry(ctx context.Context, userID int, input NewReadingListEntry) (*ReadingListEntry, error) {
	q := url.Values{}
	q.Set("user_id", strconv.Itoa(userID))

	var entry ReadingListEntry
	if err := c.do(ctx, request{method: http.MethodPost, path: "/readinglist/", query: q, body: input}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateReadingListEntry calls PATCH /readinglist/{userId}/{bookId}
func (c *Client) UpdateReadingListEntry(ctx context.Context, userID, bookID int, patch ReadingListPatch) (*ReadingListEntry, error) {
	var entry ReadingListEntry
	if err := c.do(ctx, request{method: http.MethodPatch, path: entryPath(userID, bookID), body: patch}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteReadingListEntry calls DELETE /readinglist/{userId}/{bookId}
func (c *Client) DeleteReadingListEntry(ctx context.Context, userID, bookID int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: entryPath(userID, bookID)}, nil)
}

// ReadingStats calls GET /readinglist/stats/{userId}
func (c *Client) ReadingStats(ctx context.Context, userID int) (*ReadingStats, error) {
	var stats ReadingStats
	path := fmt.Sprintf("/readinglist/stats/%d", userID)
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func entryPath(userID, bookID int) string {
	return fmt.Sprintf("/readinglist/%d/%d", userID, bookID)
}
