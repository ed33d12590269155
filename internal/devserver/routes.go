// ABOUTME: Declarative route table for the development service
// ABOUTME: Defines all routes with their HTTP methods, handlers and auth requirement

package devserver

import "net/http"

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string           // HTTP method (GET, POST, etc.)
	Path    string           // gorilla/mux path template
	Handler http.HandlerFunc // Handler function
	Auth    bool             // requires a bearer token for the named user
}

// Routes returns all API routes for registration. The stats route is listed
// before /readinglist/{userId}/{bookId} so "stats" is never read as a user id.
func (h *Handler) Routes() []Route {
	return []Route{
		// Auth
		{Method: http.MethodPost, Path: "/auth/login", Handler: h.Login},
		{Method: http.MethodPost, Path: "/auth/register", Handler: h.Register},

		// Catalog
		{Method: http.MethodGet, Path: "/books", Handler: h.ListBooks},
		{Method: http.MethodGet, Path: "/books/", Handler: h.ListBooks},
		{Method: http.MethodGet, Path: "/books/{id:[0-9]+}", Handler: h.GetBook},
		{Method: http.MethodGet, Path: "/authors/", Handler: h.ListAuthors},
		{Method: http.MethodGet, Path: "/genres/", Handler: h.ListGenres},

		// Reading list
		{Method: http.MethodGet, Path: "/readinglist/stats/{userId:[0-9]+}", Handler: h.ReadingStats, Auth: true},
		{Method: http.MethodPost, Path: "/readinglist/", Handler: h.CreateReadingListEntry, Auth: true},
		{Method: http.MethodGet, Path: "/readinglist/{userId:[0-9]+}", Handler: h.ListReadingList, Auth: true},
		{Method: http.MethodGet, Path: "/readinglist/{userId:[0-9]+}/{bookId:[0-9]+}", Handler: h.GetReadingListEntry, Auth: true},
		{Method: http.MethodPatch, Path: "/readinglist/{userId:[0-9]+}/{bookId:[0-9]+}", Handler: h.UpdateReadingListEntry, Auth: true},
		{Method: http.MethodDelete, Path: "/readinglist/{userId:[0-9]+}/{bookId:[0-9]+}", Handler: h.DeleteReadingListEntry, Auth: true},
	}
}
