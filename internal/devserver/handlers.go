// ABOUTME: HTTP handlers for the development catalog service
// ABOUTME: Auth, catalog search, facet suggestions and reading-list endpoints

package devserver

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/markalston/bookshelf/internal/client"
)

const (
	defaultBookLimit    = 12
	maxBookLimit        = 100
	defaultFacetLimit   = 100
	maxFacetLimit       = 10000
	defaultEntriesLimit = 100
	maxEntriesLimit     = 100
)

// Handler serves every endpoint.
type Handler struct {
	store  *Store
	tokens *Tokens
	logger *zap.Logger
}

// NewHandler wires a store and token issuer into HTTP handlers.
func NewHandler(store *Store, tokens *Tokens, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, tokens: tokens, logger: logger}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeStoreError maps store errors onto HTTP statuses.
func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBookNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrEntryNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrAlreadyListed), errors.Is(err, ErrEmailTaken), errors.Is(err, ErrInvalidStatus):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrBadCredentials):
		writeJSONError(w, err.Error(), http.StatusUnauthorized)
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSONError(w, "Internal server error", http.StatusInternalServerError)
	}
}

type validationProblem struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// writeValidationError writes a 422 with the list form of detail.
func writeValidationError(w http.ResponseWriter, problems []validationProblem) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(struct {
		Detail []validationProblem `json:"detail"`
	}{Detail: problems})
}

// params collects query validation problems.
type params struct {
	values   map[string][]string
	problems []validationProblem
}

func (p *params) intIn(name string, def, lo, hi int) int {
	raw := firstValue(p.values, name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(name, "value is not a valid integer")
		return def
	}
	if v < lo || v > hi {
		p.fail(name, "value must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
		return def
	}
	return v
}

func (p *params) float(name string) *float64 {
	raw := firstValue(p.values, name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(name, "value is not a valid number")
		return nil
	}
	return &v
}

func (p *params) fail(name, msg string) {
	p.problems = append(p.problems, validationProblem{Loc: []string{"query", name}, Msg: name + ": " + msg})
}

func firstValue(values map[string][]string, name string) string {
	if v := values[name]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func pathInt(r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	return v, err == nil && v >= 0
}

// Login handles POST /auth/login with a form-encoded body.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSONError(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	u, err := h.store.Authenticate(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	token, err := h.tokens.Issue(u.UserID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.logger.Info("user logged in", zap.Int("user_id", u.UserID))
	h.writeJSON(w, http.StatusOK, client.LoginResponse{AccessToken: token, TokenType: "bearer", User: u})
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req client.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	var problems []validationProblem
	if !strings.Contains(req.Email, "@") {
		problems = append(problems, validationProblem{Loc: []string{"body", "email"}, Msg: "value is not a valid email address"})
	}
	if len(req.Password) < 6 {
		problems = append(problems, validationProblem{Loc: []string{"body", "password"}, Msg: "password must be at least 6 characters"})
	}
	if len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	u, err := h.store.CreateUser(req.Email, req.Password, req.DisplayName)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.logger.Info("user registered", zap.Int("user_id", u.UserID))
	h.writeJSON(w, http.StatusCreated, u)
}

// ListBooks handles GET /books.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := &params{values: q}
	skip := p.intIn("skip", 0, 0, math.MaxInt32)
	limit := p.intIn("limit", defaultBookLimit, 1, maxBookLimit)
	f := BookFilter{
		Title:     firstValue(q, "title"),
		Authors:   q["author"],
		Genres:    q["genre"],
		MinRating: p.float("min_rating"),
		MaxRating: p.float("max_rating"),
	}
	if len(p.problems) > 0 {
		writeValidationError(w, p.problems)
		return
	}

	items, total := h.store.ListBooks(f, skip, limit)
	h.writeJSON(w, http.StatusOK, client.BookPage{
		Items: items,
		Total: total,
		Page:  skip/limit + 1,
		Limit: limit,
		Pages: (total + limit - 1) / limit,
	})
}

// GetBook handles GET /books/{id}.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		writeJSONError(w, "Invalid book id", http.StatusBadRequest)
		return
	}
	book, err := h.store.Book(id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, book)
}

// ListAuthors handles GET /authors/.
func (h *Handler) ListAuthors(w http.ResponseWriter, r *http.Request) {
	p := &params{values: r.URL.Query()}
	limit := p.intIn("limit", defaultFacetLimit, 1, maxFacetLimit)
	if len(p.problems) > 0 {
		writeValidationError(w, p.problems)
		return
	}
	h.writeJSON(w, http.StatusOK, h.store.Authors(firstValue(p.values, "name"), limit))
}

// ListGenres handles GET /genres/.
func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	p := &params{values: r.URL.Query()}
	limit := p.intIn("limit", defaultFacetLimit, 1, maxFacetLimit)
	if len(p.problems) > 0 {
		writeValidationError(w, p.problems)
		return
	}
	h.writeJSON(w, http.StatusOK, h.store.Genres(firstValue(p.values, "name"), limit))
}

// ListReadingList handles GET /readinglist/{userId}.
func (h *Handler) ListReadingList(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(r, "userId")
	if !ok {
		writeJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	p := &params{values: r.URL.Query()}
	limit := p.intIn("limit", defaultEntriesLimit, 1, maxEntriesLimit)
	if len(p.problems) > 0 {
		writeValidationError(w, p.problems)
		return
	}

	entries, err := h.store.ListEntries(userID, firstValue(p.values, "status"), limit)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// GetReadingListEntry handles GET /readinglist/{userId}/{bookId}.
func (h *Handler) GetReadingListEntry(w http.ResponseWriter, r *http.Request) {
	userID, okUser := pathInt(r, "userId")
	bookID, okBook := pathInt(r, "bookId")
	if !okUser || !okBook {
		writeJSONError(w, "Invalid id", http.StatusBadRequest)
		return
	}
	e, err := h.store.Entry(userID, bookID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

// CreateReadingListEntry handles POST /readinglist/?user_id=.
func (h *Handler) CreateReadingListEntry(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(r.URL.Query().Get("user_id"))
	if err != nil {
		writeValidationError(w, []validationProblem{{Loc: []string{"query", "user_id"}, Msg: "user_id: field required"}})
		return
	}
	var in client.NewReadingListEntry
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if problems := validateEntryFields(in.ProgressPages, in.UserRating); len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	e, err := h.store.AddEntry(userID, in.BookID, NewEntry{
		Status:        in.Status,
		ProgressPages: in.ProgressPages,
		UserRating:    in.UserRating,
		Note:          in.Note,
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, e)
}

// UpdateReadingListEntry handles PATCH /readinglist/{userId}/{bookId}.
// Fields absent from the body are left unchanged.
func (h *Handler) UpdateReadingListEntry(w http.ResponseWriter, r *http.Request) {
	userID, okUser := pathInt(r, "userId")
	bookID, okBook := pathInt(r, "bookId")
	if !okUser || !okBook {
		writeJSONError(w, "Invalid id", http.StatusBadRequest)
		return
	}
	var patch client.ReadingListPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSONError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if problems := validateEntryFields(patch.ProgressPages.Value, patch.UserRating.Value); len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	e, err := h.store.UpdateEntry(userID, bookID, EntryPatch{
		Status:        patch.Status,
		ProgressPages: patch.ProgressPages,
		UserRating:    patch.UserRating,
		Note:          patch.Note,
	})
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, e)
}

// DeleteReadingListEntry handles DELETE /readinglist/{userId}/{bookId}.
func (h *Handler) DeleteReadingListEntry(w http.ResponseWriter, r *http.Request) {
	userID, okUser := pathInt(r, "userId")
	bookID, okBook := pathInt(r, "bookId")
	if !okUser || !okBook {
		writeJSONError(w, "Invalid id", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteEntry(userID, bookID); err != nil {
		h.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReadingStats handles GET /readinglist/stats/{userId}.
func (h *Handler) ReadingStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathInt(r, "userId")
	if !ok {
		writeJSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}
	stats, err := h.store.Stats(userID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func validateEntryFields(progress *int, rating *float64) []validationProblem {
	var problems []validationProblem
	if progress != nil && *progress < 0 {
		problems = append(problems, validationProblem{Loc: []string{"body", "progresspages"}, Msg: "progresspages must be at least 0"})
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		problems = append(problems, validationProblem{Loc: []string{"body", "userrating"}, Msg: "userrating must be between 0 and 5"})
	}
	return problems
}
