// ABOUTME: In-memory catalog, user and reading-list storage for the development service
// ABOUTME: Filtering follows the catalog rules: OR within a facet, AND across facets

package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/bookshelf/internal/client"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrBookNotFound   = errors.New("Book not found")
	ErrUserNotFound   = errors.New("User not found")
	ErrEntryNotFound  = errors.New("Reading list entry not found")
	ErrAlreadyListed  = errors.New("Book already exists in the user's reading list")
	ErrEmailTaken     = errors.New("Email already registered")
	ErrBadCredentials = errors.New("Incorrect email or password")
	ErrInvalidStatus  = errors.New("Invalid status. Must be one of: want, reading, completed, dropped")
)

// validStatuses are the uppercase statuses stored by the service.
var validStatuses = []string{"WANT", "READING", "COMPLETED", "DROPPED"}

type user struct {
	client.User
	hash []byte
}

type entryKey struct {
	userID int
	bookID int
}

type entry struct {
	status        string
	progressPages *int
	userRating    *float64
	note          *string
	addedAt       time.Time
}

// Store holds every record the service serves. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	books      []client.Book
	authors    []client.AuthorRef
	genres     []client.GenreRef
	users      map[int]*user
	emails     map[string]int
	entries    map[entryKey]*entry
	nextUserID int
	now        func() time.Time
}

// NewStore returns a store preloaded with books. Authors and genres are
// derived from the books.
func NewStore(books []client.Book) *Store {
	s := &Store{
		books:      books,
		users:      make(map[int]*user),
		emails:     make(map[string]int),
		entries:    make(map[entryKey]*entry),
		nextUserID: 1,
		now:        time.Now,
	}
	seenAuthor := map[int]bool{}
	seenGenre := map[int]bool{}
	for _, b := range books {
		for _, a := range b.Authors {
			if !seenAuthor[a.ID] {
				seenAuthor[a.ID] = true
				s.authors = append(s.authors, a)
			}
		}
		for _, g := range b.Genres {
			if !seenGenre[g.ID] {
				seenGenre[g.ID] = true
				s.genres = append(s.genres, g)
			}
		}
	}
	sort.Slice(s.authors, func(i, j int) bool { return s.authors[i].Name < s.authors[j].Name })
	sort.Slice(s.genres, func(i, j int) bool { return s.genres[i].Name < s.genres[j].Name })
	return s
}

// BookFilter selects books from the catalog.
type BookFilter struct {
	Title     string
	Authors   []string
	Genres    []string
	MinRating *float64
	MaxRating *float64
}

func (f BookFilter) matches(b client.Book) bool {
	if f.Title != "" && !containsFold(b.Title, f.Title) {
		return false
	}
	if len(f.Authors) > 0 && !anyName(b.AuthorNames(), f.Authors) {
		return false
	}
	if len(f.Genres) > 0 && !anyName(b.GenreNames(), f.Genres) {
		return false
	}
	if f.MinRating != nil || f.MaxRating != nil {
		if b.AverageRating == nil {
			return false
		}
		if f.MinRating != nil && *b.AverageRating < *f.MinRating {
			return false
		}
		if f.MaxRating != nil && *b.AverageRating > *f.MaxRating {
			return false
		}
	}
	return true
}

// ListBooks returns the page of matching books starting at skip, plus the
// total match count.
func (s *Store) ListBooks(f BookFilter, skip, limit int) ([]client.Book, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []client.Book
	for _, b := range s.books {
		if f.matches(b) {
			matched = append(matched, b)
		}
	}
	total := len(matched)
	if skip >= total {
		return []client.Book{}, total
	}
	end := min(skip+limit, total)
	return matched[skip:end], total
}

// Book returns a single book by id.
func (s *Store) Book(id int) (client.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bookLocked(id)
}

func (s *Store) bookLocked(id int) (client.Book, error) {
	for _, b := range s.books {
		if b.BookID == id {
			return b, nil
		}
	}
	return client.Book{}, ErrBookNotFound
}

// Authors returns up to limit authors whose name contains name.
func (s *Store) Authors(name string, limit int) []client.AuthorRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []client.AuthorRef{}
	for _, a := range s.authors {
		if len(out) == limit {
			break
		}
		if containsFold(a.Name, name) {
			out = append(out, a)
		}
	}
	return out
}

// Genres returns up to limit genres whose name contains name.
func (s *Store) Genres(name string, limit int) []client.GenreRef {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []client.GenreRef{}
	for _, g := range s.genres {
		if len(out) == limit {
			break
		}
		if containsFold(g.Name, name) {
			out = append(out, g)
		}
	}
	return out
}

// CreateUser registers a new account. An empty display name defaults to the
// local part of the email.
func (s *Store) CreateUser(email, password, displayName string) (client.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if displayName = strings.TrimSpace(displayName); displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return client.User{}, errors.Wrap(err, "hashing password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[email]; taken {
		return client.User{}, ErrEmailTaken
	}
	u := &user{
		User: client.User{UserID: s.nextUserID, Email: email, DisplayName: displayName, Role: "user"},
		hash: hash,
	}
	s.users[u.UserID] = u
	s.emails[email] = u.UserID
	s.nextUserID++
	return u.User, nil
}

// Authenticate checks a password and returns the matching account.
func (s *Store) Authenticate(email, password string) (client.User, error) {
	s.mu.RLock()
	id, ok := s.emails[strings.ToLower(strings.TrimSpace(email))]
	var u *user
	if ok {
		u = s.users[id]
	}
	s.mu.RUnlock()

	if u == nil {
		return client.User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return client.User{}, ErrBadCredentials
	}
	return u.User, nil
}

// NewEntry is a reading-list insert.
type NewEntry struct {
	Status        string
	ProgressPages *int
	UserRating    *float64
	Note          *string
}

// EntryPatch carries only the fields to change.
type EntryPatch struct {
	Status        *string
	ProgressPages client.Optional[int]
	UserRating    client.Optional[float64]
	Note          client.Optional[string]
}

// ListEntries returns a user's reading list, newest first, optionally
// narrowed to one status.
func (s *Store) ListEntries(userID int, status string, limit int) ([]client.ReadingListEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return nil, ErrUserNotFound
	}
	if status != "" {
		var err error
		if status, err = normalizeStatus(status); err != nil {
			return nil, err
		}
	}

	out := []client.ReadingListEntry{}
	for k, e := range s.entries {
		if k.userID != userID || (status != "" && e.status != status) {
			continue
		}
		out = append(out, s.wireLocked(k, e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt.Time) {
			return out[i].BookID < out[j].BookID
		}
		return out[i].AddedAt.After(out[j].AddedAt.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Entry returns one reading-list record.
func (s *Store) Entry(userID, bookID int) (client.ReadingListEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k := entryKey{userID, bookID}
	e, ok := s.entries[k]
	if !ok {
		return client.ReadingListEntry{}, ErrEntryNotFound
	}
	return s.wireLocked(k, e), nil
}

// AddEntry inserts a reading-list record.
func (s *Store) AddEntry(userID, bookID int, in NewEntry) (client.ReadingListEntry, error) {
	status, err := normalizeStatus(in.Status)
	if err != nil {
		return client.ReadingListEntry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return client.ReadingListEntry{}, ErrUserNotFound
	}
	if _, err := s.bookLocked(bookID); err != nil {
		return client.ReadingListEntry{}, err
	}
	k := entryKey{userID, bookID}
	if _, exists := s.entries[k]; exists {
		return client.ReadingListEntry{}, ErrAlreadyListed
	}
	e := &entry{
		status:        status,
		progressPages: in.ProgressPages,
		userRating:    in.UserRating,
		note:          in.Note,
		addedAt:       s.now().UTC().Truncate(time.Second),
	}
	s.entries[k] = e
	return s.wireLocked(k, e), nil
}

// UpdateEntry applies a partial update.
func (s *Store) UpdateEntry(userID, bookID int, p EntryPatch) (client.ReadingListEntry, error) {
	var status string
	if p.Status != nil {
		var err error
		if status, err = normalizeStatus(*p.Status); err != nil {
			return client.ReadingListEntry{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := entryKey{userID, bookID}
	e, ok := s.entries[k]
	if !ok {
		return client.ReadingListEntry{}, ErrEntryNotFound
	}
	if status != "" {
		e.status = status
	}
	if p.ProgressPages.Set {
		e.progressPages = p.ProgressPages.Value
	}
	if p.UserRating.Set {
		e.userRating = p.UserRating.Value
	}
	if p.Note.Set {
		e.note = p.Note.Value
	}
	return s.wireLocked(k, e), nil
}

// DeleteEntry removes a reading-list record.
func (s *Store) DeleteEntry(userID, bookID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := entryKey{userID, bookID}
	if _, ok := s.entries[k]; !ok {
		return ErrEntryNotFound
	}
	delete(s.entries, k)
	return nil
}

// Stats aggregates a user's reading list.
func (s *Store) Stats(userID int) (client.ReadingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.users[userID]; !ok {
		return client.ReadingStats{}, ErrUserNotFound
	}
	stats := client.ReadingStats{StatusCounts: map[string]int{}}
	for _, st := range validStatuses {
		stats.StatusCounts[strings.ToLower(st)] = 0
	}
	var sum float64
	var rated int
	for k, e := range s.entries {
		if k.userID != userID {
			continue
		}
		stats.TotalBooks++
		stats.StatusCounts[strings.ToLower(e.status)]++
		if e.userRating != nil {
			sum += *e.userRating
			rated++
		}
	}
	if rated > 0 {
		avg := sum / float64(rated)
		stats.AverageRating = &avg
	}
	return stats, nil
}

func (s *Store) wireLocked(k entryKey, e *entry) client.ReadingListEntry {
	book, _ := s.bookLocked(k.bookID)
	return client.ReadingListEntry{
		UserID:        k.userID,
		BookID:        k.bookID,
		Status:        e.status,
		ProgressPages: e.progressPages,
		UserRating:    e.userRating,
		Note:          e.note,
		AddedAt:       client.Timestamp{Time: e.addedAt},
		Book:          book,
	}
}

func normalizeStatus(s string) (string, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for _, v := range validStatuses {
		if up == v {
			return up, nil
		}
	}
	return "", ErrInvalidStatus
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func anyName(names, wanted []string) bool {
	for _, n := range names {
		for _, w := range wanted {
			if n == w {
				return true
			}
		}
	}
	return false
}
