// ABOUTME: Reading-list synchronizer: a confirm-then-reflect mirror of the service
// ABOUTME: Local state changes only after the service accepts a mutation

package readinglist

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/markalston/bookshelf/internal/client"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultLimit caps how many entries Load fetches.
const DefaultLimit = 100

var (
	// ErrAlreadyListed is returned by Add when the book is known to be listed.
	ErrAlreadyListed = errors.New("book is already on the reading list")
	// ErrNotConfirmed is returned by Remove when the user has not confirmed.
	ErrNotConfirmed = errors.New("removal not confirmed")
	// ErrEmptyPatch is returned by Update when nothing would change.
	ErrEmptyPatch = errors.New("nothing to update")
)

// Service is the part of the API client the synchronizer uses.
type Service interface {
	ListReadingList(ctx context.Context, userID, limit int, status string) ([]client.ReadingListEntry, error)
	GetReadingListEntry(ctx context.Context, userID, bookID int) (*client.ReadingListEntry, error)
	CreateReadingListEntry(ctx context.Context, userID int, input client.NewReadingListEntry) (*client.ReadingListEntry, error)
	UpdateReadingListEntry(ctx context.Context, userID, bookID int, patch client.ReadingListPatch) (*client.ReadingListEntry, error)
	DeleteReadingListEntry(ctx context.Context, userID, bookID int) error
	ReadingStats(ctx context.Context, userID int) (*client.ReadingStats, error)
}

// Synchronizer owns the user's reading-list collection and the entry for the
// book currently being viewed. It is the only writer of either.
type Synchronizer struct {
	svc    Service
	limit  int
	logger *zap.Logger

	mu      sync.RWMutex
	entries []Entry
	current *Entry
}

// New creates a synchronizer. A non-positive limit uses DefaultLimit.
func New(svc Service, limit int, logger *zap.Logger) *Synchronizer {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synchronizer{svc: svc, limit: limit, logger: logger.Named("readinglist")}
}

// Load replaces the collection with the user's entries.
func (s *Synchronizer) Load(ctx context.Context, userID int) error {
	return s.load(ctx, userID, "")
}

// LoadStatus replaces the collection with the user's entries in one status.
func (s *Synchronizer) LoadStatus(ctx context.Context, userID int, status Status) error {
	return s.load(ctx, userID, string(status))
}

func (s *Synchronizer) load(ctx context.Context, userID int, status string) error {
	wire, err := s.svc.ListReadingList(ctx, userID, s.limit, status)
	if err != nil {
		s.logger.Warn("reading list load failed", zap.Int("user_id", userID), zap.Error(err))
		return errors.Wrap(err, "load reading list")
	}
	entries := make([]Entry, len(wire))
	for i, w := range wire {
		entries[i] = fromWire(w)
	}

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("reading list loaded", zap.Int("user_id", userID), zap.Int("entries", len(entries)))
	return nil
}

// Lookup fetches the entry for one book and makes it current. A book that is
// not on the list clears the current entry and returns (nil, nil).
func (s *Synchronizer) Lookup(ctx context.Context, userID, bookID int) (*Entry, error) {
	w, err := s.svc.GetReadingListEntry(ctx, userID, bookID)
	if err != nil {
		if stderrors.Is(err, client.ErrNotFound) {
			s.mu.Lock()
			s.current = nil
			s.mu.Unlock()
			return nil, nil
		}
		return nil, errors.Wrap(err, "look up reading list entry")
	}

	e := fromWire(*w)
	s.mu.Lock()
	s.current = &e
	s.mu.Unlock()
	return &e, nil
}

// Add puts a book on the list with no progress, rating or note. The new
// entry becomes current and is appended unless the collection already has it.
func (s *Synchronizer) Add(ctx context.Context, userID, bookID int, status Status) (*Entry, error) {
	status, err := ParseStatus(string(status))
	if err != nil {
		return nil, err
	}
	if s.listed(bookID) {
		return nil, ErrAlreadyListed
	}

	w, err := s.svc.CreateReadingListEntry(ctx, userID, client.NewReadingListEntry{
		BookID: bookID,
		Status: status.Wire(),
	})
	if err != nil {
		s.logger.Warn("add to reading list failed", zap.Int("book_id", bookID), zap.Error(err))
		return nil, errors.Wrap(err, "add to reading list")
	}

	e := fromWire(*w)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &e
	if s.indexOf(bookID) < 0 {
		s.entries = append(s.entries, e)
	}
	return &e, nil
}

// Update sends only the fields set in p and installs the service's merged
// entry in place of the local copies.
func (s *Synchronizer) Update(ctx context.Context, userID, bookID int, p Patch) (*Entry, error) {
	if p.Empty() {
		return nil, ErrEmptyPatch
	}
	if p.Status != nil {
		st, err := ParseStatus(string(*p.Status))
		if err != nil {
			return nil, err
		}
		p.Status = &st
	}
	if p.UserRating.Value != nil && (*p.UserRating.Value < 1 || *p.UserRating.Value > 5) {
		return nil, errors.Wrapf(ErrInvalidRating, "got %d", *p.UserRating.Value)
	}

	w, err := s.svc.UpdateReadingListEntry(ctx, userID, bookID, p.wire())
	if err != nil {
		s.logger.Warn("reading list update failed", zap.Int("book_id", bookID), zap.Error(err))
		return nil, errors.Wrap(err, "update reading list entry")
	}

	e := fromWire(*w)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.BookID == bookID {
		s.current = &e
	}
	if i := s.indexOf(bookID); i >= 0 {
		s.entries[i] = e
	}
	return &e, nil
}

// Remove deletes a book from the list. Without confirmation nothing is sent.
func (s *Synchronizer) Remove(ctx context.Context, userID, bookID int, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := s.svc.DeleteReadingListEntry(ctx, userID, bookID); err != nil {
		s.logger.Warn("reading list removal failed", zap.Int("book_id", bookID), zap.Error(err))
		return errors.Wrap(err, "remove from reading list")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.BookID == bookID {
		s.current = nil
	}
	if i := s.indexOf(bookID); i >= 0 {
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
	}
	return nil
}

// Stats fetches the service's aggregate reading statistics.
func (s *Synchronizer) Stats(ctx context.Context, userID int) (*client.ReadingStats, error) {
	stats, err := s.svc.ReadingStats(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "reading stats")
	}
	return stats, nil
}

// Summary counts the loaded collection by status.
func (s *Synchronizer) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := Summary{Total: len(s.entries), ByStatus: make(map[Status]int, len(Statuses))}
	for _, st := range Statuses {
		sum.ByStatus[st] = 0
	}
	for _, e := range s.entries {
		sum.ByStatus[e.Status]++
	}
	return sum
}

// Current returns the entry for the viewed book, or nil.
func (s *Synchronizer) Current() *Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	e := *s.current
	return &e
}

// Entries returns a copy of the collection.
func (s *Synchronizer) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Entry(nil), s.entries...)
}

// Find returns the collection entry for bookID.
func (s *Synchronizer) Find(bookID int) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(bookID); i >= 0 {
		return s.entries[i], true
	}
	return Entry{}, false
}

// Reset forgets all local state, as on logout.
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.current = nil
}

func (s *Synchronizer) listed(bookID int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current != nil && s.current.BookID == bookID {
		return true
	}
	return s.indexOf(bookID) >= 0
}

// indexOf finds bookID in the collection. Callers hold s.mu.
func (s *Synchronizer) indexOf(bookID int) int {
	for i, e := range s.entries {
		if e.BookID == bookID {
			return i
		}
	}
	return -1
}
