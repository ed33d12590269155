// ABOUTME: Local reading-list entry and patch types
// ABOUTME: Converts between the wire representation and canonical local values

package readinglist

import (
	"math"
	"strings"
	"time"

	"github.com/markalston/bookshelf/internal/client"
)

// Entry is one book on a user's reading list.
type Entry struct {
	UserID        int         `json:"user_id"`
	BookID        int         `json:"book_id"`
	Status        Status      `json:"status"`
	ProgressPages *int        `json:"progress_pages"`
	UserRating    *int        `json:"user_rating"`
	Note          *string     `json:"note"`
	AddedAt       time.Time   `json:"added_at"`
	Book          client.Book `json:"book"`
}

// ProgressRatio is progress over page count in [0, 1]. It is 0 when either
// is unknown.
func (e Entry) ProgressRatio() float64 {
	if e.ProgressPages == nil || e.Book.PageCount == nil || *e.Book.PageCount <= 0 {
		return 0
	}
	r := float64(*e.ProgressPages) / float64(*e.Book.PageCount)
	return math.Min(math.Max(r, 0), 1)
}

// fromWire normalizes a service entry. Unknown statuses fall back to the
// lowercased wire value so nothing is silently rewritten.
func fromWire(w client.ReadingListEntry) Entry {
	st, err := ParseStatus(w.Status)
	if err != nil {
		st = Status(strings.ToLower(w.Status))
	}
	e := Entry{
		UserID:        w.UserID,
		BookID:        w.BookID,
		Status:        st,
		ProgressPages: w.ProgressPages,
		Note:          w.Note,
		AddedAt:       w.AddedAt.Time,
		Book:          w.Book,
	}
	if w.UserRating != nil {
		r := int(math.Round(*w.UserRating))
		e.UserRating = &r
	}
	return e
}

// Patch is a partial update. Nil Status leaves the status alone; unset
// Optionals leave their field alone.
type Patch struct {
	Status        *Status
	ProgressPages client.Optional[int]
	UserRating    client.Optional[int]
	Note          client.Optional[string]
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Status == nil && !p.ProgressPages.Set && !p.UserRating.Set && !p.Note.Set
}

func (p Patch) wire() client.ReadingListPatch {
	var w client.ReadingListPatch
	if p.Status != nil {
		s := p.Status.Wire()
		w.Status = &s
	}
	if p.ProgressPages.Set {
		if p.ProgressPages.Value != nil && *p.ProgressPages.Value < 0 {
			w.ProgressPages = client.Some(0)
		} else {
			w.ProgressPages = p.ProgressPages
		}
	}
	if p.UserRating.Set {
		if p.UserRating.Value == nil {
			w.UserRating = client.Null[float64]()
		} else {
			w.UserRating = client.Some(float64(*p.UserRating.Value))
		}
	}
	if p.Note.Set {
		if p.Note.Value == nil {
			w.Note = client.Null[string]()
		} else {
			w.Note = client.FromPtr(NoteValue(*p.Note.Value))
		}
	}
	return w
}

// Summary counts entries by status.
type Summary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}
