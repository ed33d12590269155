// ABOUTME: Reading status vocabulary and the entry field parsers
// ABOUTME: Canonical status is lowercase locally and uppercase on the wire

package readinglist

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Status is a canonical lowercase reading status.
type Status string

const (
	Want      Status = "want"
	Reading   Status = "reading"
	Completed Status = "completed"
	Dropped   Status = "dropped"
)

// DefaultStatus preselects the status for a book not yet on the list.
const DefaultStatus = Want

// Statuses lists every status in display order.
var Statuses = []Status{Want, Reading, Completed, Dropped}

var (
	ErrInvalidStatus = errors.New("status must be one of: want, reading, completed, dropped")
	ErrInvalidNumber = errors.New("not a whole number")
	ErrInvalidRating = errors.New("rating must be a whole number from 1 to 5")
)

var labels = map[Status]string{
	Want:      "Want to Read",
	Reading:   "Currently Reading",
	Completed: "Completed",
	Dropped:   "Dropped",
}

var separators = strings.NewReplacer("-", " ", "_", " ")

// ParseStatus accepts canonical, wire or display forms in any case, with
// spaces, dashes or underscores between words.
func ParseStatus(s string) (Status, error) {
	norm := separators.Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range Statuses {
		if norm == string(st) || norm == strings.ToLower(labels[st]) {
			return st, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidStatus, "got %q", s)
}

// Wire is the uppercase form sent to the service.
func (s Status) Wire() string {
	return strings.ToUpper(string(s))
}

// Label is the human-readable name.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Next cycles through Statuses.
func (s Status) Next() Status {
	for i, st := range Statuses {
		if st == s {
			return Statuses[(i+1)%len(Statuses)]
		}
	}
	return DefaultStatus
}

// ParseProgress reads a page count. Blank input means no progress (nil);
// negative counts are clamped to zero.
func ParseProgress(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidNumber, "progress %q", s)
	}
	if n < 0 {
		n = 0
	}
	return &n, nil
}

// ParseRating reads a 1-5 rating. Blank input means no rating (nil).
func ParseRating(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 5 {
		return nil, errors.Wrapf(ErrInvalidRating, "got %q", s)
	}
	return &n, nil
}

// NoteValue maps an empty note to nil.
func NoteValue(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
