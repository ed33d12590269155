// ABOUTME: Filter and page state for catalog searches
// ABOUTME: Author and genre selections are insertion-ordered name sets

package catalog

import (
	"math"

	"github.com/pkg/errors"
)

// MaxRating is the top of the rating scale.
const MaxRating = 5.0

// ErrInvalidRatingRange rejects bounds outside 0 <= min <= max <= 5.
var ErrInvalidRatingRange = errors.New("rating range must satisfy 0 <= min <= max <= 5")

// FilterState is the set of facets applied to the catalog.
type FilterState struct {
	Title     string   `json:"title,omitempty"`
	Authors   []string `json:"authors,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	MinRating float64  `json:"min_rating"`
	MaxRating float64  `json:"max_rating"`
}

// DefaultFilter is the unfiltered catalog.
func DefaultFilter() FilterState {
	return FilterState{MaxRating: MaxRating}
}

// Active reports whether any facet narrows the catalog.
func (f FilterState) Active() bool {
	return f.Title != "" || len(f.Authors) > 0 || len(f.Genres) > 0 ||
		f.MinRating > 0 || f.MaxRating < MaxRating
}

// HasAuthor reports whether name is selected.
func (f FilterState) HasAuthor(name string) bool {
	return contains(f.Authors, name)
}

// HasGenre reports whether name is selected.
func (f FilterState) HasGenre(name string) bool {
	return contains(f.Genres, name)
}

func (f FilterState) clone() FilterState {
	out := f
	out.Authors = append([]string(nil), f.Authors...)
	out.Genres = append([]string(nil), f.Genres...)
	return out
}

// PageState tracks server-driven pagination.
type PageState struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PageSize    int `json:"page_size"`
}

// ValidateRange checks a candidate pair of rating bounds.
func ValidateRange(minRating, maxRating float64) error {
	if !finite(minRating) || !finite(maxRating) ||
		minRating < 0 || maxRating > MaxRating || minRating > maxRating {
		return errors.Wrapf(ErrInvalidRatingRange, "got %.1f..%.1f", minRating, maxRating)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func contains(set []string, name string) bool {
	for _, s := range set {
		if s == name {
			return true
		}
	}
	return false
}

func without(set []string, name string) ([]string, bool) {
	for i, s := range set {
		if s == name {
			out := make([]string, 0, len(set)-1)
			out = append(out, set[:i]...)
			return append(out, set[i+1:]...), true
		}
	}
	return set, false
}
