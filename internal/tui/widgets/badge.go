// ABOUTME: Status badges and rating stars for books and reading-list entries
// ABOUTME: Provides colored inline badges keyed by reading status

package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/bookshelf/internal/readinglist"
	"github.com/markalston/bookshelf/internal/tui/icons"
)

// Badge colors
var (
	BadgeWantBg     = lipgloss.Color("#3B82F6")
	BadgeReadingBg  = lipgloss.Color("#8B5CF6")
	BadgeDoneBg     = lipgloss.Color("#10B981")
	BadgeDroppedBg  = lipgloss.Color("#6B7280")
	BadgeFg         = lipgloss.Color("#FFFFFF")
	BadgeUnlistedBg = lipgloss.Color("#374151")
)

// Badge renders text on a colored background
func Badge(text string, bg lipgloss.Color) string {
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(BadgeFg).
		Padding(0, 1).
		Bold(true).
		Render(text)
}

// StatusBadge renders the display label of a reading status.
func StatusBadge(s readinglist.Status) string {
	return Badge(StatusIcon(s)+" "+s.Label(), statusColor(s))
}

// UnlistedBadge marks a book that is not on the reading list.
func UnlistedBadge() string {
	return Badge("Not on list", BadgeUnlistedBg)
}

// StatusIcon returns the icon for a reading status
func StatusIcon(s readinglist.Status) string {
	switch s {
	case readinglist.Want:
		return icons.Want.String()
	case readinglist.Reading:
		return icons.Reading.String()
	case readinglist.Completed:
		return icons.Finished.String()
	case readinglist.Dropped:
		return icons.Dropped.String()
	default:
		return "?"
	}
}

func statusColor(s readinglist.Status) lipgloss.Color {
	switch s {
	case readinglist.Want:
		return BadgeWantBg
	case readinglist.Reading:
		return BadgeReadingBg
	case readinglist.Completed:
		return BadgeDoneBg
	default:
		return BadgeDroppedBg
	}
}

// Stars renders a 0..5 rating as five stars, rounding to the nearest whole.
func Stars(rating float64) string {
	full := int(math.Round(rating))
	if full < 0 {
		full = 0
	}
	if full > 5 {
		full = 5
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")).
		Render(strings.Repeat(icons.Star.String(), full) + strings.Repeat(icons.Empty.String(), 5-full))
}

// AverageRating renders stars plus the numeric average, or a dash when unrated.
func AverageRating(avg *float64) string {
	if avg == nil {
		return lipgloss.NewStyle().Foreground(BadgeDroppedBg).Render("unrated")
	}
	return fmt.Sprintf("%s %.2f", Stars(*avg), *avg)
}
