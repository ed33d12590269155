// ABOUTME: Reading-list screen: the signed-in reader's entries with statistics
// ABOUTME: Refetches from the service every time it is shown

package shelf

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/readinglist"
	"github.com/markalston/bookshelf/internal/tui/styles"
	"github.com/markalston/bookshelf/internal/tui/widgets"
)

// OpenBookMsg asks the app to show a book
type OpenBookMsg struct {
	BookID int
}

// BackMsg asks the app to leave the reading list
type BackMsg struct{}

type loadedMsg struct {
	seq   int
	stats *client.ReadingStats
	err   error
}

// filters is the cycle for the status filter; the empty status means all.
var filters = append([]readinglist.Status{""}, readinglist.Statuses...)

// Shelf is the reading-list screen
type Shelf struct {
	ctx    context.Context
	lists  *readinglist.Synchronizer
	userID int

	filter  int
	seq     int
	cursor  int
	loading bool
	stats   *client.ReadingStats
	err     error
	height  int
}

// New creates the screen for userID
func New(ctx context.Context, lists *readinglist.Synchronizer, userID int) *Shelf {
	return &Shelf{ctx: ctx, lists: lists, userID: userID}
}

// Init implements tea.Model
func (s *Shelf) Init() tea.Cmd {
	return s.Reload()
}

// Reload refetches the entries and statistics. Only the latest reload is applied.
func (s *Shelf) Reload() tea.Cmd {
	s.seq++
	s.loading = true
	ctx, lists, userID, seq := s.ctx, s.lists, s.userID, s.seq
	status := filters[s.filter]
	return func() tea.Msg {
		msg := loadedMsg{seq: seq}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if status == "" {
				return lists.Load(gctx, userID)
			}
			return lists.LoadStatus(gctx, userID, status)
		})
		g.Go(func() error {
			stats, err := lists.Stats(gctx, userID)
			msg.stats = stats
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

// SetHeight sets the available rows
func (s *Shelf) SetHeight(h int) {
	s.height = h
}

// Update implements tea.Model
func (s *Shelf) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.seq != s.seq {
			return s, nil
		}
		s.loading = false
		s.err = msg.err
		if msg.stats != nil {
			s.stats = msg.stats
		}
		if n := len(s.lists.Entries()); s.cursor >= n {
			s.cursor = max(n-1, 0)
		}
		return s, nil

	case tea.KeyMsg:
		entries := s.lists.Entries()
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(entries)-1 {
				s.cursor++
			}
		case "enter":
			if s.cursor < len(entries) {
				id := entries[s.cursor].BookID
				return s, func() tea.Msg { return OpenBookMsg{BookID: id} }
			}
		case "f":
			s.filter = (s.filter + 1) % len(filters)
			s.cursor = 0
			return s, s.Reload()
		case "r":
			return s, s.Reload()
		case "esc", "b", "q":
			return s, func() tea.Msg { return BackMsg{} }
		}
	}
	return s, nil
}

// Filter returns the status filter; empty means all statuses.
func (s *Shelf) Filter() readinglist.Status {
	return filters[s.filter]
}

// Loading reports whether a reload is in flight
func (s *Shelf) Loading() bool {
	return s.loading
}

// Cursor returns the highlighted row
func (s *Shelf) Cursor() int {
	return s.cursor
}

// Shortcuts lists the keys for this screen
func (s *Shelf) Shortcuts() []string {
	return []string{"↑↓ Navigate", "Enter Open", "f Filter", "r Refresh", "b Back"}
}

// View implements tea.Model
func (s *Shelf) View() string {
	var sb strings.Builder
	sb.WriteString(s.renderStats() + "\n\n")

	filter := "All statuses"
	if st := s.Filter(); st != "" {
		filter = st.Label()
	}
	sb.WriteString(styles.Subtitle.Render("Showing: "+filter) + "\n\n")

	entries := s.lists.Entries()
	if len(entries) == 0 && s.err == nil {
		if s.loading {
			sb.WriteString(styles.Subtitle.Render("Loading your reading list..."))
		} else {
			sb.WriteString(styles.Subtitle.Render("Nothing here yet. Add books from the catalog."))
		}
	}

	rows := len(entries)
	if s.height > 0 {
		rows = max(3, s.height-8)
	}
	start := 0
	if s.cursor >= rows {
		start = s.cursor - rows + 1
	}
	end := min(start+rows, len(entries))
	for i := start; i < end; i++ {
		line := formatRow(entries[i])
		if i == s.cursor {
			line = styles.Selected.Render("> ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}

	if s.err != nil {
		sb.WriteString("\n" + styles.StatusCritical.Render("Error: "+s.err.Error()))
	}
	return sb.String()
}

func formatRow(e readinglist.Entry) string {
	title := lipgloss.NewStyle().Width(36).MaxWidth(36).Render(e.Book.Title)
	status := lipgloss.NewStyle().Width(20).Render(widgets.StatusIcon(e.Status) + " " + e.Status.Label())
	progress := strings.Repeat(" ", 10)
	if e.ProgressPages != nil && e.Book.PageCount != nil {
		progress = widgets.CompactProgressBar(e.ProgressRatio(), 10, styles.Accent)
	}
	rating := ""
	if e.UserRating != nil {
		rating = widgets.Stars(float64(*e.UserRating))
	}
	return title + " " + status + " " + progress + " " + rating
}

func (s *Shelf) renderStats() string {
	if s.stats == nil {
		sum := s.lists.Summary()
		return styles.ValueStyle.Render(fmt.Sprintf("%d books", sum.Total))
	}
	parts := []string{styles.ValueStyle.Render(fmt.Sprintf("%d books", s.stats.TotalBooks))}
	for _, st := range readinglist.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", st.Label(), s.stats.StatusCounts[string(st)]))
	}
	avg := "no ratings yet"
	if s.stats.AverageRating != nil {
		avg = fmt.Sprintf("average rating %.1f", *s.stats.AverageRating)
	}
	parts = append(parts, avg)
	return strings.Join(parts, styles.Subtitle.Render("  ·  "))
}
