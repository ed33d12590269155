// ABOUTME: Book detail screen with the reader's reading-list entry for that book
// ABOUTME: Add, status and remove actions go through the synchronizer before the view changes

package detail

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

// BookLoader fetches a book by id.
type BookLoader func(ctx context.Context, id int) (*client.Book, error)

// EditMsg asks the app to open the entry editor
type EditMsg struct {
	Entry readinglist.Entry
}

// RemoveMsg asks the app to confirm removing the book from the list
type RemoveMsg struct {
	BookID int
	Title  string
}

// BackMsg asks the app to leave the detail screen
type BackMsg struct{}

type loadedMsg struct {
	bookID int
	book   *client.Book
	entry  *readinglist.Entry
	err    error
}

type mutatedMsg struct {
	bookID  int
	entry   *readinglist.Entry
	removed bool
	action  string
	err     error
}

// Detail is the book detail screen
type Detail struct {
	ctx    context.Context
	load   BookLoader
	lists  *readinglist.Synchronizer
	userID int
	bookID int

	book     *client.Book
	entry    *readinglist.Entry
	selected readinglist.Status
	loading  bool
	busy     bool
	err      error
	notice   string
	width    int
}

// New creates the screen for bookID. userID is zero when signed out.
func New(ctx context.Context, load BookLoader, lists *readinglist.Synchronizer, userID, bookID int) *Detail {
	return &Detail{
		ctx:      ctx,
		load:     load,
		lists:    lists,
		userID:   userID,
		bookID:   bookID,
		selected: readinglist.DefaultStatus,
		loading:  true,
	}
}

// Init implements tea.Model
func (d *Detail) Init() tea.Cmd {
	return d.fetch()
}

// fetch loads the book and the entry together; both land in one message.
func (d *Detail) fetch() tea.Cmd {
	ctx, load, lists, userID, bookID := d.ctx, d.load, d.lists, d.userID, d.bookID
	return func() tea.Msg {
		msg := loadedMsg{bookID: bookID}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			book, err := load(gctx, bookID)
			msg.book = book
			return err
		})
		if userID > 0 {
			g.Go(func() error {
				entry, err := lists.Lookup(gctx, userID, bookID)
				msg.entry = entry
				return err
			})
		}
		msg.err = g.Wait()
		return msg
	}
}

// SetWidth sets the render width
func (d *Detail) SetWidth(width int) {
	d.width = width
}

// Update implements tea.Model
func (d *Detail) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.bookID != d.bookID {
			return d, nil
		}
		d.loading = false
		d.err = msg.err
		if msg.book != nil {
			d.book = msg.book
		}
		d.setEntry(msg.entry)
		return d, nil

	case mutatedMsg:
		if msg.bookID != d.bookID {
			return d, nil
		}
		d.busy = false
		if msg.err != nil {
			d.notice = fmt.Sprintf("Could not %s: %v", msg.action, msg.err)
			if d.entry != nil {
				d.selected = d.entry.Status
			}
			return d, nil
		}
		if msg.removed {
			d.setEntry(nil)
			d.notice = "Removed from your reading list."
			return d, nil
		}
		d.setEntry(msg.entry)
		d.notice = "Reading list updated."
		return d, nil

	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return d, nil
}

func (d *Detail) setEntry(e *readinglist.Entry) {
	d.entry = e
	if e != nil {
		d.selected = e.Status
	} else {
		d.selected = readinglist.DefaultStatus
	}
}

func (d *Detail) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "b", "q":
		return d, func() tea.Msg { return BackMsg{} }
	case "r":
		d.loading = true
		return d, d.fetch()
	}

	if d.loading || d.busy || d.book == nil {
		return d, nil
	}

	switch msg.String() {
	case "s", "a", "e", "d":
		if d.userID == 0 {
			d.notice = "Log in to keep a reading list."
			return d, nil
		}
	}

	switch msg.String() {
	case "s":
		d.selected = d.selected.Next()
		if d.entry == nil {
			return d, nil
		}
		st := d.selected
		return d, d.Save(readinglist.Patch{Status: &st})
	case "a":
		if d.entry != nil {
			d.notice = "Already on your reading list."
			return d, nil
		}
		return d, d.add(d.selected)
	case "e":
		if d.entry == nil {
			d.notice = "Add the book to your list before editing."
			return d, nil
		}
		entry := *d.entry
		return d, func() tea.Msg { return EditMsg{Entry: entry} }
	case "d":
		if d.entry == nil {
			return d, nil
		}
		id, title := d.bookID, d.book.Title
		return d, func() tea.Msg { return RemoveMsg{BookID: id, Title: title} }
	}
	return d, nil
}

func (d *Detail) add(status readinglist.Status) tea.Cmd {
	d.busy = true
	d.notice = ""
	ctx, lists, userID, bookID := d.ctx, d.lists, d.userID, d.bookID
	return func() tea.Msg {
		entry, err := lists.Add(ctx, userID, bookID, status)
		return mutatedMsg{bookID: bookID, entry: entry, action: "add the book", err: err}
	}
}

// Save sends p for this book. The view changes when the service answers.
func (d *Detail) Save(p readinglist.Patch) tea.Cmd {
	d.busy = true
	d.notice = ""
	ctx, lists, userID, bookID := d.ctx, d.lists, d.userID, d.bookID
	return func() tea.Msg {
		entry, err := lists.Update(ctx, userID, bookID, p)
		return mutatedMsg{bookID: bookID, entry: entry, action: "update the entry", err: err}
	}
}

// Remove deletes the entry once the user has answered the confirmation.
// An unconfirmed removal leaves everything as it was.
func (d *Detail) Remove(confirmed bool) tea.Cmd {
	if !confirmed {
		d.notice = "Kept on your reading list."
		return nil
	}
	d.busy = true
	d.notice = ""
	ctx, lists, userID, bookID := d.ctx, d.lists, d.userID, d.bookID
	return func() tea.Msg {
		err := lists.Remove(ctx, userID, bookID, true)
		return mutatedMsg{bookID: bookID, removed: err == nil, action: "remove the book", err: err}
	}
}

// BookID returns the book shown
func (d *Detail) BookID() int {
	return d.bookID
}

// Entry returns the reading-list entry shown, or nil
func (d *Detail) Entry() *readinglist.Entry {
	return d.entry
}

// Selected returns the status selector value
func (d *Detail) Selected() readinglist.Status {
	return d.selected
}

// Busy reports whether a load or mutation is in flight
func (d *Detail) Busy() bool {
	return d.loading || d.busy
}

// Notice returns the status line message, if any
func (d *Detail) Notice() string {
	return d.notice
}

// Shortcuts lists the keys for this screen
func (d *Detail) Shortcuts() []string {
	if d.entry == nil {
		return []string{"s Status", "a Add", "r Reload", "b Back"}
	}
	return []string{"s Status", "e Edit", "d Remove", "r Reload", "b Back"}
}

// View implements tea.Model
func (d *Detail) View() string {
	if d.book == nil {
		if d.err != nil {
			return styles.StatusCritical.Render("Error: " + d.err.Error())
		}
		return styles.Subtitle.Render("Loading book...")
	}

	b := d.book
	var sb strings.Builder
	sb.WriteString(styles.Title.Render(b.Title) + "\n")
	if authors := b.AuthorNames(); len(authors) > 0 {
		sb.WriteString("by " + styles.ValueStyle.Render(strings.Join(authors, ", ")) + "\n\n")
	}

	label := lipgloss.NewStyle().Foreground(styles.Muted).Width(10)
	rating := widgets.AverageRating(b.AverageRating)
	if b.TotalRatings != nil {
		rating += styles.Subtitle.Render(fmt.Sprintf(" (%d ratings)", *b.TotalRatings))
	}
	sb.WriteString(label.Render("Rating") + rating + "\n")
	if b.PageCount != nil {
		sb.WriteString(label.Render("Pages") + fmt.Sprintf("%d", *b.PageCount) + "\n")
	}
	if b.Format != nil {
		sb.WriteString(label.Render("Format") + *b.Format + "\n")
	}
	if b.ISBN != "" {
		sb.WriteString(label.Render("ISBN") + b.ISBN + "\n")
	}
	if genres := b.GenreNames(); len(genres) > 0 {
		sb.WriteString(label.Render("Genres") + strings.Join(genres, ", ") + "\n")
	}
	sb.WriteString(label.Render("Link") + b.Link() + "\n")

	if b.Description != nil && *b.Description != "" {
		width := d.width - 4
		if width < 40 {
			width = 76
		}
		sb.WriteString("\n" + lipgloss.NewStyle().Width(width).Render(*b.Description) + "\n")
	}

	sb.WriteString("\n" + d.renderEntry())
	if d.err != nil {
		sb.WriteString("\n" + styles.StatusCritical.Render("Error: "+d.err.Error()))
	}
	if d.notice != "" {
		sb.WriteString("\n" + styles.StatusWarning.Render(d.notice))
	}
	return sb.String()
}

func (d *Detail) renderEntry() string {
	if d.userID == 0 {
		return styles.Subtitle.Render("Log in to add this book to a reading list.")
	}
	if d.entry == nil {
		return widgets.UnlistedBadge() + "  add as " + widgets.StatusBadge(d.selected)
	}
	e := d.entry
	var sb strings.Builder
	sb.WriteString(widgets.StatusBadge(e.Status))
	if d.selected != e.Status {
		sb.WriteString(" -> " + widgets.StatusBadge(d.selected))
	}
	pageCount := e.Book.PageCount
	if pageCount == nil {
		pageCount = d.book.PageCount
	}
	sb.WriteString("\n" + widgets.ProgressBarWithLabel(e.ProgressPages, pageCount, widgets.DefaultProgressBarConfig()))
	if e.UserRating != nil {
		sb.WriteString("\nYour rating: " + widgets.Stars(float64(*e.UserRating)))
	}
	if e.Note != nil {
		sb.WriteString("\nNote: " + *e.Note)
	}
	return sb.String()
}
