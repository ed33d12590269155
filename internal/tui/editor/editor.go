// ABOUTME: Reading-list entry editor as a bubbletea model
// ABOUTME: Uses a huh form and emits a patch holding only the fields the user changed

package editor

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/readinglist"
	"github.com/markalston/bookshelf/internal/tui/styles"
)

// SavedMsg is sent when the form is submitted
type SavedMsg struct {
	BookID int
	Patch  readinglist.Patch
}

// CancelledMsg is sent when the editor is left with Esc
type CancelledMsg struct{}

// Editor edits one reading-list entry
type Editor struct {
	entry readinglist.Entry
	form  *huh.Form
	width int

	// Form field values (strings for huh)
	status   readinglist.Status
	progress string
	rating   string
	note     string
}

var statusOptions = func() []huh.Option[readinglist.Status] {
	opts := make([]huh.Option[readinglist.Status], len(readinglist.Statuses))
	for i, s := range readinglist.Statuses {
		opts[i] = huh.NewOption(s.Label(), s)
	}
	return opts
}()

// New creates an editor prefilled from entry
func New(entry readinglist.Entry) *Editor {
	e := &Editor{
		entry:    entry,
		status:   entry.Status,
		progress: intString(entry.ProgressPages),
		rating:   intString(entry.UserRating),
	}
	if entry.Note != nil {
		e.note = *entry.Note
	}
	e.form = e.createForm()
	return e
}

func intString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func (e *Editor) createForm() *huh.Form {
	progressDesc := "Pages read; leave blank to clear"
	if pc := e.entry.Book.PageCount; pc != nil {
		progressDesc = fmt.Sprintf("Pages read of %d; leave blank to clear", *pc)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[readinglist.Status]().
				Title("Status").
				Options(statusOptions...).
				Value(&e.status),
			huh.NewInput().
				Title("Progress").
				Description(progressDesc).
				Placeholder("e.g., 120").
				CharLimit(6).
				Value(&e.progress).
				Validate(validateProgress),
			huh.NewInput().
				Title("Your rating").
				Description("1 to 5; leave blank to clear").
				CharLimit(1).
				Value(&e.rating).
				Validate(validateRating),
			huh.NewText().
				Title("Note").
				CharLimit(1000).
				Lines(4).
				Value(&e.note),
		).Title(e.entry.Book.Title).
			Description("Edit your reading-list entry"),
	).WithTheme(styles.FormTheme())
}

// Init implements tea.Model
func (e *Editor) Init() tea.Cmd {
	return e.form.Init()
}

// Update implements tea.Model
func (e *Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		e.width = msg.Width
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return e, func() tea.Msg { return CancelledMsg{} }
		}
	}

	form, cmd := e.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		e.form = f
	}

	if e.form.State == huh.StateCompleted {
		p, err := e.Patch()
		if err != nil {
			// Validation normally stops this; rebuild so the user can fix it.
			e.form = e.createForm()
			return e, e.form.Init()
		}
		saved := SavedMsg{BookID: e.entry.BookID, Patch: p}
		return e, func() tea.Msg { return saved }
	}
	return e, cmd
}

// Patch compares the form against the entry and returns only the changes.
func (e *Editor) Patch() (readinglist.Patch, error) {
	var p readinglist.Patch
	if e.status != e.entry.Status {
		st := e.status
		p.Status = &st
	}

	progress, err := readinglist.ParseProgress(e.progress)
	if err != nil {
		return p, err
	}
	if !sameInt(progress, e.entry.ProgressPages) {
		p.ProgressPages = client.FromPtr(progress)
	}

	rating, err := readinglist.ParseRating(e.rating)
	if err != nil {
		return p, err
	}
	if !sameInt(rating, e.entry.UserRating) {
		p.UserRating = client.FromPtr(rating)
	}

	note := readinglist.NoteValue(e.note)
	if !sameString(note, e.entry.Note) {
		p.Note = client.FromPtr(note)
	}
	return p, nil
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// View implements tea.Model
func (e *Editor) View() string {
	var sb strings.Builder
	sb.WriteString(e.renderHeader())
	sb.WriteString("\n\n")
	sb.WriteString(e.form.View())
	return sb.String()
}

// renderHeader shows what is being edited and the current values.
func (e *Editor) renderHeader() string {
	width := e.width - 1
	if width < 60 {
		width = 60
	}
	muted := lipgloss.NewStyle().Foreground(styles.Muted)

	current := "Currently " + e.entry.Status.Label()
	if e.entry.ProgressPages != nil {
		current += fmt.Sprintf(", page %d", *e.entry.ProgressPages)
	}
	if e.entry.UserRating != nil {
		current += fmt.Sprintf(", rated %d/5", *e.entry.UserRating)
	}

	return styles.Panel.Width(width - 2).Render(
		styles.ValueStyle.Render(e.entry.Book.Title) + "\n" + muted.Render(current))
}

func validateProgress(s string) error {
	if _, err := readinglist.ParseProgress(s); err != nil {
		return fmt.Errorf("must be a whole number of pages")
	}
	return nil
}

func validateRating(s string) error {
	if _, err := readinglist.ParseRating(s); err != nil {
		return fmt.Errorf("must be a whole number from 1 to 5")
	}
	return nil
}
