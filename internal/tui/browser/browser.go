// ABOUTME: Catalog browser screen: title search, author and genre filters, results and pages
// ABOUTME: Drives the catalog engine and the autocomplete fields from key input

package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/bookshelf/internal/autocomplete"
	"github.com/markalston/bookshelf/internal/catalog"
	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/tui/icons"
	"github.com/markalston/bookshelf/internal/tui/styles"
)

// RatingStep is how far one key press moves a rating bound.
const RatingStep = 0.5

// panelRows is how many suggestions are shown at once.
const panelRows = 8

// Focus is the input region holding the keyboard
type Focus int

const (
	FocusTitle Focus = iota
	FocusAuthors
	FocusGenres
	FocusResults
	focusCount
)

// OpenBookMsg asks the app to show a book
type OpenBookMsg struct {
	BookID int
}

// BackMsg asks the app to leave the browser
type BackMsg struct{}

type resultMsg struct {
	result catalog.Result
}

type debounceMsg struct {
	debounce autocomplete.Debounce
}

type outcomeMsg struct {
	outcome autocomplete.Outcome
}

// Browser is the catalog screen
type Browser struct {
	ctx     context.Context
	engine  *catalog.Engine
	authors *autocomplete.Field
	genres  *autocomplete.Field

	title       textinput.Model
	authorInput textinput.Model
	genreInput  textinput.Model

	focus  Focus
	cursor int
	tag    int // selected tag in the focused facet, -1 for none
	notice string
	width  int
	height int
}

// New creates a browser over engine. Network calls made on behalf of the
// screen use ctx.
func New(ctx context.Context, engine *catalog.Engine, authors, genres *autocomplete.Field) *Browser {
	b := &Browser{
		ctx:         ctx,
		engine:      engine,
		authors:     authors,
		genres:      genres,
		title:       newInput("Title", "search titles, Enter to run"),
		authorInput: newInput("Authors", "type to find authors"),
		genreInput:  newInput("Genres", "type to find genres"),
		tag:         -1,
	}
	b.title.Focus()
	return b
}

func newInput(prompt, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = lipgloss.NewStyle().Foreground(styles.Muted).Width(9).Render(prompt) + " "
	ti.Placeholder = placeholder
	ti.CharLimit = 100
	ti.Width = 40
	return ti
}

// Init implements tea.Model and runs the initial search
func (b *Browser) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, b.run(b.engine.Refresh()))
}

// Refresh re-runs the current search
func (b *Browser) Refresh() tea.Cmd {
	return b.run(b.engine.Refresh())
}

// SetSize sets the screen size
func (b *Browser) SetSize(width, height int) {
	b.width = width
	b.height = height
	w := width - 20
	if w < 20 {
		w = 20
	}
	b.title.Width = w
	b.authorInput.Width = w
	b.genreInput.Width = w
}

// run executes q off the update loop. A nil query means nothing to do.
func (b *Browser) run(q *catalog.Query) tea.Cmd {
	if q == nil {
		return nil
	}
	engine, ctx := b.engine, b.ctx
	return func() tea.Msg {
		return resultMsg{result: engine.Fetch(ctx, q)}
	}
}

// Update implements tea.Model
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.SetSize(msg.Width, msg.Height)
		return b, nil

	case resultMsg:
		if b.engine.Apply(msg.result) {
			b.cursor = 0
			if msg.result.Err != nil {
				b.notice = "Search failed: " + msg.result.Err.Error()
			} else {
				b.notice = ""
			}
		}
		return b, nil

	case debounceMsg:
		field := b.field(msg.debounce.Kind)
		lookup, ok := field.Settle(msg.debounce.Seq)
		if !ok {
			return b, nil
		}
		ctx := b.ctx
		return b, func() tea.Msg {
			return outcomeMsg{outcome: field.Fetch(ctx, lookup)}
		}

	case outcomeMsg:
		b.field(msg.outcome.Kind).Apply(msg.outcome)
		return b, nil

	case tea.KeyMsg:
		return b.handleKey(msg)
	}

	return b, b.updateFocused(msg)
}

func (b *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return b, b.setFocus((b.focus + 1) % focusCount)
	case "shift+tab":
		return b, b.setFocus((b.focus + focusCount - 1) % focusCount)
	case "esc":
		if f := b.focusedField(); f != nil && f.Visible() {
			f.Dismiss()
			return b, nil
		}
		return b, func() tea.Msg { return BackMsg{} }
	}

	switch b.focus {
	case FocusTitle:
		return b.handleTitleKey(msg)
	case FocusAuthors, FocusGenres:
		return b.handleFacetKey(msg)
	default:
		return b.handleResultsKey(msg)
	}
}

// setFocus moves the keyboard to f. Leaving a facet input hides its panel.
func (b *Browser) setFocus(f Focus) tea.Cmd {
	if prev := b.focusedField(); prev != nil && b.focus != f {
		prev.Dismiss()
	}
	b.focus = f
	b.tag = -1
	b.title.Blur()
	b.authorInput.Blur()
	b.genreInput.Blur()
	switch f {
	case FocusTitle:
		return b.title.Focus()
	case FocusAuthors:
		return b.authorInput.Focus()
	case FocusGenres:
		return b.genreInput.Focus()
	}
	return nil
}

func (b *Browser) handleTitleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		return b, b.run(b.engine.Submit())
	}
	var cmd tea.Cmd
	b.title, cmd = b.title.Update(msg)
	b.engine.SetTitle(b.title.Value())
	return b, cmd
}

func (b *Browser) handleFacetKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	field := b.focusedField()
	input := b.focusedInput()

	switch msg.Type {
	case tea.KeyUp:
		field.Move(-1)
		return b, nil
	case tea.KeyDown:
		field.Move(1)
		return b, nil
	case tea.KeyEnter:
		name, ok := field.SelectHighlighted()
		if !ok {
			return b, nil
		}
		input.SetValue("")
		return b, b.run(b.addFacet(field.Kind(), name))
	case tea.KeyLeft, tea.KeyRight:
		if input.Value() == "" {
			b.moveTag(field.Kind(), msg.Type == tea.KeyRight)
			return b, nil
		}
	case tea.KeyBackspace, tea.KeyDelete:
		if input.Value() == "" {
			return b, b.run(b.removeFacet(field.Kind()))
		}
	}

	b.tag = -1
	before := input.Value()
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	if input.Value() == before {
		return b, cmd
	}
	d, ok := field.Input(input.Value())
	if !ok {
		return b, cmd
	}
	return b, tea.Batch(cmd, tea.Tick(d.Delay, func(time.Time) tea.Msg {
		return debounceMsg{debounce: d}
	}))
}

func (b *Browser) addFacet(kind autocomplete.Kind, name string) *catalog.Query {
	if kind == autocomplete.Genres {
		return b.engine.AddGenre(name)
	}
	return b.engine.AddAuthor(name)
}

func (b *Browser) facets(kind autocomplete.Kind) []string {
	f := b.engine.Filter()
	if kind == autocomplete.Genres {
		return f.Genres
	}
	return f.Authors
}

// moveTag walks the tag selection. Left from no selection picks the last tag
// and right past the last tag clears the selection.
func (b *Browser) moveTag(kind autocomplete.Kind, right bool) {
	n := len(b.facets(kind))
	switch {
	case n == 0:
		b.tag = -1
	case right && b.tag >= 0:
		b.tag++
		if b.tag >= n {
			b.tag = -1
		}
	case !right && b.tag < 0:
		b.tag = n - 1
	case !right && b.tag > 0:
		b.tag--
	}
}

// removeFacet drops the selected tag, or the last one when none is selected.
func (b *Browser) removeFacet(kind autocomplete.Kind) *catalog.Query {
	names := b.facets(kind)
	if len(names) == 0 {
		return nil
	}
	idx := len(names) - 1
	if b.tag >= 0 && b.tag < len(names) {
		idx = b.tag
		b.tag = min(b.tag, len(names)-2)
	}
	if kind == autocomplete.Genres {
		return b.engine.RemoveGenre(names[idx])
	}
	return b.engine.RemoveAuthor(names[idx])
}

func (b *Browser) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	books := b.engine.Books()
	key := msg.String()

	switch key {
	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}
		return b, nil
	case "down", "j":
		if b.cursor < len(books)-1 {
			b.cursor++
		}
		return b, nil
	case "enter":
		if b.cursor < len(books) {
			id := books[b.cursor].BookID
			return b, func() tea.Msg { return OpenBookMsg{BookID: id} }
		}
		return b, nil
	case "q":
		return b, func() tea.Msg { return BackMsg{} }
	case "]", "right", "l":
		return b, b.run(b.engine.NextPage())
	case "[", "left", "h":
		return b, b.run(b.engine.PrevPage())
	case "r":
		return b, b.Refresh()
	case "x":
		return b, b.run(b.engine.ClearFilters())
	case "<", ">":
		f := b.engine.Filter()
		v := f.MinRating - RatingStep
		if key == ">" {
			v = f.MinRating + RatingStep
		}
		return b, b.rating(b.engine.SetMinRating(v))
	case "{", "}":
		f := b.engine.Filter()
		v := f.MaxRating - RatingStep
		if key == "}" {
			v = f.MaxRating + RatingStep
		}
		return b, b.rating(b.engine.SetMaxRating(v))
	}

	// Digits pick a button from the visible page window; 0 is the tenth.
	if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
		idx := int(key[0] - '1')
		if key == "0" {
			idx = 9
		}
		pages := b.engine.Controls().Pages
		if idx < len(pages) {
			return b, b.run(b.engine.SetPage(pages[idx]))
		}
	}
	return b, nil
}

func (b *Browser) rating(q *catalog.Query, err error) tea.Cmd {
	if err != nil {
		b.notice = err.Error()
		return nil
	}
	b.notice = ""
	return b.run(q)
}

func (b *Browser) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch b.focus {
	case FocusTitle:
		b.title, cmd = b.title.Update(msg)
	case FocusAuthors:
		b.authorInput, cmd = b.authorInput.Update(msg)
	case FocusGenres:
		b.genreInput, cmd = b.genreInput.Update(msg)
	}
	return cmd
}

func (b *Browser) field(kind autocomplete.Kind) *autocomplete.Field {
	if kind == autocomplete.Genres {
		return b.genres
	}
	return b.authors
}

func (b *Browser) focusedField() *autocomplete.Field {
	switch b.focus {
	case FocusAuthors:
		return b.authors
	case FocusGenres:
		return b.genres
	}
	return nil
}

func (b *Browser) focusedInput() *textinput.Model {
	switch b.focus {
	case FocusAuthors:
		return &b.authorInput
	case FocusGenres:
		return &b.genreInput
	}
	return &b.title
}

// Focus returns the focused region
func (b *Browser) Focus() Focus {
	return b.focus
}

// Loading reports whether a search is in flight
func (b *Browser) Loading() bool {
	return b.engine.Loading()
}

// Cursor returns the highlighted result row
func (b *Browser) Cursor() int {
	return b.cursor
}

// Notice returns the status line message, if any
func (b *Browser) Notice() string {
	return b.notice
}

// Shortcuts lists the keys that apply to the focused region.
func (b *Browser) Shortcuts() []string {
	switch b.focus {
	case FocusTitle:
		return []string{"Enter Search", "Tab Next", "Esc Back"}
	case FocusAuthors, FocusGenres:
		return []string{"↑↓ Choose", "Enter Add", "←→ Tag", "⌫ Remove", "Tab Next", "Esc Close"}
	default:
		return []string{"Enter Open", "[] Page", "<> Min", "{} Max", "x Clear", "q Back"}
	}
}

// View implements tea.Model
func (b *Browser) View() string {
	var sb strings.Builder
	f := b.engine.Filter()

	sb.WriteString(b.title.View() + "\n")
	sb.WriteString(b.authorInput.View() + "\n")
	sb.WriteString(renderTags(icons.Author.String(), f.Authors, b.selectedTag(FocusAuthors)))
	if b.focus == FocusAuthors {
		sb.WriteString(renderPanel(b.authors))
	}
	sb.WriteString(b.genreInput.View() + "\n")
	sb.WriteString(renderTags(icons.Genre.String(), f.Genres, b.selectedTag(FocusGenres)))
	if b.focus == FocusGenres {
		sb.WriteString(renderPanel(b.genres))
	}
	sb.WriteString(fmt.Sprintf("%s %.1f to %.1f\n\n",
		lipgloss.NewStyle().Foreground(styles.Muted).Width(9).Render("Rating"), f.MinRating, f.MaxRating))

	sb.WriteString(b.renderResults())
	sb.WriteString("\n" + b.renderPager())

	if b.notice != "" {
		sb.WriteString("\n" + styles.StatusWarning.Render(b.notice))
	}
	return sb.String()
}

func (b *Browser) selectedTag(f Focus) int {
	if b.focus != f {
		return -1
	}
	return b.tag
}

func renderTags(icon string, names []string, selected int) string {
	if len(names) == 0 {
		return ""
	}
	tags := make([]string, len(names))
	for i, n := range names {
		style := styles.Tag
		if i == selected {
			style = styles.Selected
		}
		tags[i] = style.Render(icon + " " + n)
	}
	return strings.Repeat(" ", 10) + strings.Join(tags, " ") + "\n"
}

func renderPanel(field *autocomplete.Field) string {
	if !field.Visible() {
		return ""
	}
	suggestions := field.Suggestions()
	if len(suggestions) == 0 {
		return strings.Repeat(" ", 10) + styles.Subtitle.Render("no matches") + "\n"
	}
	cursor := field.Cursor()
	start := 0
	if cursor >= panelRows {
		start = cursor - panelRows + 1
	}
	end := min(start+panelRows, len(suggestions))

	var sb strings.Builder
	for i := start; i < end; i++ {
		line := "  " + suggestions[i].Name
		if i == cursor {
			line = styles.Selected.Render("> " + suggestions[i].Name)
		}
		sb.WriteString(strings.Repeat(" ", 10) + line + "\n")
	}
	if len(suggestions) > panelRows {
		sb.WriteString(strings.Repeat(" ", 10) +
			styles.Subtitle.Render(fmt.Sprintf("%d of %d", cursor+1, len(suggestions))) + "\n")
	}
	return sb.String()
}

func (b *Browser) renderResults() string {
	books := b.engine.Books()
	if len(books) == 0 {
		if b.engine.Loading() {
			return styles.Subtitle.Render("Searching...") + "\n"
		}
		return styles.Subtitle.Render("No books match these filters.") + "\n"
	}

	rows := len(books)
	if b.height > 0 {
		// Leave room for the inputs, tags and pager.
		rows = max(3, b.height-14)
	}
	start := 0
	if b.cursor >= rows {
		start = b.cursor - rows + 1
	}
	end := min(start+rows, len(books))

	var sb strings.Builder
	for i := start; i < end; i++ {
		line := formatRow(books[i])
		if i == b.cursor && b.focus == FocusResults {
			line = styles.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func formatRow(book client.Book) string {
	rating := "    "
	if book.AverageRating != nil {
		rating = fmt.Sprintf("%.2f", *book.AverageRating)
	}
	line := styles.Rating.Render(rating) + "  " + book.Title
	if authors := book.AuthorNames(); len(authors) > 0 {
		line += styles.Subtitle.Render(" by " + strings.Join(authors, ", "))
	}
	return line
}

func (b *Browser) renderPager() string {
	page := b.engine.Page()
	c := b.engine.Controls()

	parts := []string{}
	if len(c.Pages) > 1 {
		prev := lipgloss.NewStyle().Foreground(styles.Muted)
		if c.HasPrev {
			prev = styles.KeyStyle
		}
		parts = append(parts, prev.Render("‹"))
		for _, p := range c.Pages {
			label := strconv.Itoa(p)
			if p == c.Current {
				parts = append(parts, styles.Tag.Render(label))
			} else {
				parts = append(parts, label)
			}
		}
		next := lipgloss.NewStyle().Foreground(styles.Muted)
		if c.HasNext {
			next = styles.KeyStyle
		}
		parts = append(parts, next.Render("›"))
	}

	summary := styles.Subtitle.Render(fmt.Sprintf("%d books, page %d of %d",
		page.TotalItems, page.CurrentPage, max(page.TotalPages, 1)))
	if len(parts) == 0 {
		return summary
	}
	return strings.Join(parts, " ") + "   " + summary
}
