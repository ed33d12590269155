// ABOUTME: Home menu for the TUI
// ABOUTME: Offers catalog browsing, the reading list and session actions

package menu

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/bookshelf/internal/tui/styles"
)

// Choice is a menu destination
type Choice int

const (
	ChoiceBrowse Choice = iota
	ChoiceReadingList
	ChoiceLogin
	ChoiceRegister
	ChoiceLogout
	ChoiceQuit
)

// ChosenMsg is sent when the user picks an option
type ChosenMsg struct {
	Choice Choice
}

// CancelledMsg is sent when the user leaves the menu with Esc
type CancelledMsg struct{}

type option struct {
	label   string
	value   Choice
	enabled bool
}

// Menu is the home screen
type Menu struct {
	options  []option
	selected Choice
	form     *huh.Form
}

// New creates the menu. Reading-list and logout entries need a session.
func New(authenticated bool, userName string) *Menu {
	m := &Menu{selected: ChoiceBrowse}
	m.options = []option{
		{label: "Browse the catalog", value: ChoiceBrowse, enabled: true},
		{label: "My reading list", value: ChoiceReadingList, enabled: authenticated},
		{label: "Log in", value: ChoiceLogin, enabled: !authenticated},
		{label: "Create an account", value: ChoiceRegister, enabled: !authenticated},
		{label: "Log out " + userName, value: ChoiceLogout, enabled: authenticated},
		{label: "Quit", value: ChoiceQuit, enabled: true},
	}

	var opts []huh.Option[Choice]
	for _, o := range m.options {
		if o.enabled {
			opts = append(opts, huh.NewOption(o.label, o.value))
		}
	}
	title := "What would you like to do?"
	if authenticated {
		title = "Welcome back, " + userName
	}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Choice]().
				Title(title).
				Options(opts...).
				Value(&m.selected),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
	return m
}

// Init implements tea.Model
func (m *Menu) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q":
			return m, func() tea.Msg { return CancelledMsg{} }
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		choice := m.selected
		return m, func() tea.Msg { return ChosenMsg{Choice: choice} }
	}
	return m, cmd
}

// View implements tea.Model
func (m *Menu) View() string {
	return m.form.View()
}

// Enabled reports whether c is offered.
func (m *Menu) Enabled(c Choice) bool {
	for _, o := range m.options {
		if o.value == c {
			return o.enabled
		}
	}
	return false
}

// String returns the string representation of a Choice
func (c Choice) String() string {
	switch c {
	case ChoiceBrowse:
		return "browse"
	case ChoiceReadingList:
		return "readinglist"
	case ChoiceLogin:
		return "login"
	case ChoiceRegister:
		return "register"
	case ChoiceLogout:
		return "logout"
	case ChoiceQuit:
		return "quit"
	default:
		return "unknown"
	}
}
