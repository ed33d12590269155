// ABOUTME: Yes/no confirmation dialog for destructive actions
// ABOUTME: Wraps a huh confirm field; Esc counts as no

package confirm

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/bookshelf/internal/tui/styles"
)

// ResultMsg carries the answer
type ResultMsg struct {
	Confirmed bool
}

// Dialog asks one question
type Dialog struct {
	answer bool
	form   *huh.Form
}

// New creates a dialog. The default answer is no.
func New(title, description, affirmative string) *Dialog {
	d := &Dialog{}
	d.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(&d.answer),
		),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
	return d
}

// Init implements tea.Model
func (d *Dialog) Init() tea.Cmd {
	return d.form.Init()
}

// Update implements tea.Model
func (d *Dialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return d, func() tea.Msg { return ResultMsg{Confirmed: false} }
	}

	form, cmd := d.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		d.form = f
	}
	if d.form.State == huh.StateCompleted {
		answer := d.answer
		return d, func() tea.Msg { return ResultMsg{Confirmed: answer} }
	}
	return d, cmd
}

// View implements tea.Model
func (d *Dialog) View() string {
	return styles.ActivePanel.Render(d.form.View())
}
