// ABOUTME: Sign-in and registration form as a bubbletea model
// ABOUTME: Collects credentials with huh and hands them to the app to submit

package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/markalston/bookshelf/internal/tui/styles"
)

// Mode selects between signing in and creating an account
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// MinPasswordLength matches what the service accepts at registration.
const MinPasswordLength = 6

// SubmittedMsg carries the completed form
type SubmittedMsg struct {
	Mode        Mode
	Email       string
	Password    string
	DisplayName string
}

// CancelledMsg is sent when the user leaves the form with Esc
type CancelledMsg struct{}

// Form is the login or register screen
type Form struct {
	mode    Mode
	form    *huh.Form
	err     string
	pending bool

	email       string
	password    string
	displayName string
}

// New creates an empty form for mode
func New(mode Mode) *Form {
	f := &Form{mode: mode}
	f.form = f.build()
	return f
}

func (f *Form) build() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Email").
			Value(&f.email).
			Validate(validateEmail),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&f.password).
			Validate(f.validatePassword),
	}
	title := "Log in"
	desc := "Sign in to keep a reading list"
	if f.mode == ModeRegister {
		fields = append(fields, huh.NewInput().
			Title("Display name").
			Description("Optional; defaults to the part of your email before @").
			Value(&f.displayName))
		title = "Create an account"
		desc = "You will be signed in straight away"
	}
	return huh.NewForm(
		huh.NewGroup(fields...).Title(title).Description(desc),
	).WithTheme(styles.FormTheme())
}

// Init implements tea.Model
func (f *Form) Init() tea.Cmd {
	return f.form.Init()
}

// Update implements tea.Model
func (f *Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		return f, func() tea.Msg { return CancelledMsg{} }
	}
	if f.pending {
		return f, nil
	}

	form, cmd := f.form.Update(msg)
	if hf, ok := form.(*huh.Form); ok {
		f.form = hf
	}
	if f.form.State == huh.StateCompleted {
		f.pending = true
		f.err = ""
		sub := SubmittedMsg{
			Mode:        f.mode,
			Email:       strings.TrimSpace(f.email),
			Password:    f.password,
			DisplayName: strings.TrimSpace(f.displayName),
		}
		return f, func() tea.Msg { return sub }
	}
	return f, cmd
}

// Fail shows err and reopens the form with the email kept and the password
// cleared.
func (f *Form) Fail(err error) tea.Cmd {
	f.pending = false
	f.err = err.Error()
	f.password = ""
	f.form = f.build()
	return f.form.Init()
}

// Mode returns the form mode
func (f *Form) Mode() Mode {
	return f.mode
}

// Pending reports whether a submission is in flight
func (f *Form) Pending() bool {
	return f.pending
}

// Err returns the last failure shown on the form
func (f *Form) Err() string {
	return f.err
}

// View implements tea.Model
func (f *Form) View() string {
	var sb strings.Builder
	sb.WriteString(f.form.View())
	if f.pending {
		sb.WriteString("\n" + styles.Subtitle.Render("Signing in..."))
	}
	if f.err != "" {
		sb.WriteString("\n" + styles.StatusCritical.Render(f.err))
	}
	return sb.String()
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(s, "@") {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func (f *Form) validatePassword(s string) error {
	if s == "" {
		return fmt.Errorf("password is required")
	}
	if f.mode == ModeRegister && len(s) < MinPasswordLength {
		return fmt.Errorf("use at least %d characters", MinPasswordLength)
	}
	return nil
}
