// ABOUTME: Tests for the home menu
// ABOUTME: Validates which options are offered and the cancel key

package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMenuSignedOut(t *testing.T) {
	m := New(false, "")

	if !m.Enabled(ChoiceBrowse) {
		t.Error("expected browse to always be offered")
	}
	if m.Enabled(ChoiceReadingList) {
		t.Error("expected reading list to need a session")
	}
	if !m.Enabled(ChoiceLogin) || !m.Enabled(ChoiceRegister) {
		t.Error("expected login and register when signed out")
	}
	if m.Enabled(ChoiceLogout) {
		t.Error("expected no logout when signed out")
	}
}

func TestMenuSignedIn(t *testing.T) {
	m := New(true, "Ada")

	if !m.Enabled(ChoiceReadingList) || !m.Enabled(ChoiceLogout) {
		t.Error("expected reading list and logout when signed in")
	}
	if m.Enabled(ChoiceLogin) {
		t.Error("expected no login when signed in")
	}
	if m.options[4].label != "Log out Ada" {
		t.Errorf("expected logout label to name the user, got %q", m.options[4].label)
	}
}

func TestMenuEscCancels(t *testing.T) {
	m := New(false, "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(CancelledMsg); !ok {
		t.Error("expected CancelledMsg")
	}
}

func TestChoiceString(t *testing.T) {
	tests := []struct {
		choice   Choice
		expected string
	}{
		{ChoiceBrowse, "browse"},
		{ChoiceReadingList, "readinglist"},
		{ChoiceLogin, "login"},
		{ChoiceRegister, "register"},
		{ChoiceLogout, "logout"},
		{ChoiceQuit, "quit"},
		{Choice(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.choice.String(); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}
