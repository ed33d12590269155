// ABOUTME: Tests for the confirmation dialog
// ABOUTME: Esc and the default answer must never confirm

package confirm

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestEscDeclines(t *testing.T) {
	d := New("Remove?", "", "Remove")

	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(ResultMsg)
	if !ok || msg.Confirmed {
		t.Errorf("expected a declined result, got %+v", cmd())
	}
}

func TestDefaultIsNo(t *testing.T) {
	d := New("Remove?", "", "Remove")
	if d.answer {
		t.Error("expected the default answer to be no")
	}
}
