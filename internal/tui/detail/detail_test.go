// ABOUTME: Tests for the book detail screen against the development catalog service
// ABOUTME: Covers loading, adding, status cycling and confirm-gated removal

package detail

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/devserver"
	"github.com/markalston/bookshelf/internal/readinglist"
)

const hobbitID = 8

func setup(t *testing.T, signedIn bool) (*Detail, *readinglist.Synchronizer) {
	t.Helper()
	srv, err := devserver.New(devserver.Options{JWTSecret: "test-secret"})
	if err != nil {
		t.Fatalf("unexpected error creating server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL)
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}

	userID := 0
	if signedIn {
		ctx := context.Background()
		if _, err := c.Register(ctx, client.RegisterRequest{Email: "reader@example.com", Password: "secret123"}); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		resp, err := c.Login(ctx, "reader@example.com", "secret123")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		c.SetToken(resp.AccessToken)
		userID = resp.User.UserID
	}

	lists := readinglist.New(c, 0, nil)
	return New(context.Background(), c.GetBook, lists, userID, hobbitID), lists
}

// step runs cmd and feeds its message back into d.
func step(t *testing.T, d *Detail, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	d.Update(msg)
	return msg
}

func press(d *Detail, k string) tea.Cmd {
	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
	return cmd
}

func TestLoadSignedOut(t *testing.T) {
	d, _ := setup(t, false)

	step(t, d, d.Init())

	if d.Busy() {
		t.Error("expected load to finish")
	}
	if !strings.Contains(d.View(), "The Hobbit") {
		t.Error("expected the title in the view")
	}
	if d.Entry() != nil {
		t.Error("expected no entry when signed out")
	}

	if cmd := press(d, "a"); cmd != nil {
		t.Error("expected add to need a session")
	}
	if d.Notice() == "" {
		t.Error("expected a login hint")
	}
}

func TestAddWithSelectedStatus(t *testing.T) {
	d, lists := setup(t, true)
	step(t, d, d.Init())

	if d.Selected() != readinglist.Want {
		t.Fatalf("expected selector to default to want, got %s", d.Selected())
	}
	if cmd := press(d, "s"); cmd != nil {
		t.Error("cycling the selector for an unlisted book should not call the service")
	}
	if d.Selected() != readinglist.Reading {
		t.Fatalf("expected reading after one cycle, got %s", d.Selected())
	}

	step(t, d, press(d, "a"))

	e := d.Entry()
	if e == nil || e.Status != readinglist.Reading {
		t.Fatalf("expected a reading entry, got %+v", e)
	}
	if cur := lists.Current(); cur == nil || cur.BookID != hobbitID {
		t.Errorf("expected synchronizer current to be the book, got %+v", cur)
	}

	if cmd := press(d, "a"); cmd != nil {
		t.Error("expected a second add to be refused locally")
	}
}

func TestStatusCycleOnListedBook(t *testing.T) {
	d, _ := setup(t, true)
	step(t, d, d.Init())
	step(t, d, press(d, "a"))

	step(t, d, press(d, "s"))

	if e := d.Entry(); e == nil || e.Status != readinglist.Reading {
		t.Errorf("expected status updated to reading, got %+v", e)
	}
}

func TestRemoveNeedsConfirmation(t *testing.T) {
	d, lists := setup(t, true)
	step(t, d, d.Init())
	step(t, d, press(d, "a"))

	msg := press(d, "d")()
	rm, ok := msg.(RemoveMsg)
	if !ok || rm.BookID != hobbitID || rm.Title != "The Hobbit" {
		t.Fatalf("expected RemoveMsg for the book, got %+v", msg)
	}

	if cmd := d.Remove(false); cmd != nil {
		t.Error("declined removal must not call the service")
	}
	if d.Entry() == nil {
		t.Fatal("declined removal must keep the entry")
	}

	step(t, d, d.Remove(true))

	if d.Entry() != nil {
		t.Error("expected entry cleared after removal")
	}
	if lists.Current() != nil {
		t.Error("expected synchronizer current cleared")
	}
	if d.Selected() != readinglist.DefaultStatus {
		t.Errorf("expected selector reset, got %s", d.Selected())
	}
}

func TestEditCarriesEntry(t *testing.T) {
	d, _ := setup(t, true)
	step(t, d, d.Init())

	if cmd := press(d, "e"); cmd != nil {
		t.Error("expected edit to need a listed book")
	}

	step(t, d, press(d, "a"))
	msg := press(d, "e")()
	edit, ok := msg.(EditMsg)
	if !ok || edit.Entry.BookID != hobbitID {
		t.Errorf("expected EditMsg for the book, got %+v", msg)
	}
}

func TestLoadMissingBook(t *testing.T) {
	d, _ := setup(t, false)
	d.bookID = 999

	step(t, d, d.Init())

	if !strings.Contains(d.View(), "Error") {
		t.Errorf("expected an error view, got %q", d.View())
	}
}

func TestStaleMessagesIgnored(t *testing.T) {
	d, _ := setup(t, false)
	d.Update(loadedMsg{bookID: 1, book: &client.Book{BookID: 1, Title: "Other"}})

	if strings.Contains(d.View(), "Other") {
		t.Error("expected a message for another book to be ignored")
	}
}
