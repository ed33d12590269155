// ABOUTME: Tests for the reading-list commands
// ABOUTME: Verifies add, update, confirm-gated remove and stats against the development service

package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/markalston/bookshelf/internal/readinglist"
)

func resetListFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		listStatus = ""
		addStatus = string(readinglist.DefaultStatus)
		updateStatus, updateProgress, updateRating, updateNote = "", "", "", ""
		removeYes = false
	}
	reset()
	t.Cleanup(reset)
}

func stubConfirm(t *testing.T, answer bool) *int {
	t.Helper()
	calls := 0
	orig := confirmRemoval
	confirmRemoval = func(title string) (bool, error) {
		calls++
		return answer, nil
	}
	t.Cleanup(func() { confirmRemoval = orig })
	return &calls
}

func mustAdd(t *testing.T, id, status string) {
	t.Helper()
	addStatus = status
	var out bytes.Buffer
	if code := runAdd(context.Background(), &out, id); code != 0 {
		t.Fatalf("add %s failed with %d: %s", id, code, out.String())
	}
}

func TestRunList_NeedsSession(t *testing.T) {
	withService(t)
	resetListFlags(t)

	var out bytes.Buffer
	if code := runList(context.Background(), &out); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestRunAddAndList(t *testing.T) {
	signedIn(t)
	resetListFlags(t)

	addStatus = "reading"
	var out bytes.Buffer
	if code := runAdd(context.Background(), &out, hobbitID); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), `Added "The Hobbit": Currently Reading`) {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if code := runList(context.Background(), &out); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "The Hobbit") || !strings.Contains(out.String(), "Currently Reading") {
		t.Errorf("expected entry in list, got %q", out.String())
	}

	out.Reset()
	if code := runAdd(context.Background(), &out, hobbitID); code != 1 {
		t.Errorf("expected exit code 1 for a duplicate, got %d", code)
	}
}

func TestRunAdd_BadStatus(t *testing.T) {
	signedIn(t)
	resetListFlags(t)
	addStatus = "shelved"

	var out bytes.Buffer
	if code := runAdd(context.Background(), &out, hobbitID); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestRunUpdate_Progress(t *testing.T) {
	signedIn(t)
	resetListFlags(t)
	mustAdd(t, hobbitID, "reading")

	updateProgress = "100"
	var out bytes.Buffer
	if code := runUpdate(context.Background(), &out, hobbitID, map[string]bool{"progress": true}); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out.String())
	}

	out.Reset()
	runBook(context.Background(), &out, hobbitID)
	if !strings.Contains(out.String(), "page 100 of 366") {
		t.Errorf("expected progress on the book, got %q", out.String())
	}
}

func TestRunUpdate_NothingToSend(t *testing.T) {
	signedIn(t)
	resetListFlags(t)

	var out bytes.Buffer
	if code := runUpdate(context.Background(), &out, hobbitID, map[string]bool{}); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(out.String(), "nothing to update") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestRunRemove_Declined(t *testing.T) {
	signedIn(t)
	resetListFlags(t)
	mustAdd(t, hobbitID, "want")
	calls := stubConfirm(t, false)

	var out bytes.Buffer
	code := runRemove(context.Background(), &out, hobbitID)

	if code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
	if *calls != 1 {
		t.Errorf("expected one prompt, got %d", *calls)
	}

	out.Reset()
	runList(context.Background(), &out)
	if !strings.Contains(out.String(), "The Hobbit") {
		t.Error("expected the entry kept")
	}
}

func TestRunRemove_Confirmed(t *testing.T) {
	signedIn(t)
	resetListFlags(t)
	mustAdd(t, hobbitID, "want")
	stubConfirm(t, true)

	var out bytes.Buffer
	if code := runRemove(context.Background(), &out, hobbitID); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out.String())
	}

	out.Reset()
	runList(context.Background(), &out)
	if !strings.Contains(out.String(), "Your reading list is empty.") {
		t.Errorf("expected empty list, got %q", out.String())
	}
}

func TestRunRemove_YesSkipsPrompt(t *testing.T) {
	signedIn(t)
	resetListFlags(t)
	mustAdd(t, hobbitID, "want")
	calls := stubConfirm(t, false)
	removeYes = true

	var out bytes.Buffer
	if code := runRemove(context.Background(), &out, hobbitID); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out.String())
	}
	if *calls != 0 {
		t.Error("expected no prompt with --yes")
	}
}

func TestRunRemove_NotListed(t *testing.T) {
	signedIn(t)
	resetListFlags(t)
	stubConfirm(t, true)

	var out bytes.Buffer
	if code := runRemove(context.Background(), &out, hobbitID); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestRunStats(t *testing.T) {
	signedIn(t)
	resetListFlags(t)
	mustAdd(t, hobbitID, "reading")
	mustAdd(t, "1", "want")

	var out bytes.Buffer
	if code := runStats(context.Background(), &out); code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out.String())
	}
	if !strings.Contains(out.String(), "Books:          2") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestBuildPatch_EmptyClears(t *testing.T) {
	resetListFlags(t)
	updateStatus = "COMPLETED"

	p, err := buildPatch(map[string]bool{"status": true, "note": true, "rating": true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status == nil || *p.Status != readinglist.Completed {
		t.Errorf("expected completed, got %v", p.Status)
	}
	if !p.Note.Set || p.Note.Value != nil {
		t.Errorf("expected an explicit null note, got %+v", p.Note)
	}
	if !p.UserRating.Set || p.UserRating.Value != nil {
		t.Errorf("expected an explicit null rating, got %+v", p.UserRating)
	}
	if p.ProgressPages.Set {
		t.Error("expected progress left out")
	}
}

func TestBuildPatch_RatingOutOfRange(t *testing.T) {
	resetListFlags(t)
	updateRating = "7"

	if _, err := buildPatch(map[string]bool{"rating": true}); err == nil {
		t.Error("expected an error for rating 7")
	}
}
