// ABOUTME: Shared fixtures for command tests
// ABOUTME: Points commands at an in-process development service with file-backed state

package cmd

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markalston/bookshelf/internal/config"
	"github.com/markalston/bookshelf/internal/devserver"
)

const (
	testEmail    = "reader@example.com"
	testPassword = "secret123"
	hobbitID     = "8"
)

// withService starts a development service and configures the commands to
// use it. State persists across commands within one test.
func withService(t *testing.T) {
	t.Helper()
	resetGlobals(t)

	srv, err := devserver.New(devserver.Options{JWTSecret: "test-secret"})
	if err != nil {
		t.Fatalf("unexpected error creating server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	apiURL = ts.URL
	cfg = &config.Config{
		APIURL:           ts.URL,
		PageSize:         5,
		SuggestionLimit:  200,
		ReadingListLimit: 100,
		StateBackend:     "file",
		StateDir:         t.TempDir(),
	}
}

// signedIn registers the test user and logs in through the commands.
func signedIn(t *testing.T) {
	t.Helper()
	withService(t)

	authEmail, authPassword, authDisplayName = testEmail, testPassword, "Reader"
	t.Cleanup(func() { authEmail, authPassword, authDisplayName = "", "", "" })

	var out bytes.Buffer
	if code := runRegister(context.Background(), &out, strings.NewReader("")); code != 0 {
		t.Fatalf("register failed with %d: %s", code, out.String())
	}
}
