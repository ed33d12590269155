// ABOUTME: Tests for the root command and global flag handling
// ABOUTME: Verifies environment variable, flag and default API URL resolution

package cmd

import (
	"testing"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	apiURL, configFile, cfg, jsonOutput = "", "", nil, false
	t.Cleanup(func() {
		apiURL, configFile, cfg, jsonOutput = "", "", nil, false
	})
}

func TestGetAPIURL_Default(t *testing.T) {
	resetGlobals(t)
	t.Setenv("BOOKSHELF_API_URL", "")

	url := GetAPIURL()
	if url != "http://localhost:8000" {
		t.Errorf("expected default URL http://localhost:8000, got %s", url)
	}
}

func TestGetAPIURL_FromEnv(t *testing.T) {
	resetGlobals(t)
	t.Setenv("BOOKSHELF_API_URL", "https://books.example.com/")

	url := GetAPIURL()
	if url != "https://books.example.com" {
		t.Errorf("expected https://books.example.com, got %s", url)
	}
}

func TestGetAPIURL_FlagOverridesEnv(t *testing.T) {
	resetGlobals(t)
	t.Setenv("BOOKSHELF_API_URL", "https://books.example.com")
	apiURL = "http://flag-override.example.com"

	url := GetAPIURL()
	if url != "http://flag-override.example.com" {
		t.Errorf("expected flag to override env, got %s", url)
	}
}

func TestJSONOutput(t *testing.T) {
	resetGlobals(t)
	jsonOutput = true

	if !IsJSONOutput() {
		t.Error("expected IsJSONOutput to return true")
	}
}

func TestDefaultCommandsRegistered(t *testing.T) {
	want := []string{"tui", "books", "book", "authors", "genres", "login", "register", "logout", "whoami",
		"list", "add", "update", "remove", "stats", "devserver"}
	for _, name := range want {
		c, _, err := rootCmd.Find([]string{name})
		if err != nil || c.Name() != name {
			t.Errorf("expected subcommand %q", name)
		}
	}
}
