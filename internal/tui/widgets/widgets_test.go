// ABOUTME: Tests for progress bar and badge widgets
// ABOUTME: Checks bar geometry and label text with styling stripped

package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/markalston/bookshelf/internal/readinglist"
	"github.com/markalston/bookshelf/internal/tui/icons"
)

func TestProgressBarWidth(t *testing.T) {
	cfg := DefaultProgressBarConfig()
	cfg.Width = 10

	tests := []struct {
		name   string
		ratio  float64
		filled int
	}{
		{"empty", 0, 0},
		{"half", 0.5, 5},
		{"full", 1, 10},
		{"over", 1.7, 10},
		{"negative", -0.2, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bar := ansi.Strip(ProgressBar(tc.ratio, cfg))
			if lipgloss.Width(bar) != 12 {
				t.Errorf("expected width 12, got %d (%q)", lipgloss.Width(bar), bar)
			}
			if got := strings.Count(bar, "█"); got != tc.filled {
				t.Errorf("expected %d filled cells, got %d", tc.filled, got)
			}
		})
	}
}

func TestProgressBarWithLabel(t *testing.T) {
	cfg := DefaultProgressBarConfig()
	pages, total := 164, 328

	got := ansi.Strip(ProgressBarWithLabel(&pages, &total, cfg))
	if !strings.Contains(got, "page 164 of 328") || !strings.Contains(got, "50%") {
		t.Errorf("unexpected label %q", got)
	}

	got = ansi.Strip(ProgressBarWithLabel(&pages, nil, cfg))
	if got != "page 164" {
		t.Errorf("expected bare page count, got %q", got)
	}

	got = ansi.Strip(ProgressBarWithLabel(nil, &total, cfg))
	if got != "not started" {
		t.Errorf("expected not started, got %q", got)
	}
}

func TestStatusBadgeLabels(t *testing.T) {
	for _, s := range readinglist.Statuses {
		got := ansi.Strip(StatusBadge(s))
		if !strings.Contains(got, s.Label()) {
			t.Errorf("badge %q missing label %q", got, s.Label())
		}
	}
}

func TestStars(t *testing.T) {
	tests := []struct {
		rating float64
		full   int
	}{
		{0, 0},
		{4.26, 4},
		{4.5, 5},
		{9, 5},
	}
	for _, tc := range tests {
		got := ansi.Strip(Stars(tc.rating))
		if n := strings.Count(got, icons.Star.String()); n != tc.full {
			t.Errorf("Stars(%v): expected %d full stars, got %d (%q)", tc.rating, tc.full, n, got)
		}
	}
}

func TestAverageRatingUnrated(t *testing.T) {
	if got := ansi.Strip(AverageRating(nil)); got != "unrated" {
		t.Errorf("expected unrated, got %q", got)
	}
}
