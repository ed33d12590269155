// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography across different terminal capabilities

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	if env := os.Getenv("BOOKSHELF_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	nerdFontTerminals := []string{
		"iTerm.app",
		"alacritty",
		"WezTerm",
		"kitty",
		"ghostty",
	}

	for _, t := range nerdFontTerminals {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	return os.Getenv("NERD_FONTS") == "1"
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

var (
	// Catalog
	Book   = Icon{"󰂺", "▤"} // nf-md-book_open_variant
	Author = Icon{"󰀄", "◉"} // nf-md-account
	Genre  = Icon{"󰓹", "#"} // nf-md-tag
	Search = Icon{"󰍉", "⌕"} // nf-md-magnify
	Star   = Icon{"󰓎", "★"} // nf-md-star
	Empty  = Icon{"󰓒", "☆"} // nf-md-star_outline

	// Reading list
	Shelf    = Icon{"󱉟", "≡"} // nf-md-bookshelf
	Want     = Icon{"󰃀", "○"} // nf-md-bookmark
	Reading  = Icon{"󰗚", "◐"} // nf-md-book_open_page_variant
	Finished = Icon{"󰄬", "●"} // nf-md-check
	Dropped  = Icon{"󰅖", "⊘"} // nf-md-close

	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle

	// Actions
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app
	User    = Icon{"󰀉", "☺"} // nf-md-account_circle

	App = Icon{"󱉟", "◈"} // nf-md-bookshelf
)
