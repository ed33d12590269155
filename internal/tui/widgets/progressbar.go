// ABOUTME: Reading progress bar for book detail and reading-list rows
// ABOUTME: Colors the filled portion by how far through the book the reader is

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBarConfig holds configuration for the progress bar
type ProgressBarConfig struct {
	Width      int
	StartColor lipgloss.Color // below half way
	MidColor   lipgloss.Color // half way or more
	DoneColor  lipgloss.Color // finished
	EmptyColor lipgloss.Color
}

// DefaultProgressBarConfig returns sensible defaults
func DefaultProgressBarConfig() ProgressBarConfig {
	return ProgressBarConfig{
		Width:      20,
		StartColor: lipgloss.Color("#3B82F6"), // Blue
		MidColor:   lipgloss.Color("#8B5CF6"), // Purple
		DoneColor:  lipgloss.Color("#10B981"), // Green
		EmptyColor: lipgloss.Color("#374151"), // Dark gray
	}
}

// ProgressBar renders ratio (0..1) as a bracketed bar.
func ProgressBar(ratio float64, config ProgressBarConfig) string {
	if config.Width <= 0 {
		config.Width = 20
	}
	ratio = clampRatio(ratio)
	filled := int(ratio * float64(config.Width))

	color := config.StartColor
	switch {
	case ratio >= 1:
		color = config.DoneColor
	case ratio >= 0.5:
		color = config.MidColor
	}

	return "[" +
		lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(config.EmptyColor).Render(strings.Repeat("░", config.Width-filled)) +
		"]"
}

// ProgressBarWithLabel appends "page x of y (p%)" to the bar. Unknown page
// counts render just the page reached.
func ProgressBarWithLabel(pages, pageCount *int, config ProgressBarConfig) string {
	if pages == nil {
		return lipgloss.NewStyle().Foreground(config.EmptyColor).Render("not started")
	}
	if pageCount == nil || *pageCount <= 0 {
		return fmt.Sprintf("page %d", *pages)
	}
	ratio := clampRatio(float64(*pages) / float64(*pageCount))
	return fmt.Sprintf("%s page %d of %d (%3.0f%%)", ProgressBar(ratio, config), *pages, *pageCount, ratio*100)
}

// CompactProgressBar renders a minimal bar for list rows
func CompactProgressBar(ratio float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}
	filled := int(clampRatio(ratio) * float64(width))
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")).Render(strings.Repeat("░", width-filled))
}

func clampRatio(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}
