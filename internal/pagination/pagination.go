// ABOUTME: Page-number window for catalog navigation
// ABOUTME: Pure functions over (current page, total pages)

package pagination

// MaxButtons is the widest window of page numbers rendered at once.
const MaxButtons = 10

// Controls is everything a pagination row needs to render.
type Controls struct {
	Pages   []int
	Current int
	Total   int
	HasPrev bool
	HasNext bool
}

// New builds the controls for the given position.
func New(current, total int) Controls {
	current = Clamp(current, total)
	return Controls{
		Pages:   Window(current, total),
		Current: current,
		Total:   total,
		HasPrev: total > 0 && current > 1,
		HasNext: total > 0 && current < total,
	}
}

// Window returns the page numbers to show. It slides a window of MaxButtons
// pages, pinned to the start for the first five pages and to the end for the
// last five.
func Window(current, total int) []int {
	if total <= 0 {
		return nil
	}
	current = Clamp(current, total)

	start, end := 1, total
	switch {
	case total <= MaxButtons:
	case current <= 5:
		end = MaxButtons
	case current >= total-4:
		start = total - MaxButtons + 1
	default:
		start, end = current-4, current+5
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Clamp bounds page to [1, total]. With no pages the result is 1.
func Clamp(page, total int) int {
	if total <= 0 || page < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}
