package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Sternrassler/request-responses/pkg/pager"
	"github.com/muesli/reflow/truncate"
)

const minTextWidth = 16

// Table is a pager.Surface rendered as text. The pager updates it from fetch
// goroutines while the program reads it from View, so access is locked.
type Table struct {
	mu              sync.RWMutex
	window          pager.Window
	shown           bool
	loadMoreVisible bool
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// ShowWindow implements pager.Surface.
func (t *Table) ShowWindow(w pager.Window) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = w
	t.shown = true
}

// SetLoadMoreVisible implements pager.Surface.
func (t *Table) SetLoadMoreVisible(visible bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadMoreVisible = visible
}

// LoadMoreVisible reports whether the load-more hint is shown.
func (t *Table) LoadMoreVisible() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loadMoreVisible
}

// Window returns the window last shown.
func (t *Table) Window() pager.Window {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.window
}

// Render draws the rows with their absolute positions.
func (t *Table) Render(width int) string {
	t.mu.RLock()
	window, shown, loadMore := t.window, t.shown, t.loadMoreVisible
	t.mu.RUnlock()

	if !shown {
		return mutedStyle.Render("No responses loaded.")
	}
	if window.Len() == 0 {
		return mutedStyle.Render("This request has no responses.")
	}

	numWidth := len(fmt.Sprint(window.Start + window.Len()))
	textWidth := max(width-numWidth-2, minTextWidth)

	var b strings.Builder
	for i, item := range window.Items {
		num := indexStyle.Render(fmt.Sprintf("%*d", numWidth, window.Start+i+1))
		b.WriteString(num + "  " + truncate.StringWithTail(flatten(item), uint(textWidth), "…"))
		b.WriteString("\n")
	}
	if loadMore {
		b.WriteString("\n")
		b.WriteString(loadMoreStyle.Render("[m] Load more"))
		b.WriteString("\n")
	}
	return b.String()
}

// flatten keeps a response on a single row.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
