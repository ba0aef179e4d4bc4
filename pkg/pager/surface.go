package pager

import (
	"bytes"
	"html/template"
	"sync"
)

// Surface receives what the view displays.
// Calls are made while the view holds its lock; implementations must not call
// back into the view.
type Surface interface {
	// ShowWindow replaces the displayed rows.
	ShowWindow(w Window)

	// SetLoadMoreVisible shows or hides the load-more control.
	SetLoadMoreVisible(visible bool)
}

// Document is an in-memory Surface holding the HTML of the two page elements.
type Document struct {
	mu              sync.RWMutex
	table           template.HTML
	window          Window
	loadMoreVisible bool
	renderErr       error
}

// NewDocument creates an empty document with the load-more control hidden.
func NewDocument() *Document {
	return &Document{}
}

// ShowWindow implements Surface.
func (d *Document) ShowWindow(w Window) {
	markup, err := Markup(w)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.window = w
	d.renderErr = err
	if err == nil {
		d.table = markup
	}
}

// SetLoadMoreVisible implements Surface.
func (d *Document) SetLoadMoreVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loadMoreVisible = visible
}

// TableHTML returns the current inner markup of #request-responses-table.
func (d *Document) TableHTML() template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.table
}

// Window returns the last window shown.
func (d *Document) Window() Window {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.window
}

// LoadMoreVisible reports whether .load-more-responses is shown.
func (d *Document) LoadMoreVisible() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loadMoreVisible
}

// Err returns the error of the last render, if any.
func (d *Document) Err() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.renderErr
}

// HTML returns both elements as a page fragment.
func (d *Document) HTML() (template.HTML, error) {
	d.mu.RLock()
	table, visible := d.table, d.loadMoreVisible
	d.mu.RUnlock()

	var buf bytes.Buffer
	if err := renderFragment(&buf, table, visible); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
