// Package tui drives a responses pager from a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/request-responses/pkg/pager"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// fetchDoneMsg is sent when an initialize or load-more fetch returns.
type fetchDoneMsg struct {
	operation string
	err       error
}

// Model is the Bubble Tea model wrapping a pager.View.
type Model struct {
	ctx       context.Context
	view      *pager.View
	table     *Table
	requestID string

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	inFlight int
	err      error
	quitting bool

	width  int
	height int
}

// NewModel creates a model fetching through fetcher. requestID is only displayed.
func NewModel(ctx context.Context, fetcher pager.Fetcher, requestID string, opts ...pager.Option) *Model {
	table := NewTable()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadMoreStyle

	h := help.New()
	h.Styles.ShortKey = loadMoreStyle
	h.Styles.ShortDesc = helpStyle

	return &Model{
		ctx:       ctx,
		view:      pager.New(fetcher, table, opts...),
		table:     table,
		requestID: requestID,
		keys:      newKeyMap(),
		help:      h,
		spinner:   sp,
		width:     defaultWidth,
		height:    defaultHeight,
	}
}

// Init starts the initial fetch.
func (m *Model) Init() tea.Cmd {
	return m.fetch("initialize", m.view.Initialize)
}

// Update handles messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.inFlight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fetchDoneMsg:
		m.inFlight--
		switch {
		case msg.err == nil:
			m.err = nil
		case errors.Is(msg.err, pager.ErrSuperseded):
			// a newer fetch owns the view
		default:
			m.err = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.syncKeys()

	switch {
	case key.Matches(msg, m.keys.quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.prev):
		m.view.ShowPrevious()

	case key.Matches(msg, m.keys.next):
		m.view.ShowNext()

	case key.Matches(msg, m.keys.loadMore):
		m.keys.loadMore.SetEnabled(false)
		return m, m.fetch("load_more", m.view.LoadMore)
	}
	return m, nil
}

// syncKeys enables load more only while the control is shown and nothing is in flight.
func (m *Model) syncKeys() {
	m.keys.loadMore.SetEnabled(m.inFlight == 0 && m.table.LoadMoreVisible())
}

// fetch runs op as a command alongside the spinner. The pager updates the
// table itself; the message only carries the outcome.
func (m *Model) fetch(operation string, op func(context.Context) error) tea.Cmd {
	m.inFlight++
	ctx := m.ctx
	run := func() tea.Msg {
		return fetchDoneMsg{operation: operation, err: op(ctx)}
	}
	return tea.Batch(run, m.spinner.Tick)
}

// View renders the current view.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(m.header()))
	b.WriteString("\n\n")

	if m.inFlight > 0 && !m.view.State().Loaded {
		b.WriteString(m.spinner.View() + mutedStyle.Render(" Loading responses..."))
	} else {
		b.WriteString(borderStyle.Render(strings.TrimRight(m.table.Render(m.width-4), "\n")))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	if m.inFlight > 0 && m.view.State().Loaded {
		b.WriteString(m.spinner.View() + mutedStyle.Render(" Loading more..."))
		b.WriteString("\n")
	}

	m.syncKeys()
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) header() string {
	state := m.view.State()
	title := "Responses"
	if m.requestID != "" {
		title += " for " + m.requestID
	}
	if !state.Loaded || state.Len == 0 {
		return title
	}
	end := min(state.WindowStart+state.WindowSize, state.Len)
	return fmt.Sprintf("%s  %d-%d of %d", title, state.WindowStart+1, end, state.Len)
}

// Err returns the last fetch error shown, if any.
func (m *Model) Err() error {
	return m.err
}

// State exposes the pager state.
func (m *Model) State() pager.State {
	return m.view.State()
}
