// Package tui is the interactive event browser: a search box, cycling
// category, location, price and sort selectors, a result list and a detail
// view, all driven by a catalog.Catalog.
package tui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Shivanand-hulikatti/eventhub/internal/catalog"
	"github.com/Shivanand-hulikatti/eventhub/internal/model"
	"github.com/Shivanand-hulikatti/eventhub/internal/query"
)

// eventsMsg carries the outcome of one fetch, tagged with the generation
// reserved for it.
type eventsMsg struct {
	generation uint64
	events     []model.Event
	err        error
}

// Model is the bubbletea model of the event browser.
type Model struct {
	ctx      context.Context
	catalog  *catalog.Catalog
	source   catalog.Source
	imageURL func(string) string

	keys   KeyMap
	styles styles
	help   help.Model
	search textinput.Model
	detail viewport.Model

	state      query.State
	results    []model.Event
	cursor     int
	showDetail bool

	// pending is the generation of the most recent fetch; loading is
	// true until it answers.
	pending uint64
	loading bool
	err     error

	width  int
	height int
}

// New returns a browser over cat that fetches from source. imageURL
// resolves image paths for display and may be nil.
func New(ctx context.Context, cat *catalog.Catalog, source catalog.Source, imageURL func(string) string) Model {
	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "title, description or tags"
	search.CharLimit = 100

	if imageURL == nil {
		imageURL = func(path string) string { return path }
	}

	m := Model{
		ctx:      ctx,
		catalog:  cat,
		source:   source,
		imageURL: imageURL,
		keys:     DefaultKeyMap,
		styles:   newStyles(DefaultTheme),
		help:     help.New(),
		search:   search,
		detail:   viewport.New(80, 18),
		state:    query.DefaultState(),
		width:    80,
		height:   24,
	}
	m.pending = cat.Begin()
	m.loading = true
	if cat.Loaded() {
		m.results = cat.Results(m.state)
	}
	return m
}

// Run drives m until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model, in io.Reader, out io.Writer) error {
	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return m.fetch(m.pending)
}

func (m Model) fetch(generation uint64) tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		events, err := source.ListEvents(ctx)
		return eventsMsg{generation: generation, events: events, err: err}
	}
}

// State returns the current query.
func (m Model) State() query.State {
	return m.state
}

// Results returns the events currently listed.
func (m Model) Results() []model.Event {
	return m.results
}

// Selected returns the event under the cursor.
func (m Model) Selected() (model.Event, bool) {
	if m.cursor < 0 || m.cursor >= len(m.results) {
		return model.Event{}, false
	}
	return m.results[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.detail.Width = msg.Width
		m.detail.Height = max(msg.Height-4, 3)
		return m, nil

	case eventsMsg:
		m.handleEvents(msg)
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.search.Focused():
			return m.handleSearchKeys(msg)
		case m.showDetail:
			return m.handleDetailKeys(msg)
		default:
			return m.handleListKeys(msg)
		}
	}

	if m.search.Focused() {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleEvents(msg eventsMsg) {
	if msg.generation == m.pending {
		m.loading = false
	}
	if msg.err != nil {
		if msg.generation == m.pending {
			m.err = msg.err
		}
		return
	}
	if m.catalog.Accept(msg.generation, msg.events) {
		m.err = nil
		m.recompute()
	}
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Back):
		// Esc clears the search first and leaves the box once empty.
		if m.search.Value() != "" {
			m.search.Reset()
			m.setSearch("")
		} else {
			m.search.Blur()
		}
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.setSearch(m.search.Value())
	return m, cmd
}

func (m *Model) setSearch(term string) {
	if term == m.state.SearchTerm {
		return
	}
	m.state.SearchTerm = term
	m.recompute()
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Quit):
		m.showDetail = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Open):
		if event, ok := m.Selected(); ok {
			m.detail.SetContent(m.renderDetail(&event))
			m.detail.GotoTop()
			m.showDetail = true
		}

	case key.Matches(msg, m.keys.Search):
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Category):
		m.state.Category = cycle(m.catalog.Facets().Categories, m.state.Category)
		m.recompute()

	case key.Matches(msg, m.keys.Location):
		m.state.Location = cycle(m.catalog.Facets().Locations, m.state.Location)
		m.recompute()

	case key.Matches(msg, m.keys.Price):
		m.state.Price = cycle(append([]query.PriceBucket{query.PriceAll}, query.PriceBuckets...), m.state.Price)
		m.recompute()

	case key.Matches(msg, m.keys.Sort):
		m.state.Sort = cycle(query.SortKeys, m.state.Sort)
		m.recompute()

	case key.Matches(msg, m.keys.Reset):
		sort := m.state.Sort
		m.state = query.DefaultState()
		m.state.Sort = sort
		m.search.Reset()
		m.recompute()

	case key.Matches(msg, m.keys.Refresh):
		m.pending = m.catalog.Begin()
		m.loading = true
		return m, m.fetch(m.pending)
	}
	return m, nil
}

// recompute reapplies the query and keeps the cursor in range.
func (m *Model) recompute() {
	m.results = m.catalog.Results(m.state)
	if m.cursor >= len(m.results) {
		m.cursor = len(m.results) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// cycle returns the option after current, wrapping around. An unknown
// current value restarts at the first option.
func cycle[T comparable](options []T, current T) T {
	for i, option := range options {
		if option == current {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}
