package tui

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/service/cart"
	"github.com/sandevgo/storedash/internal/service/feed"
	"github.com/sandevgo/storedash/internal/service/session"
)

const (
	sentinelRows   = 3
	maxDepartments = 20
	maxAisles      = 30
	minListHeight  = 5
	chromeHeight   = 9
)

type focus int

const (
	focusCatalog focus = iota
	focusSearch
	focusCart
	focusPredictions
)

func (f focus) next() focus {
	switch f {
	case focusSearch:
		return focusCatalog
	case focusCatalog:
		return focusCart
	case focusCart:
		return focusPredictions
	default:
		return focusSearch
	}
}

type model struct {
	feed    CatalogFeed
	shopper Shopper
	facets  Facets
	updates <-chan tea.Msg

	search  textinput.Model
	spinner spinner.Model

	filter core.Filter
	state  feed.State
	snap   session.Snapshot

	focus      focus
	cursor     int
	offset     int
	cartCursor int
	predCursor int
	status     string

	width  int
	height int
}

func newModel(f CatalogFeed, s Shopper, facets Facets, updates <-chan tea.Msg) model {
	ti := textinput.New()
	ti.Placeholder = "search products"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	st := f.State()
	return model{
		feed:    f,
		shopper: s,
		facets:  facets,
		updates: updates,
		search:  ti,
		spinner: sp,
		filter:  st.Filter,
		state:   st,
		snap:    s.Snapshot(),
		focus:   focusCatalog,
	}
}

func (m model) Init() tea.Cmd {
	m.requestMore()
	return tea.Batch(waitForActivity(m.updates), m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursors()
		m.requestMore()
		return m, nil

	case changedMsg:
		m.state = m.feed.State()
		m.snap = m.shopper.Snapshot()
		m.clampCursors()
		m.requestMore()
		return m, waitForActivity(m.updates)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.String() == "tab" {
			return m.setFocus(m.focus.next())
		}
		if m.focus == focusSearch {
			return m.updateSearch(msg)
		}
		if msg.String() == "q" {
			return m, tea.Quit
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m model) setFocus(f focus) (tea.Model, tea.Cmd) {
	m.focus = f
	if f == focusSearch {
		return m, m.search.Focus()
	}
	m.search.Blur()
	return m, nil
}

func (m model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		f := m.filter
		f.Search = m.search.Value()
		m.applyFilter(f)
		return m.setFocus(focusCatalog)
	case "esc":
		m.search.SetValue(m.filter.Search)
		return m.setFocus(focusCatalog)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Filter and session keys work from every non-search panel.
	switch key {
	case "/":
		return m.setFocus(focusSearch)
	case "d":
		f := m.filter
		f.Department = cycle(m.departments(), f.Department)
		m.applyFilter(f)
		return m, nil
	case "l":
		f := m.filter
		f.Aisle = cycle(m.aisles(), f.Aisle)
		m.applyFilter(f)
		return m, nil
	case "c":
		m.search.SetValue("")
		m.applyFilter(core.Filter{})
		return m, nil
	case "r":
		m.cursor, m.offset = 0, 0
		m.feed.Dispatch(feed.Refresh{})
		return m, nil
	case "p":
		m.shopper.PredictNow()
		return m, nil
	}

	switch m.focus {
	case focusCatalog:
		m.updateCatalog(key)
	case focusCart:
		m.updateCart(key)
	case focusPredictions:
		m.updatePredictions(key)
	}
	return m, nil
}

func (m *model) updateCatalog(key string) {
	products := m.state.Products
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(products)-1 {
			m.cursor++
		}
	case "pgdown":
		m.cursor = min(m.cursor+m.listHeight(), max(len(products)-1, 0))
	case "pgup":
		m.cursor = max(m.cursor-m.listHeight(), 0)
	case "enter", "a":
		if m.cursor < len(products) {
			p := products[m.cursor]
			n := m.shopper.Add(p)
			m.status = fmt.Sprintf("added %s (%d in cart)", p.Name, n)
		}
	}
	m.scroll()
	m.requestMore()
}

func (m *model) updateCart(key string) {
	lines := m.snap.Cart
	if len(lines) == 0 {
		return
	}
	m.cartCursor = min(m.cartCursor, len(lines)-1)
	line := lines[m.cartCursor]

	var err error
	switch key {
	case "up", "k":
		if m.cartCursor > 0 {
			m.cartCursor--
		}
	case "down", "j":
		if m.cartCursor < len(lines)-1 {
			m.cartCursor++
		}
	case "+", "=":
		err = m.shopper.UpdateQuantity(line.ProductID, line.Quantity+1)
	case "-":
		if line.Quantity > 1 {
			err = m.shopper.UpdateQuantity(line.ProductID, line.Quantity-1)
		}
	case "x", "delete", "backspace":
		err = m.shopper.Remove(line.ProductID)
	}

	switch {
	case errors.Is(err, cart.ErrNotInCart):
		m.status = "item is no longer in the cart"
	case err != nil:
		m.status = err.Error()
	}
}

func (m *model) updatePredictions(key string) {
	preds := m.snap.Predictions
	switch key {
	case "up", "k":
		if m.predCursor > 0 {
			m.predCursor--
		}
	case "down", "j":
		if m.predCursor < len(preds)-1 {
			m.predCursor++
		}
	case "enter", "a":
		if m.predCursor < len(preds) {
			c := preds[m.predCursor]
			m.shopper.Add(core.Product{
				ID:         c.ProductID,
				Name:       c.DisplayName(),
				Aisle:      c.Aisle,
				Department: c.Department,
			})
			m.status = "added " + c.DisplayName()
		}
	}
}

func (m *model) applyFilter(f core.Filter) {
	m.filter = f
	m.cursor, m.offset = 0, 0
	m.status = ""
	m.feed.Dispatch(feed.FilterChanged{Filter: f})
}

// requestMore fires the load-next trigger when the bottom sentinel is on
// screen. The reducer ignores it while a page is in flight or none remain.
func (m *model) requestMore() {
	if m.state.Phase != feed.PhaseIdle && (m.state.Loading() || !m.state.HasMore) {
		return
	}
	if !m.sentinelVisible() {
		return
	}
	m.feed.Dispatch(feed.SentinelVisible{})
}

func (m model) sentinelVisible() bool {
	n := len(m.state.Products)
	if n-m.offset <= m.listHeight() {
		return true
	}
	return m.cursor >= n-sentinelRows
}

func (m model) listHeight() int {
	if m.height == 0 {
		return 20
	}
	return max(m.height-chromeHeight, minListHeight)
}

func (m *model) scroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m *model) clampCursors() {
	if n := len(m.state.Products); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if n := len(m.snap.Cart); m.cartCursor >= n {
		m.cartCursor = max(n-1, 0)
	}
	if n := len(m.snap.Predictions); m.predCursor >= n {
		m.predCursor = max(n-1, 0)
	}
	m.scroll()
}

func (m model) departments() []string {
	return facetValues(m.facets.Departments(), m.state.Products, func(p core.Product) string { return p.Department }, maxDepartments)
}

func (m model) aisles() []string {
	return facetValues(m.facets.Aisles(), m.state.Products, func(p core.Product) string { return p.Aisle }, maxAisles)
}

// facetValues merges the known values with those seen in the accumulated
// results, sorted and capped.
func facetValues(known []string, products []core.Product, key func(core.Product) string, limit int) []string {
	seen := make(map[string]struct{}, len(known))
	out := make([]string, 0, len(known))
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range known {
		add(v)
	}
	for _, p := range products {
		add(key(p))
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// cycle returns the value after cur, wrapping through "" (no selection).
func cycle(values []string, cur string) string {
	if len(values) == 0 {
		return ""
	}
	if cur == "" {
		return values[0]
	}
	for i, v := range values {
		if v == cur {
			if i+1 < len(values) {
				return values[i+1]
			}
			return ""
		}
	}
	return ""
}
