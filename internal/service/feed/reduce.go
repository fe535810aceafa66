// Package feed drives incremental catalog retrieval. Reduce is a pure
// transition function; Feed executes the effects it asks for.
package feed

import "github.com/sandevgo/storedash/internal/core"

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	default:
		return "idle"
	}
}

// State is the accumulated retrieval for one filter. Page is the cursor of
// the last issued request. Generation tags that request.
type State struct {
	Filter     core.Filter    `json:"filter"`
	Phase      Phase          `json:"-"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	Products   []core.Product `json:"products"`
	Total      int            `json:"total"`
	HasMore    bool           `json:"has_more"`
	Generation uint64         `json:"generation"`
	Offline    bool           `json:"offline"`
	LastError  string         `json:"last_error,omitempty"`
}

func NewState(pageSize int) State {
	return State{
		PageSize: pageSize,
		Products: []core.Product{},
		HasMore:  true,
	}
}

func (s State) Loading() bool {
	return s.Phase == PhaseLoading
}

// Exhausted reports that every page for the current filter has been loaded.
func (s State) Exhausted() bool {
	return s.Phase == PhaseReady && !s.HasMore
}

type Event interface {
	isEvent()
}

// FilterChanged replaces the filter and restarts retrieval from page 1.
type FilterChanged struct {
	Filter core.Filter
}

// SentinelVisible means the end of the rendered list came into view.
type SentinelVisible struct{}

// Refresh restarts retrieval for the current filter.
type Refresh struct{}

// PageLoaded carries the completion of a FetchPage effect.
type PageLoaded struct {
	Generation uint64
	Page       int
	Result     core.PageResult
}

func (FilterChanged) isEvent()   {}
func (SentinelVisible) isEvent() {}
func (Refresh) isEvent()         {}
func (PageLoaded) isEvent()      {}

type Effect interface {
	isEffect()
}

// FetchPage asks for one page. Its completion must come back as PageLoaded
// with the same Generation.
type FetchPage struct {
	Generation uint64
	Filter     core.Filter
	Page       int
	PageSize   int
}

// StaleDiscarded reports a completion dropped because a newer request superseded it.
type StaleDiscarded struct {
	Generation uint64
}

func (FetchPage) isEffect()      {}
func (StaleDiscarded) isEffect() {}

// Reduce applies e to s and returns the next state and the effects to perform.
// s is never modified.
func Reduce(s State, e Event) (State, []Effect) {
	switch ev := e.(type) {
	case FilterChanged:
		if ev.Filter == s.Filter && s.Phase != PhaseIdle {
			return s, nil
		}
		return restart(s, ev.Filter)

	case Refresh:
		return restart(s, s.Filter)

	case SentinelVisible:
		switch {
		case s.Phase == PhaseIdle:
			return restart(s, s.Filter)
		case s.Phase == PhaseLoading, !s.HasMore:
			return s, nil
		}
		return issue(s, s.Page+1)

	case PageLoaded:
		if ev.Generation != s.Generation || s.Phase != PhaseLoading {
			return s, []Effect{StaleDiscarded{Generation: ev.Generation}}
		}
		return complete(s, ev), nil
	}

	return s, nil
}

func restart(s State, f core.Filter) (State, []Effect) {
	s.Filter = f
	s.Products = []core.Product{}
	s.Total = 0
	s.HasMore = true
	s.Offline = false
	s.LastError = ""
	return issue(s, 1)
}

func issue(s State, page int) (State, []Effect) {
	s.Generation++
	s.Page = page
	s.Phase = PhaseLoading
	return s, []Effect{FetchPage{
		Generation: s.Generation,
		Filter:     s.Filter,
		Page:       page,
		PageSize:   s.PageSize,
	}}
}

// complete merges a loaded page into s. Pages of one listing may come from
// different sources (remote then offline fallback) whose totals disagree, so
// Total never drops below the number of products already shown.
func complete(s State, ev PageLoaded) State {
	page := ev.Result.Page

	var base []core.Product
	if ev.Page > 1 {
		base = s.Products
	}

	products := make([]core.Product, 0, len(base)+len(page.Products))
	seen := make(map[string]struct{}, cap(products))
	for _, p := range base {
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}
	for _, p := range page.Products {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		products = append(products, p)
	}

	s.Products = products
	s.Total = max(page.Total, len(products))
	s.HasMore = page.HasMore
	s.Offline = ev.Result.Fallback
	s.LastError = ev.Result.Reason
	s.Phase = PhaseReady
	return s
}
