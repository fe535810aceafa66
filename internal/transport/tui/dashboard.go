// Package tui is the terminal dashboard: catalog browsing, cart editing and
// live next-purchase predictions in one bubbletea program.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/service/feed"
	"github.com/sandevgo/storedash/internal/service/session"
	"github.com/sandevgo/storedash/pkg/log"
)

// CatalogFeed is the incremental catalog retrieval the dashboard drives.
type CatalogFeed interface {
	State() feed.State
	Dispatch(ev feed.Event) <-chan struct{}
	Subscribe(fn func(feed.State))
}

// Shopper is the cart and prediction session.
type Shopper interface {
	Snapshot() session.Snapshot
	Add(p core.Product) int
	Remove(id string) error
	UpdateQuantity(id string, q int) error
	PredictNow() <-chan struct{}
	Subscribe(fn func(session.Snapshot))
}

// Facets lists selector values known ahead of any retrieval.
type Facets interface {
	Departments() []string
	Aisles() []string
}

type changedMsg struct{}

// Dashboard runs the bubbletea program as a service.
type Dashboard struct {
	feed    CatalogFeed
	shopper Shopper
	facets  Facets
	updates chan tea.Msg
	done    chan struct{}
}

func NewDashboard(f CatalogFeed, s Shopper, facets Facets) *Dashboard {
	d := &Dashboard{
		feed:    f,
		shopper: s,
		facets:  facets,
		updates: make(chan tea.Msg, 1),
		done:    make(chan struct{}),
	}
	f.Subscribe(func(feed.State) { d.signal() })
	s.Subscribe(func(session.Snapshot) { d.signal() })
	return d
}

// signal coalesces change notifications. The model re-reads the full state
// on every wake-up, so a dropped signal never loses an update.
func (d *Dashboard) signal() {
	select {
	case d.updates <- changedMsg{}:
	default:
	}
}

func (d *Dashboard) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	defer close(d.done)

	p := tea.NewProgram(
		newModel(d.feed, d.shopper, d.facets, d.updates),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	logger.Info().Msg("dashboard started")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info().Msg("dashboard closed")
	return nil
}

// Shutdown waits for the program to restore the terminal. The program itself
// stops when the context passed to Start is cancelled.
func (d *Dashboard) Shutdown(ctx context.Context) error {
	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func waitForActivity(sub <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}
