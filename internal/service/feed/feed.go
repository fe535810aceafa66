package feed

import (
	"context"
	"sync"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/metrics"
	"github.com/sandevgo/storedash/pkg/log"
)

// Feed owns a State and performs the fetches Reduce requests. A superseded
// fetch runs to completion and its result is dropped by Reduce.
type Feed struct {
	browser core.Browser
	metrics *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	closed bool

	notifyMu sync.Mutex
	subs     []func(State)

	wg sync.WaitGroup
}

func New(ctx context.Context, browser core.Browser, pageSize int, m *metrics.Metrics) *Feed {
	ctx, cancel := context.WithCancel(ctx)
	return &Feed{
		browser: browser,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
		state:   NewState(pageSize),
	}
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Subscribe registers fn to receive the latest state after every transition.
func (f *Feed) Subscribe(fn func(State)) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
	f.subs = append(f.subs, fn)
}

// Dispatch applies ev. The returned channel is closed once every fetch
// started by ev has completed and been reduced. After Close it does nothing.
func (f *Feed) Dispatch(ev Event) <-chan struct{} {
	done := make(chan struct{})

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		close(done)
		return done
	}
	next, effects := Reduce(f.state, ev)
	f.state = next

	var fetches []FetchPage
	for _, eff := range effects {
		switch e := eff.(type) {
		case FetchPage:
			fetches = append(fetches, e)
		case StaleDiscarded:
			f.metrics.IncrementStale(metrics.KindCatalog)
			log.FromCtx(f.ctx).Debug().Uint64("generation", e.Generation).Msg("discarded stale catalog page")
		}
	}
	// Added under mu so Close either waits for these fetches or prevents them.
	f.wg.Add(len(fetches))
	f.mu.Unlock()

	f.notify()

	if len(fetches) == 0 {
		close(done)
		return done
	}

	var group sync.WaitGroup
	for _, e := range fetches {
		group.Add(1)
		go func() {
			defer f.wg.Done()
			defer group.Done()

			res := f.browser.GetCatalogPage(f.ctx, e.Filter, e.Page, e.PageSize)
			<-f.Dispatch(PageLoaded{Generation: e.Generation, Page: e.Page, Result: res})
		}()
	}

	go func() {
		group.Wait()
		close(done)
	}()
	return done
}

// Close cancels in-flight fetches and waits for them to finish.
func (f *Feed) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()

	f.cancel()
	f.wg.Wait()
}

func (f *Feed) notify() {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	st := f.State()
	for _, fn := range f.subs {
		fn(st)
	}
}
