// Package session ties the cart to debounced predictions and exposes the
// observable state rendering shells draw from.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/metrics"
	"github.com/sandevgo/storedash/internal/service/cart"
	"github.com/sandevgo/storedash/internal/service/debounce"
	"github.com/sandevgo/storedash/pkg/log"
)

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Cart               []core.CartLine  `json:"cart"`
	ItemCount          int              `json:"item_count"`
	Predictions        []core.Candidate `json:"predictions"`
	PredictionsLoading bool             `json:"predictions_loading"`
	Offline            bool             `json:"offline"`
	LastError          string           `json:"last_error,omitempty"`
}

type Options struct {
	TopK      int
	Window    time.Duration
	Scheduler debounce.Scheduler
}

type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	cart        *cart.Cart
	recommender core.Recommender
	trigger     *debounce.Trigger
	topK        int
	metrics     *metrics.Metrics

	mu          sync.Mutex
	generation  uint64
	predictions []core.Candidate
	loading     bool
	offline     bool
	lastErr     string
	closed      bool

	notifyMu sync.Mutex
	subs     []func(Snapshot)

	wg sync.WaitGroup
}

func New(ctx context.Context, rec core.Recommender, opts Options, m *metrics.Metrics) *Session {
	if opts.Scheduler == nil {
		opts.Scheduler = debounce.RealScheduler()
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ctx:         ctx,
		cancel:      cancel,
		cart:        cart.New(),
		recommender: rec,
		topK:        opts.TopK,
		metrics:     m,
		predictions: []core.Candidate{},
	}
	s.trigger = debounce.NewTrigger(opts.Scheduler, opts.Window, func() { s.predict() })
	return s
}

// Add puts one unit of p in the cart and returns its quantity.
func (s *Session) Add(p core.Product) int {
	q := s.cart.Add(p)
	s.mutated()
	return q
}

func (s *Session) Remove(id string) error {
	if err := s.cart.Remove(id); err != nil {
		return err
	}
	s.mutated()
	return nil
}

func (s *Session) UpdateQuantity(id string, q int) error {
	if err := s.cart.UpdateQuantity(id, q); err != nil {
		return err
	}
	s.mutated()
	return nil
}

// Quantity returns the held quantity of id, or 0.
func (s *Session) Quantity(id string) int {
	return s.cart.Quantity(id)
}

// PredictNow skips the quiet window. The returned channel is closed once
// the resulting predictions have been applied or discarded.
func (s *Session) PredictNow() <-chan struct{} {
	s.trigger.Cancel()
	return s.predict()
}

// Snapshot never lists a prediction for a product already in the cart, even
// while the predictions for the new cart are still pending.
func (s *Session) Snapshot() Snapshot {
	lines := s.cart.Lines()
	count := s.cart.Count()

	held := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		held[l.ProductID] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	preds := make([]core.Candidate, 0, len(s.predictions))
	for _, c := range s.predictions {
		if _, ok := held[c.ProductID]; ok {
			continue
		}
		preds = append(preds, c)
	}

	return Snapshot{
		Cart:               lines,
		ItemCount:          count,
		Predictions:        preds,
		PredictionsLoading: s.loading,
		Offline:            s.offline,
		LastError:          s.lastErr,
	}
}

// Subscribe registers fn to receive a snapshot after every change.
// fn must not call back into the session synchronously.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.subs = append(s.subs, fn)
}

// Close drops the pending trigger and waits for in-flight predictions.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.trigger.Close()
	s.cancel()
	s.wg.Wait()
}

func (s *Session) mutated() {
	s.trigger.Notify()
	s.notify()
}

// predict starts a prediction for the current cart under a new generation.
func (s *Session) predict() <-chan struct{} {
	done := make(chan struct{})
	lines := s.cart.Lines()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(done)
		return done
	}
	s.generation++
	gen := s.generation

	if len(lines) == 0 {
		s.predictions = []core.Candidate{}
		s.loading = false
		s.offline = false
		s.lastErr = ""
		s.mu.Unlock()

		s.notify()
		close(done)
		return done
	}

	s.loading = true
	// Added under mu so Close either sees this prediction or stops it.
	s.wg.Add(1)
	s.mu.Unlock()
	s.notify()

	go func() {
		defer s.wg.Done()
		defer close(done)

		res := s.recommender.GetPredictions(s.ctx, lines, s.topK)
		s.apply(gen, res)
	}()
	return done
}

func (s *Session) apply(gen uint64, res core.PredictionResult) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.metrics.IncrementStale(metrics.KindPredictions)
		log.FromCtx(s.ctx).Debug().Uint64("generation", gen).Msg("discarded stale predictions")
		return
	}

	s.predictions = res.Candidates
	s.loading = false
	s.offline = res.Fallback
	s.lastErr = res.Reason
	s.mu.Unlock()

	s.notify()
}

func (s *Session) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	snap := s.Snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}
}
