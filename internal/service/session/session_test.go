package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/metrics"
	"github.com/sandevgo/storedash/internal/service/cart"
	"github.com/sandevgo/storedash/internal/service/debounce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type predictCall struct {
	cart  []core.CartLine
	topK  int
	reply chan core.PredictionResult
}

// gatedRecommender forwards each request to the test and blocks until answered.
type gatedRecommender struct {
	calls chan predictCall
}

func newGatedRecommender() *gatedRecommender {
	return &gatedRecommender{calls: make(chan predictCall, 8)}
}

func (r *gatedRecommender) GetPredictions(ctx context.Context, lines []core.CartLine, topK int) core.PredictionResult {
	c := predictCall{cart: lines, topK: topK, reply: make(chan core.PredictionResult, 1)}
	r.calls <- c
	return <-c.reply
}

func product(id string) core.Product {
	return core.Product{ID: id, Name: "Product " + id}
}

func newTestSession(t *testing.T, rec core.Recommender, m *metrics.Metrics) (*Session, *debounce.FakeScheduler) {
	t.Helper()
	clock := debounce.NewFakeScheduler()
	s := New(context.Background(), rec, Options{TopK: 5, Window: 300 * time.Millisecond, Scheduler: clock}, m)
	t.Cleanup(s.Close)
	return s, clock
}

func TestSession_DebouncedPrediction(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newGatedRecommender()
	s, clock := newTestSession(t, rec, nil)

	for i, id := range []string{"1", "2", "3", "1"} {
		if i > 0 {
			clock.Advance(50 * time.Millisecond)
		}
		s.Add(product(id))
	}

	clock.Advance(299 * time.Millisecond)
	select {
	case <-rec.calls:
		t.Fatal("prediction fired before the quiet window elapsed")
	default:
	}

	clock.Advance(time.Millisecond)
	call := <-rec.calls
	assert.Equal(t, 450*time.Millisecond, clock.Now())
	assert.Equal(t, 5, call.topK)
	assert.Equal(t, []core.CartLine{
		{ProductID: "1", Name: "Product 1", Quantity: 2},
		{ProductID: "2", Name: "Product 2", Quantity: 1},
		{ProductID: "3", Name: "Product 3", Quantity: 1},
	}, call.cart)
	assert.True(t, s.Snapshot().PredictionsLoading)

	applied := make(chan Snapshot, 4)
	s.Subscribe(func(snap Snapshot) {
		if !snap.PredictionsLoading {
			applied <- snap
		}
	})

	call.reply <- core.PredictionResult{Candidates: []core.Candidate{{ProductID: "9", Score: 1}}}
	snap := <-applied

	assert.Equal(t, []core.Candidate{{ProductID: "9", Score: 1}}, snap.Predictions)
	assert.Equal(t, 4, snap.ItemCount)
	assert.False(t, snap.Offline)

	select {
	case <-rec.calls:
		t.Fatal("more than one prediction for one burst")
	default:
	}
}

func TestSession_EmptyCartClearsWithoutCalling(t *testing.T) {
	rec := newGatedRecommender()
	s, _ := newTestSession(t, rec, nil)

	s.Add(product("1"))
	done := s.PredictNow()
	call := <-rec.calls
	call.reply <- core.PredictionResult{Candidates: []core.Candidate{{ProductID: "2"}}}
	<-done
	require.Len(t, s.Snapshot().Predictions, 1)

	require.NoError(t, s.Remove("1"))
	<-s.PredictNow()

	snap := s.Snapshot()
	assert.Empty(t, snap.Predictions)
	assert.False(t, snap.PredictionsLoading)
	assert.Empty(t, rec.calls)
}

func TestSession_EmptyCartAfterDebounce(t *testing.T) {
	rec := newGatedRecommender()
	s, clock := newTestSession(t, rec, nil)

	s.Add(product("1"))
	clock.Advance(100 * time.Millisecond)
	require.NoError(t, s.Remove("1"))
	clock.Advance(time.Second)

	assert.Empty(t, rec.calls)
	assert.Empty(t, s.Snapshot().Predictions)
}

func TestSession_StalePredictionIsDiscarded(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rec := newGatedRecommender()
	s, _ := newTestSession(t, rec, m)

	s.Add(product("1"))
	slowDone := s.PredictNow()
	slow := <-rec.calls

	s.Add(product("2"))
	fastDone := s.PredictNow()
	fast := <-rec.calls
	assert.Len(t, fast.cart, 2)

	fast.reply <- core.PredictionResult{Candidates: []core.Candidate{{ProductID: "fresh"}}}
	<-fastDone

	slow.reply <- core.PredictionResult{Candidates: []core.Candidate{{ProductID: "stale"}}}
	<-slowDone

	assert.Equal(t, []core.Candidate{{ProductID: "fresh"}}, s.Snapshot().Predictions)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResults.WithLabelValues(metrics.KindPredictions)))
}

func TestSession_FallbackSetsOfflineIndicator(t *testing.T) {
	rec := newGatedRecommender()
	s, _ := newTestSession(t, rec, nil)

	s.Add(product("1"))
	done := s.PredictNow()
	call := <-rec.calls
	call.reply <- core.PredictionResult{
		Candidates: []core.Candidate{{ProductID: "5"}},
		Fallback:   true,
		Reason:     "prediction service unavailable: timeout",
	}
	<-done

	snap := s.Snapshot()
	assert.True(t, snap.Offline)
	assert.Equal(t, "prediction service unavailable: timeout", snap.LastError)
}

func TestSession_CartErrorsDoNotTrigger(t *testing.T) {
	rec := newGatedRecommender()
	s, clock := newTestSession(t, rec, nil)

	assert.ErrorIs(t, s.Remove("nope"), cart.ErrNotInCart)
	assert.ErrorIs(t, s.UpdateQuantity("nope", 2), cart.ErrNotInCart)
	assert.Zero(t, clock.Pending())

	s.Add(product("1"))
	clock.Advance(time.Second)
	call := <-rec.calls
	call.reply <- core.PredictionResult{}

	assert.ErrorIs(t, s.UpdateQuantity("1", 0), cart.ErrInvalidQuantity)
	assert.Zero(t, clock.Pending())

	require.NoError(t, s.UpdateQuantity("1", 3))
	assert.Equal(t, 1, clock.Pending())
	assert.Equal(t, 3, s.Quantity("1"))
}

func TestSession_SubscribersSeeCartChanges(t *testing.T) {
	s, _ := newTestSession(t, newGatedRecommender(), nil)

	var mu sync.Mutex
	var counts []int
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		counts = append(counts, snap.ItemCount)
	})

	s.Add(product("1"))
	s.Add(product("1"))
	require.NoError(t, s.UpdateQuantity("1", 5))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 5}, counts)
}

func TestSession_SnapshotHidesPredictionsAlreadyInCart(t *testing.T) {
	rec := newGatedRecommender()
	s, clock := newTestSession(t, rec, nil)

	s.Add(product("1"))
	done := s.PredictNow()
	call := <-rec.calls
	call.reply <- core.PredictionResult{Candidates: []core.Candidate{
		{ProductID: "2", Probability: 0.6},
		{ProductID: "3", Probability: 0.3},
	}}
	<-done

	s.Add(product("2"))
	require.Equal(t, 1, clock.Pending(), "refresh for the new cart is still pending")

	assert.Equal(t, []core.Candidate{{ProductID: "3", Probability: 0.3}}, s.Snapshot().Predictions)
}

func TestSession_PredictAfterCloseIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	rec := newGatedRecommender()
	s, _ := newTestSession(t, rec, nil)

	s.Add(product("1"))
	s.Close()

	select {
	case <-s.PredictNow():
	case <-time.After(time.Second):
		t.Fatal("prediction after close must complete immediately")
	}
	assert.Empty(t, rec.calls)
	assert.False(t, s.Snapshot().PredictionsLoading)
}
