package fallback

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sandevgo/storedash/internal/catalog"
	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/metrics"
	"github.com/sandevgo/storedash/internal/ranking"
	"github.com/sandevgo/storedash/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	candidates []core.Candidate
	page       core.CatalogPage
	err        error
	calls      int
}

func (f *fakeSource) Predict(ctx context.Context, cart []core.CartLine, topK int) ([]core.Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

func (f *fakeSource) Catalog(ctx context.Context, flt core.Filter, page, pageSize int) (core.CatalogPage, error) {
	f.calls++
	return f.page, f.err
}

func seedStore(t *testing.T) *catalog.Store {
	t.Helper()
	seed, err := catalog.DefaultSeed()
	require.NoError(t, err)
	store, err := seed.Store()
	require.NoError(t, err)
	return store
}

// timeoutClient returns a remote client whose every call exceeds its deadline.
func timeoutClient(t *testing.T) *remote.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	return remote.NewClient(remote.Config{
		BaseURL:      srv.URL,
		CallTimeout:  50 * time.Millisecond,
		ProbeTimeout: 50 * time.Millisecond,
	}, nil)
}

func TestRecommender_EmptyCartSkipsRemote(t *testing.T) {
	store := seedStore(t)
	src := &fakeSource{}
	r := NewRecommender(src, ranking.NewEngine(store, ranking.DefaultWeights()), store, nil)

	res := r.GetPredictions(context.Background(), nil, 10)
	assert.Empty(t, res.Candidates)
	assert.NotNil(t, res.Candidates)
	assert.False(t, res.Fallback)
	assert.Zero(t, src.calls)
}

func TestRecommender_TimeoutMatchesRank(t *testing.T) {
	store := seedStore(t)
	engine := ranking.NewEngine(store, ranking.DefaultWeights())
	m := metrics.New(prometheus.NewRegistry())
	r := NewRecommender(timeoutClient(t), engine, store, m)

	cart := []core.CartLine{{ProductID: "8", Quantity: 1}, {ProductID: "1", Quantity: 3}}

	res := r.GetPredictions(context.Background(), cart, 10)
	assert.True(t, res.Fallback)
	assert.NotEmpty(t, res.Reason)
	assert.Equal(t, engine.Rank([]string{"8", "1"}, 10), res.Candidates)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues(metrics.KindPredictions)))
}

func TestRecommender_RemoteSuccess(t *testing.T) {
	store := seedStore(t)
	src := &fakeSource{candidates: []core.Candidate{
		{ProductID: "8", Probability: 0.9, Score: 3},
		{ProductID: "24", Probability: 0.5, Score: 2},
		{ProductID: "13", Probability: 0.3, Score: 1, Name: "Basil (fresh)", Aisle: "herbs", Department: "produce"},
		{ProductID: "999", Probability: 0.2, Score: 0.5},
		{ProductID: "14", Probability: 0.1, Score: 0.1},
	}}
	r := NewRecommender(src, ranking.NewEngine(store, ranking.DefaultWeights()), store, nil)

	res := r.GetPredictions(context.Background(), []core.CartLine{{ProductID: "8", Quantity: 1}}, 3)
	require.False(t, res.Fallback)
	assert.Empty(t, res.Reason)
	assert.Equal(t, []core.Candidate{
		{ProductID: "24", Probability: 0.5, Score: 2, Name: "Pasta", Aisle: "pantry", Department: "pantry"},
		{ProductID: "13", Probability: 0.3, Score: 1, Name: "Basil (fresh)", Aisle: "herbs", Department: "produce"},
		{ProductID: "999", Probability: 0.2, Score: 0.5},
	}, res.Candidates)
	assert.Equal(t, "Product #999", res.Candidates[2].DisplayName())
}

func TestRecommender_AnyErrorFallsBack(t *testing.T) {
	store := seedStore(t)
	src := &fakeSource{err: errors.New("boom")}
	engine := ranking.NewEngine(store, ranking.DefaultWeights())
	r := NewRecommender(src, engine, store, nil)

	res := r.GetPredictions(context.Background(), []core.CartLine{{ProductID: "20", Quantity: 1}}, 4)
	assert.True(t, res.Fallback)
	assert.Contains(t, res.Reason, "boom")
	assert.Equal(t, engine.Rank([]string{"20"}, 4), res.Candidates)
}

func TestBrowser_OfflineDepartmentFilter(t *testing.T) {
	store := seedStore(t)
	m := metrics.New(prometheus.NewRegistry())
	b := NewBrowser(timeoutClient(t), store, m)

	res := b.GetCatalogPage(context.Background(), core.Filter{Department: "dairy eggs"}, 1, 50)
	require.True(t, res.Fallback)
	assert.NotEmpty(t, res.Reason)
	assert.False(t, res.Page.HasMore)
	require.NotEmpty(t, res.Page.Products)
	assert.Equal(t, len(res.Page.Products), res.Page.Total)
	for _, p := range res.Page.Products {
		assert.Equal(t, "dairy eggs", p.Department)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues(metrics.KindCatalog)))
}

func TestBrowser_OfflineReturnsEverythingInOnePage(t *testing.T) {
	store := seedStore(t)
	b := NewBrowser(&fakeSource{err: errors.New("down")}, store, nil)

	res := b.GetCatalogPage(context.Background(), core.Filter{}, 1, 10)
	assert.True(t, res.Fallback)
	assert.Len(t, res.Page.Products, store.Len())
	assert.Equal(t, store.Len(), res.Page.Total)
	assert.False(t, res.Page.HasMore)
}

func TestBrowser_RemotePageVerbatim(t *testing.T) {
	store := seedStore(t)
	page := core.CatalogPage{
		Products: []core.Product{{ID: "1001", Name: "Remote Only"}},
		Total:    500,
		HasMore:  true,
	}
	b := NewBrowser(&fakeSource{page: page}, store, nil)

	res := b.GetCatalogPage(context.Background(), core.Filter{Search: "x"}, 3, 1)
	assert.False(t, res.Fallback)
	assert.Equal(t, page, res.Page)
}
