package feed

import (
	"testing"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func products(ids ...string) []core.Product {
	out := make([]core.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.Product{ID: id, Name: "p" + id})
	}
	return out
}

func loaded(gen uint64, page int, hasMore bool, total int, ids ...string) PageLoaded {
	return PageLoaded{
		Generation: gen,
		Page:       page,
		Result: core.PageResult{Page: core.CatalogPage{
			Products: products(ids...),
			Total:    total,
			HasMore:  hasMore,
		}},
	}
}

func onlyFetch(t *testing.T, effects []Effect) FetchPage {
	t.Helper()
	require.Len(t, effects, 1)
	fp, ok := effects[0].(FetchPage)
	require.True(t, ok, "expected FetchPage, got %T", effects[0])
	return fp
}

func TestReduce_FilterChangeStartsFirstPage(t *testing.T) {
	s := NewState(50)
	f := core.Filter{Department: "dairy eggs"}

	s, effects := Reduce(s, FilterChanged{Filter: f})
	fp := onlyFetch(t, effects)

	assert.Equal(t, FetchPage{Generation: 1, Filter: f, Page: 1, PageSize: 50}, fp)
	assert.Equal(t, PhaseLoading, s.Phase)
	assert.True(t, s.HasMore)
	assert.Empty(t, s.Products)
}

func TestReduce_LoadNextAppends(t *testing.T) {
	s := NewState(2)
	s, _ = Reduce(s, Refresh{})
	s, _ = Reduce(s, loaded(1, 1, true, 5, "1", "2"))

	assert.Equal(t, PhaseReady, s.Phase)
	assert.Equal(t, 5, s.Total)

	s, effects := Reduce(s, SentinelVisible{})
	fp := onlyFetch(t, effects)
	assert.Equal(t, 2, fp.Page)
	assert.Equal(t, uint64(2), fp.Generation)

	// duplicate trigger while loading is ignored
	again, effects := Reduce(s, SentinelVisible{})
	assert.Empty(t, effects)
	assert.Equal(t, s, again)

	s, _ = Reduce(s, loaded(2, 2, false, 5, "2", "3", "4"))
	assert.Equal(t, []string{"1", "2", "3", "4"}, idsOf(s.Products))
	assert.False(t, s.HasMore)
	assert.True(t, s.Exhausted())

	// exhausted feed ignores the sentinel
	_, effects = Reduce(s, SentinelVisible{})
	assert.Empty(t, effects)
}

func TestReduce_SentinelInIdleLoadsFirstPage(t *testing.T) {
	_, effects := Reduce(NewState(10), SentinelVisible{})
	assert.Equal(t, 1, onlyFetch(t, effects).Page)
}

func TestReduce_SameFilterIsNoop(t *testing.T) {
	f := core.Filter{Search: "milk"}
	s, _ := Reduce(NewState(10), FilterChanged{Filter: f})
	s, _ = Reduce(s, loaded(1, 1, false, 1, "1"))

	next, effects := Reduce(s, FilterChanged{Filter: f})
	assert.Empty(t, effects)
	assert.Equal(t, s, next)

	_, effects = Reduce(s, Refresh{})
	assert.Equal(t, 1, onlyFetch(t, effects).Page)
}

func TestReduce_StalePageAfterFilterResetIsDiscarded(t *testing.T) {
	s := NewState(2)
	s, _ = Reduce(s, Refresh{})
	s, _ = Reduce(s, loaded(1, 1, true, 4, "1", "2"))
	s, effects := Reduce(s, SentinelVisible{})
	page2 := onlyFetch(t, effects)

	s, effects = Reduce(s, FilterChanged{Filter: core.Filter{Search: "cheese"}})
	reset := onlyFetch(t, effects)
	assert.Greater(t, reset.Generation, page2.Generation)
	assert.Empty(t, s.Products)

	s, _ = Reduce(s, loaded(reset.Generation, 1, false, 2, "2", "3"))

	after, effects := Reduce(s, loaded(page2.Generation, 2, true, 4, "9", "10"))
	assert.Equal(t, []Effect{StaleDiscarded{Generation: page2.Generation}}, effects)
	assert.Equal(t, s, after)
	assert.Equal(t, []string{"2", "3"}, idsOf(after.Products))
}

func TestReduce_StalePageWhileNewLoadPending(t *testing.T) {
	s := NewState(2)
	s, _ = Reduce(s, Refresh{})
	s, _ = Reduce(s, loaded(1, 1, true, 4, "1", "2"))
	s, _ = Reduce(s, SentinelVisible{})
	s, _ = Reduce(s, FilterChanged{Filter: core.Filter{Aisle: "dairy"}})

	next, effects := Reduce(s, loaded(2, 2, true, 4, "3", "4"))
	assert.Len(t, effects, 1)
	assert.Equal(t, PhaseLoading, next.Phase)
	assert.Empty(t, next.Products)
}

func TestReduce_OfflineFlagFollowsLatestPage(t *testing.T) {
	s, _ := Reduce(NewState(10), Refresh{})
	ev := loaded(1, 1, false, 3, "1", "2", "3")
	ev.Result.Fallback = true
	ev.Result.Reason = "catalog service unavailable"

	s, _ = Reduce(s, ev)
	assert.True(t, s.Offline)
	assert.Equal(t, "catalog service unavailable", s.LastError)

	s, _ = Reduce(s, Refresh{})
	assert.False(t, s.Offline)
	assert.Empty(t, s.LastError)
}

func TestReduce_TotalCoversMixedSourcePages(t *testing.T) {
	s, _ := Reduce(NewState(2), Refresh{})
	s, _ = Reduce(s, loaded(1, 1, true, 4, "1", "2"))

	s, effects := Reduce(s, SentinelVisible{})
	fp := onlyFetch(t, effects)
	require.Equal(t, 2, fp.Page)

	// The remote service failed for page 2 and the local catalog disagrees
	// about the listing size.
	ev := loaded(fp.Generation, 2, false, 3, "3", "4", "5")
	ev.Result.Fallback = true
	s, _ = Reduce(s, ev)

	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, idsOf(s.Products))
	assert.Equal(t, 5, s.Total)
	assert.True(t, s.Offline)
	assert.True(t, s.Exhausted())
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s, _ := Reduce(NewState(2), Refresh{})
	s, _ = Reduce(s, loaded(1, 1, true, 4, "1", "2"))
	before := append([]core.Product(nil), s.Products...)

	s2, _ := Reduce(s, SentinelVisible{})
	_, _ = Reduce(s2, loaded(2, 2, false, 4, "3"))

	assert.Equal(t, before, s.Products)
	assert.Equal(t, PhaseReady, s.Phase)
}

func idsOf(ps []core.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}
