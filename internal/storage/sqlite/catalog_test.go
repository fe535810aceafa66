package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *CatalogRepo {
	t.Helper()

	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "nested", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewCatalogRepo(db)
}

func TestCatalogRepo_EmptyAfterMigration(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	products, err := repo.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	rules, err := repo.LoadRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestCatalogRepo_ReplacePreservesOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	products := []core.Product{
		{ID: "9", Name: "Pizza Base", Department: "bakery", Aisle: "bakery", Category: "pizza"},
		{ID: "1", Name: "Organic Whole Milk", Department: "dairy eggs", Aisle: "dairy", Price: 1.5, Popularity: 7},
		{ID: "35", Name: "Pepperoni", Department: "meat seafood", Aisle: "meat"},
	}
	rules := core.RuleTable{
		{Keyword: "pizza", Related: []string{"35", "1"}},
		{Keyword: "empty", Related: []string{}},
		{Keyword: "milk", Related: []string{"9"}},
	}

	require.NoError(t, repo.Replace(ctx, products, rules))

	gotProducts, err := repo.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, products, gotProducts)

	gotRules, err := repo.LoadRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, rules, gotRules)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCatalogRepo_ReplaceOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx,
		[]core.Product{{ID: "1"}, {ID: "2"}},
		core.RuleTable{{Keyword: "a", Related: []string{"1"}}},
	))
	require.NoError(t, repo.Replace(ctx,
		[]core.Product{{ID: "3", Name: "Garlic"}},
		nil,
	))

	products, err := repo.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Product{{ID: "3", Name: "Garlic"}}, products)

	rules, err := repo.LoadRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestCatalogRepo_ReplaceIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, []core.Product{{ID: "1"}}, nil))

	err := repo.Replace(ctx, []core.Product{{ID: "2"}, {ID: "2"}}, nil)
	require.Error(t, err)

	products, err := repo.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []core.Product{{ID: "1"}}, products)
}
