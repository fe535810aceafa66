package catalog

import (
	"context"
	"fmt"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/pkg/log"
)

// Load reads the reference catalog from repo, installing the embedded seed
// into an empty repository first.
func Load(ctx context.Context, repo core.CatalogRepository) (*Store, error) {
	logger := log.FromCtx(ctx)

	n, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	if n == 0 {
		seed, err := DefaultSeed()
		if err != nil {
			return nil, err
		}
		if err := Install(ctx, repo, seed); err != nil {
			return nil, err
		}
		logger.Info().Int("products", len(seed.Products)).Msg("installed default reference catalog")
	}

	products, err := repo.LoadProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	rules, err := repo.LoadRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	store, err := New(products, rules)
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("products", store.Len()).Int("rules", len(rules)).Msg("reference catalog loaded")
	return store, nil
}

// Install validates seed and replaces the repository contents with it.
func Install(ctx context.Context, repo core.CatalogRepository, seed *Seed) error {
	if _, err := seed.Store(); err != nil {
		return err
	}
	if err := repo.Replace(ctx, seed.Products, seed.Rules); err != nil {
		return fmt.Errorf("install seed: %w", err)
	}
	return nil
}
