package fallback

import (
	"context"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/metrics"
	"github.com/sandevgo/storedash/pkg/log"
)

type CatalogSource interface {
	Catalog(ctx context.Context, f core.Filter, page, pageSize int) (core.CatalogPage, error)
}

var _ core.Browser = (*Browser)(nil)

type Browser struct {
	remote  CatalogSource
	catalog core.ReferenceCatalog
	metrics *metrics.Metrics
}

func NewBrowser(remote CatalogSource, catalog core.ReferenceCatalog, m *metrics.Metrics) *Browser {
	return &Browser{remote: remote, catalog: catalog, metrics: m}
}

// GetCatalogPage returns the remote page verbatim. When the remote is
// unavailable the whole filtered reference catalog comes back as one final
// page; the offline path does not paginate.
func (b *Browser) GetCatalogPage(ctx context.Context, f core.Filter, page, pageSize int) core.PageResult {
	p, err := b.remote.Catalog(ctx, f, page, pageSize)
	if err == nil {
		return core.PageResult{Page: p}
	}

	b.metrics.IncrementFallback(metrics.KindCatalog)

	products := b.catalog.Filter(f)
	log.FromCtx(ctx).Info().
		Err(err).
		Int("page", page).
		Int("matches", len(products)).
		Msg("using offline catalog")

	return core.PageResult{
		Page: core.CatalogPage{
			Products: products,
			Total:    len(products),
			HasMore:  false,
		},
		Fallback: true,
		Reason:   "catalog service unavailable: " + err.Error(),
	}
}
