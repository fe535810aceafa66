// Package fallback pairs each remote call with a local substitute so callers
// always get a usable result.
package fallback

import (
	"context"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/metrics"
	"github.com/sandevgo/storedash/pkg/log"
)

type PredictionSource interface {
	Predict(ctx context.Context, cart []core.CartLine, topK int) ([]core.Candidate, error)
}

type Ranker interface {
	Rank(cartIDs []string, topK int) []core.Candidate
}

var _ core.Recommender = (*Recommender)(nil)

type Recommender struct {
	remote  PredictionSource
	ranker  Ranker
	catalog core.ReferenceCatalog
	metrics *metrics.Metrics
}

func NewRecommender(remote PredictionSource, ranker Ranker, catalog core.ReferenceCatalog, m *metrics.Metrics) *Recommender {
	return &Recommender{remote: remote, ranker: ranker, catalog: catalog, metrics: m}
}

// GetPredictions never fails. An empty cart yields no candidates without
// contacting the remote service.
func (r *Recommender) GetPredictions(ctx context.Context, cart []core.CartLine, topK int) core.PredictionResult {
	if len(cart) == 0 || topK <= 0 {
		return core.PredictionResult{Candidates: []core.Candidate{}}
	}

	logger := log.FromCtx(ctx)

	ids := make([]string, 0, len(cart))
	held := make(map[string]struct{}, len(cart))
	for _, l := range cart {
		ids = append(ids, l.ProductID)
		held[l.ProductID] = struct{}{}
	}

	cands, err := r.remote.Predict(ctx, cart, topK)
	if err != nil {
		r.metrics.IncrementFallback(metrics.KindPredictions)
		logger.Info().Err(err).Int("cart", len(cart)).Msg("using offline predictions")

		return core.PredictionResult{
			Candidates: r.ranker.Rank(ids, topK),
			Fallback:   true,
			Reason:     "prediction service unavailable: " + err.Error(),
		}
	}

	out := make([]core.Candidate, 0, len(cands))
	for _, c := range cands {
		if _, ok := held[c.ProductID]; ok {
			continue
		}
		out = append(out, r.enrich(c))
		if len(out) == topK {
			break
		}
	}

	return core.PredictionResult{Candidates: out}
}

// enrich fills display fields the remote response left out.
func (r *Recommender) enrich(c core.Candidate) core.Candidate {
	if c.Name != "" && c.Aisle != "" && c.Department != "" {
		return c
	}
	p, ok := r.catalog.Lookup(c.ProductID)
	if !ok {
		return c
	}
	if c.Name == "" {
		c.Name = p.Name
	}
	if c.Aisle == "" {
		c.Aisle = p.Aisle
	}
	if c.Department == "" {
		c.Department = p.Department
	}
	return c
}
