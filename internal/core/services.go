package core

import "context"

// PredictionResult is what the recommendation layer hands to a shell.
// Reason is a diagnostic message and is set whenever Fallback is true.
type PredictionResult struct {
	Candidates []Candidate `json:"candidates"`
	Fallback   bool        `json:"fallback"`
	Reason     string      `json:"reason,omitempty"`
}

// PageResult is one catalog page plus its provenance.
type PageResult struct {
	Page     CatalogPage `json:"page"`
	Fallback bool        `json:"fallback"`
	Reason   string      `json:"reason,omitempty"`
}

type Recommender interface {
	GetPredictions(ctx context.Context, cart []CartLine, topK int) PredictionResult
}

type Browser interface {
	GetCatalogPage(ctx context.Context, f Filter, page, pageSize int) PageResult
}

type HealthChecker interface {
	Health(ctx context.Context) Health
}
