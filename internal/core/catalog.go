package core

import "context"

// ReferenceCatalog is the read-only product and rule data loaded at startup.
type ReferenceCatalog interface {
	Products() []Product
	Lookup(id string) (Product, bool)
	Rules() RuleTable
	Filter(f Filter) []Product
}

// CatalogRepository persists the reference catalog between runs.
type CatalogRepository interface {
	LoadProducts(ctx context.Context) ([]Product, error)
	LoadRules(ctx context.Context) (RuleTable, error)
	Replace(ctx context.Context, products []Product, rules RuleTable) error
	Count(ctx context.Context) (int, error)
}
