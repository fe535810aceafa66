package core

import "strings"

const (
	AppName      = "storedash"
	AppUserAgent = "storedash/0.1"
	AppVersion   = "0.1.0"
)

// Product is an immutable catalog entry.
type Product struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Department string  `json:"department" yaml:"department"`
	Aisle      string  `json:"aisle" yaml:"aisle"`
	Category   string  `json:"category,omitempty" yaml:"category,omitempty"`
	Price      float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Popularity int     `json:"popularity,omitempty" yaml:"popularity,omitempty"`
}

// Subcategory is the grouping used for category affinity and keyword matching.
// Remote catalog rows carry no category, so the aisle stands in for it.
func (p Product) Subcategory() string {
	if p.Category != "" {
		return p.Category
	}
	return p.Aisle
}

// CartLine is one product held in the cart. Quantity is always >= 1.
type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Candidate is a product proposed as a likely next purchase.
type Candidate struct {
	ProductID   string  `json:"product_id"`
	Probability float64 `json:"probability"`
	Score       float64 `json:"score"`
	Name        string  `json:"name,omitempty"`
	Aisle       string  `json:"aisle,omitempty"`
	Department  string  `json:"department,omitempty"`
}

// DisplayName falls back to the identifier when the name is unknown.
func (c Candidate) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return "Product #" + c.ProductID
}

// CatalogPage is one retrieval step of the catalog.
type CatalogPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	HasMore  bool      `json:"has_more"`
}

// Filter is the retrieval filter state. Department and Aisle match exactly,
// Search is a case-insensitive substring.
type Filter struct {
	Search     string `json:"search,omitempty"`
	Department string `json:"department,omitempty"`
	Aisle      string `json:"aisle,omitempty"`
}

func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Match reports whether p passes the filter.
func (f Filter) Match(p Product) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Aisle), q) &&
			!strings.Contains(strings.ToLower(p.Department), q) {
			return false
		}
	}
	if f.Department != "" && p.Department != f.Department {
		return false
	}
	if f.Aisle != "" && p.Aisle != f.Aisle {
		return false
	}
	return true
}

// Rule maps a lowercase keyword to related products, strongest first.
type Rule struct {
	Keyword string   `json:"keyword" yaml:"keyword"`
	Related []string `json:"related" yaml:"related"`
}

// RuleTable is ordered so that scoring is deterministic.
type RuleTable []Rule

// Health is the remote service health as reported by the probe.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func UnhealthyStatus() Health {
	return Health{Status: "unhealthy", ModelLoaded: false}
}
