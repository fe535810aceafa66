// Package ranking scores catalog products as likely next purchases from the
// contents of a cart. It performs no I/O and keeps no state between calls.
package ranking

import (
	"sort"
	"strings"

	"github.com/sandevgo/storedash/internal/core"
)

// Weights are the scoring constants of the heuristic.
type Weights struct {
	Epsilon    float64
	BaseBoost  float64
	DecayStep  float64
	Department float64
	Category   float64
}

func DefaultWeights() Weights {
	return Weights{
		Epsilon:    0.001,
		BaseBoost:  0.1,
		DecayStep:  0.01,
		Department: 0.02,
		Category:   0.03,
	}
}

// ruleBonus is the boost for the related product at position index.
// Rules longer than BaseBoost/DecayStep entries bottom out at Epsilon.
func (w Weights) ruleBonus(index int) float64 {
	b := w.BaseBoost - float64(index)*w.DecayStep
	if b < w.Epsilon {
		return w.Epsilon
	}
	return b
}

type Engine struct {
	catalog core.ReferenceCatalog
	weights Weights
}

func NewEngine(catalog core.ReferenceCatalog, weights Weights) *Engine {
	return &Engine{catalog: catalog, weights: weights}
}

// Rank returns at most topK candidates outside the cart, highest score
// first. Equal scores keep catalog order.
func (e *Engine) Rank(cartIDs []string, topK int) []core.Candidate {
	if len(cartIDs) == 0 || topK <= 0 {
		return []core.Candidate{}
	}

	inCart := make(map[string]struct{}, len(cartIDs))
	for _, id := range cartIDs {
		inCart[id] = struct{}{}
	}

	products := e.catalog.Products()
	scores := make(map[string]float64, len(products))
	for _, p := range products {
		scores[p.ID] = e.weights.Epsilon
	}

	rules := e.catalog.Rules()
	seen := make(map[string]struct{}, len(inCart))
	for _, id := range cartIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		item, ok := e.catalog.Lookup(id)
		if !ok {
			continue
		}

		e.applyRules(rules, item, inCart, scores)
		e.applyAffinity(products, item, inCart, scores)
	}

	ranked := make([]core.Candidate, 0, len(products))
	for _, p := range products {
		if _, held := inCart[p.ID]; held {
			continue
		}
		s := scores[p.ID]
		ranked = append(ranked, core.Candidate{
			ProductID:   p.ID,
			Probability: s,
			Score:       s,
			Name:        p.Name,
			Aisle:       p.Aisle,
			Department:  p.Department,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}

func (e *Engine) applyRules(rules core.RuleTable, item core.Product, inCart map[string]struct{}, scores map[string]float64) {
	category := strings.ToLower(item.Subcategory())
	name := strings.ToLower(item.Name)

	for _, rule := range rules {
		if !strings.Contains(category, rule.Keyword) && !strings.Contains(name, rule.Keyword) {
			continue
		}
		for i, related := range rule.Related {
			if _, held := inCart[related]; held {
				continue
			}
			if _, known := scores[related]; !known {
				continue
			}
			scores[related] += e.weights.ruleBonus(i)
		}
	}
}

func (e *Engine) applyAffinity(products []core.Product, item core.Product, inCart map[string]struct{}, scores map[string]float64) {
	category := item.Subcategory()

	for _, p := range products {
		if p.ID == item.ID {
			continue
		}
		if _, held := inCart[p.ID]; held {
			continue
		}
		if item.Department != "" && p.Department == item.Department {
			scores[p.ID] += e.weights.Department
		}
		if category != "" && p.Subcategory() == category {
			scores[p.ID] += e.weights.Category
		}
	}
}
