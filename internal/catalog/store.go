// Package catalog holds the read-only reference catalog used by the offline
// ranking and filtering paths.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/storedash/internal/core"
)

var ErrCorrupt = errors.New("corrupt reference catalog")

var _ core.ReferenceCatalog = (*Store)(nil)

// Store is immutable after New and safe for concurrent readers without locking.
type Store struct {
	products []core.Product
	index    map[string]int
	rules    core.RuleTable
}

func New(products []core.Product, rules core.RuleTable) (*Store, error) {
	s := &Store{
		products: make([]core.Product, len(products)),
		index:    make(map[string]int, len(products)),
		rules:    make(core.RuleTable, 0, len(rules)),
	}
	copy(s.products, products)

	for i, p := range s.products {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: product at position %d has no id", ErrCorrupt, i)
		}
		if _, dup := s.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate product id %q", ErrCorrupt, p.ID)
		}
		s.index[p.ID] = i
	}

	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" {
			return nil, fmt.Errorf("%w: rule with empty keyword", ErrCorrupt)
		}
		if _, dup := seen[kw]; dup {
			return nil, fmt.Errorf("%w: duplicate rule keyword %q", ErrCorrupt, kw)
		}
		seen[kw] = struct{}{}

		related := make([]string, len(r.Related))
		copy(related, r.Related)
		s.rules = append(s.rules, core.Rule{Keyword: kw, Related: related})
	}

	return s, nil
}

// Products returns the catalog in its iteration order. Callers must not modify it.
func (s *Store) Products() []core.Product {
	return s.products
}

func (s *Store) Lookup(id string) (core.Product, bool) {
	i, ok := s.index[id]
	if !ok {
		return core.Product{}, false
	}
	return s.products[i], true
}

func (s *Store) Rules() core.RuleTable {
	return s.rules
}

func (s *Store) Len() int {
	return len(s.products)
}

// Filter returns every product matching f, in catalog order.
func (s *Store) Filter(f core.Filter) []core.Product {
	out := make([]core.Product, 0)
	for _, p := range s.products {
		if f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Departments lists the distinct departments, sorted.
func (s *Store) Departments() []string {
	return distinct(s.products, func(p core.Product) string { return p.Department })
}

// Aisles lists the distinct aisles, sorted.
func (s *Store) Aisles() []string {
	return distinct(s.products, func(p core.Product) string { return p.Aisle })
}

func distinct(products []core.Product, key func(core.Product) string) []string {
	set := make(map[string]struct{})
	for _, p := range products {
		if k := key(p); k != "" {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
