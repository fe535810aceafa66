package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/pkg/log"
)

var _ core.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo persists the reference catalog. Row positions keep catalog and
// rule order stable across reloads.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (r *CatalogRepo) LoadProducts(ctx context.Context) ([]core.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, department, aisle, category, price, popularity
		FROM products
		ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []core.Product
	for rows.Next() {
		var p core.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Department, &p.Aisle, &p.Category, &p.Price, &p.Popularity); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Int("count", len(products)).Msg("loaded products")
	return products, nil
}

func (r *CatalogRepo) LoadRules(ctx context.Context) (core.RuleTable, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.keyword, i.product_id
		FROM rules r
		LEFT JOIN rule_items i ON i.keyword = r.keyword
		ORDER BY r.position ASC, i.rank ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules core.RuleTable
	for rows.Next() {
		var keyword string
		var productID sql.NullString
		if err := rows.Scan(&keyword, &productID); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		if n := len(rules); n == 0 || rules[n-1].Keyword != keyword {
			rules = append(rules, core.Rule{Keyword: keyword, Related: []string{}})
		}
		if productID.Valid {
			last := &rules[len(rules)-1]
			last.Related = append(last.Related, productID.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

// Replace swaps the whole catalog in a single transaction.
func (r *CatalogRepo) Replace(ctx context.Context, products []core.Product, rules core.RuleTable) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM rule_items`, `DELETE FROM rules`, `DELETE FROM products`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear catalog: %w", err)
		}
	}

	for i, p := range products {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, position, name, department, aisle, category, price, popularity)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, p.Name, p.Department, p.Aisle, p.Category, p.Price, p.Popularity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert product %q: %w", p.ID, err)
		}
	}

	for i, rule := range rules {
		if _, err := tx.ExecContext(ctx, `INSERT INTO rules (keyword, position) VALUES (?, ?)`, rule.Keyword, i); err != nil {
			return fmt.Errorf("failed to insert rule %q: %w", rule.Keyword, err)
		}
		for rank, id := range rule.Related {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO rule_items (keyword, rank, product_id) VALUES (?, ?, ?)`,
				rule.Keyword, rank, id,
			)
			if err != nil {
				return fmt.Errorf("failed to insert rule item %q/%s: %w", rule.Keyword, id, err)
			}
		}
	}

	return tx.Commit()
}
