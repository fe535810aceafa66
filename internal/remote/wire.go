package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sandevgo/storedash/internal/core"
)

// productID accepts both string and numeric identifiers; the catalog
// endpoint sends integers while predictions carry strings.
type productID string

func (id *productID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = productID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return fmt.Errorf("product id %s is not an integer", n)
	}
	*id = productID(n.String())
	return nil
}

type cartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type predictRequest struct {
	Cart []cartItem `json:"cart"`
	TopK int        `json:"top_k"`
}

type wireCandidate struct {
	ProductID   productID `json:"product_id" validate:"required"`
	Probability float64   `json:"probability" validate:"gte=0"`
	Score       float64   `json:"score"`
	Name        string    `json:"name,omitempty"`
	Aisle       string    `json:"aisle,omitempty"`
	Department  string    `json:"department,omitempty"`
}

type predictResponse struct {
	NextItemPredictions []wireCandidate   `json:"next_item_predictions" validate:"required,dive"`
	CoPurchase          []json.RawMessage `json:"co_purchase"`
}

func (r predictResponse) candidates() []core.Candidate {
	out := make([]core.Candidate, 0, len(r.NextItemPredictions))
	for _, w := range r.NextItemPredictions {
		out = append(out, core.Candidate{
			ProductID:   string(w.ProductID),
			Probability: w.Probability,
			Score:       w.Score,
			Name:        w.Name,
			Aisle:       w.Aisle,
			Department:  w.Department,
		})
	}
	return out
}

type wireProduct struct {
	ID           productID `json:"id" validate:"required"`
	Name         string    `json:"name"`
	Aisle        string    `json:"aisle"`
	Department   string    `json:"department"`
	AisleID      int       `json:"aisle_id"`
	DepartmentID int       `json:"department_id"`
}

type catalogResponse struct {
	Products []wireProduct `json:"products" validate:"required,dive"`
	HasMore  bool          `json:"has_more"`
	Total    *int          `json:"total" validate:"required,gte=0"`
}

func (r catalogResponse) page() core.CatalogPage {
	products := make([]core.Product, 0, len(r.Products))
	for _, w := range r.Products {
		products = append(products, core.Product{
			ID:         string(w.ID),
			Name:       w.Name,
			Aisle:      w.Aisle,
			Department: w.Department,
		})
	}
	return core.CatalogPage{
		Products: products,
		Total:    *r.Total,
		HasMore:  r.HasMore,
	}
}

type healthResponse struct {
	Status      string `json:"status" validate:"required"`
	ModelLoaded bool   `json:"model_loaded"`
}
