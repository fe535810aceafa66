// Package cart holds the shopping cart for one session.
package cart

import (
	"errors"
	"sync"

	"github.com/sandevgo/storedash/internal/core"
)

var (
	ErrNotInCart       = errors.New("product not in cart")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Cart keeps at most one line per product; quantities never drop below 1.
type Cart struct {
	mu    sync.RWMutex
	lines []core.CartLine
	index map[string]int
}

func New() *Cart {
	return &Cart{index: make(map[string]int)}
}

// Add puts one unit of p into the cart and returns the new quantity.
func (c *Cart) Add(p core.Product) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i, ok := c.index[p.ID]; ok {
		c.lines[i].Quantity++
		return c.lines[i].Quantity
	}

	c.index[p.ID] = len(c.lines)
	c.lines = append(c.lines, core.CartLine{ProductID: p.ID, Name: p.Name, Quantity: 1})
	return 1
}

func (c *Cart) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return ErrNotInCart
	}

	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].ProductID] = j
	}
	return nil
}

func (c *Cart) UpdateQuantity(id string, q int) error {
	if q < 1 {
		return ErrInvalidQuantity
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[id]
	if !ok {
		return ErrNotInCart
	}
	c.lines[i].Quantity = q
	return nil
}

// Quantity returns the held quantity of id, or 0.
func (c *Cart) Quantity(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i, ok := c.index[id]; ok {
		return c.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the cart in insertion order.
func (c *Cart) Lines() []core.CartLine {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, l.ProductID)
	}
	return out
}

// Count is the total number of units held.
func (c *Cart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}
