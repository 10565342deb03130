// Package cart holds the shopping cart reducer. A Cart is not safe for
// concurrent use; the store serialises access to it.
package cart

import (
	"encoding/json"

	"leviro/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type Cart struct {
	items []models.CartItem
	newID func() string
}

// New returns a cart holding a copy of items.
func New(items []models.CartItem) *Cart {
	c := &Cart{newID: uuid.NewString}
	c.items = append(c.items, items...)
	return c
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int { return len(c.items) }

// Add puts one unit of product in the given size into the cart. A line for
// the same product and size gets its quantity bumped instead of a new line.
func (c *Cart) Add(p models.Product, size models.Size) models.CartItem {
	for i := range c.items {
		if c.items[i].ProductID == p.ID && c.items[i].Size == size {
			c.items[i].Quantity++
			return c.items[i]
		}
	}
	item := models.CartItem{
		ID:        c.newID(),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Size:      size,
		Quantity:  1,
	}
	c.items = append(c.items, item)
	return item
}

// Remove drops the line with the given id and reports whether it was there.
func (c *Cart) Remove(id string) bool {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// SetQuantity sets a line's quantity; zero or less removes the line.
func (c *Cart) SetQuantity(id string, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(id)
	}
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = quantity
			return true
		}
	}
	return false
}

// Take removes the given lines, as they were when snapshotted, from the cart.
// Quantity added to a line since the snapshot stays, as do lines added since.
func (c *Cart) Take(taken []models.CartItem) bool {
	changed := false
	for _, t := range taken {
		for i := range c.items {
			if c.items[i].ID != t.ID {
				continue
			}
			changed = true
			if c.items[i].Quantity > t.Quantity {
				c.items[i].Quantity -= t.Quantity
			} else {
				c.items = append(c.items[:i], c.items[i+1:]...)
			}
			break
		}
	}
	return changed
}

func (c *Cart) Clear() {
	c.items = nil
}

func (c *Cart) Total() decimal.Decimal {
	return Total(c.items)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Total sums price × quantity over items.
func Total(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Encode serialises cart lines for the local key-value store.
func Encode(items []models.CartItem) (string, error) {
	if items == nil {
		items = []models.CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", errors.Wrap(err, "encode cart")
	}
	return string(b), nil
}

// Decode is the inverse of Encode.
func Decode(s string) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, errors.Wrap(err, "decode cart")
	}
	return items, nil
}
