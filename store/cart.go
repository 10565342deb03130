package store

import (
	"context"
	"fmt"

	"leviro/cart"
	"leviro/models"

	"github.com/shopspring/decimal"
)

// withCart runs fn on the cart of session sid, loading it from local storage
// on first use. When fn reports a change the cart is written back and
// subscribers are told.
func (s *Store) withCart(ctx context.Context, sid string, fn func(c *cart.Cart) bool) []models.CartItem {
	s.cartMu.Lock()
	c, ok := s.carts[sid]
	if !ok {
		c = cart.New(s.local.LoadCart(ctx, sid))
		s.carts[sid] = c
	}
	changed := fn(c)
	items := c.Items()
	if changed {
		if err := s.local.SaveCart(ctx, sid, items); err != nil {
			log.WithError(err).WithField("sid", sid).Warn("cart not persisted")
		}
	}
	s.cartMu.Unlock()

	if changed {
		s.emit(Event{Type: EventCart, Session: sid})
	}
	return items
}

// Cart returns the lines of session sid in insertion order.
func (s *Store) Cart(ctx context.Context, sid string) []models.CartItem {
	return s.withCart(ctx, sid, func(*cart.Cart) bool { return false })
}

// AddToCart adds one unit of p in size to the cart, merging with an existing
// line for the same product and size.
func (s *Store) AddToCart(ctx context.Context, sid string, p models.Product, size models.Size) (models.CartItem, error) {
	if !p.HasSize(size) {
		return models.CartItem{}, ErrUnknownSize
	}
	var line models.CartItem
	s.withCart(ctx, sid, func(c *cart.Cart) bool {
		line = c.Add(p, size)
		return true
	})
	s.toasts.Show(sid, fmt.Sprintf("%s (%s) added to cart", p.Name, size), models.ToastSuccess)
	return line, nil
}

// RemoveFromCart drops a line; unknown ids are ignored.
func (s *Store) RemoveFromCart(ctx context.Context, sid, itemID string) {
	s.withCart(ctx, sid, func(c *cart.Cart) bool { return c.Remove(itemID) })
}

// UpdateCartQuantity sets a line's quantity. Zero or less removes the line.
func (s *Store) UpdateCartQuantity(ctx context.Context, sid, itemID string, quantity int) {
	s.withCart(ctx, sid, func(c *cart.Cart) bool { return c.SetQuantity(itemID, quantity) })
}

func (s *Store) ClearCart(ctx context.Context, sid string) {
	s.withCart(ctx, sid, func(c *cart.Cart) bool {
		c.Clear()
		return true
	})
}

func (s *Store) CartTotal(ctx context.Context, sid string) decimal.Decimal {
	var total decimal.Decimal
	s.withCart(ctx, sid, func(c *cart.Cart) bool {
		total = c.Total()
		return false
	})
	return total
}

// CartCount is the number of units in the cart, not the number of lines.
func (s *Store) CartCount(ctx context.Context, sid string) int {
	var n int
	s.withCart(ctx, sid, func(c *cart.Cart) bool {
		n = c.Count()
		return false
	})
	return n
}
