package store

import (
	"context"
	"fmt"
	"time"

	"leviro/cart"
	"leviro/models"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const orderPlacedMessage = "Order placed successfully! We will contact you shortly."

// OrderID derives an order id from the last six digits of the unix
// millisecond clock.
func OrderID(t time.Time) string {
	return fmt.Sprintf("ORD-%06d", t.UnixMilli()%1000000)
}

// PlaceOrder turns the cart of session sid into a pending order. The ordered
// lines leave the cart only after the backend stored the order, and anything
// added to the cart meanwhile stays there. On failure cart and orders are left
// as they were. A second call for the same session while one is in flight
// fails with ErrCheckoutInProgress.
func (s *Store) PlaceOrder(ctx context.Context, sid string, customer models.Customer) (string, error) {
	s.cartMu.Lock()
	if _, busy := s.checkout[sid]; busy {
		s.cartMu.Unlock()
		return "", ErrCheckoutInProgress
	}
	s.checkout[sid] = struct{}{}
	s.cartMu.Unlock()
	defer func() {
		s.cartMu.Lock()
		delete(s.checkout, sid)
		s.cartMu.Unlock()
	}()

	items := s.Cart(ctx, sid)
	if customer.PaymentMethod == "" {
		customer.PaymentMethod = models.PaymentCOD
	}
	now := s.now()
	order := models.Order{
		ID:        OrderID(now),
		Customer:  customer,
		Items:     items,
		Total:     cart.Total(items),
		Status:    models.StatusPending,
		CreatedAt: now.UTC(),
	}

	b, _ := s.backend()
	if err := b.InsertOrder(ctx, order); err != nil {
		s.fail(sid, "Failed to place order", err)
		return "", errors.Wrap(err, "place order")
	}

	orders, err := b.ListOrders(ctx)
	s.mu.Lock()
	if err != nil {
		log.WithError(err).Warn("order list refresh failed, keeping local copy")
		s.orders = append([]models.Order{order}, s.orders...)
	} else {
		s.orders = orders
	}
	s.mu.Unlock()
	s.emit(Event{Type: EventOrders})

	s.withCart(ctx, sid, func(c *cart.Cart) bool { return c.Take(items) })
	s.toasts.Show(sid, orderPlacedMessage, models.ToastSuccess)
	log.WithFields(logrus.Fields{"order": order.ID, "total": order.Total.String()}).Info("order placed")

	if s.notifier != nil {
		if err := s.notifier.OrderPlaced(ctx, order); err != nil {
			log.WithError(err).WithField("order", order.ID).Warn("order notification failed")
		}
	}
	return order.ID, nil
}

// UpdateOrderStatus changes the status of an existing order once the backend
// accepted it.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if _, ok := s.Order(id); !ok {
		return ErrNotFound
	}

	b, _ := s.backend()
	if err := b.UpdateOrderStatus(ctx, id, status); err != nil {
		s.fail(AdminAudience, "Failed to update order status", err)
		return errors.Wrap(err, "update order status")
	}

	s.mu.Lock()
	if i := s.orderIndex(id); i >= 0 {
		s.orders[i].Status = status
	}
	s.mu.Unlock()
	s.emit(Event{Type: EventOrders})

	if s.notifier != nil {
		if err := s.notifier.OrderStatusChanged(ctx, id, status); err != nil {
			log.WithError(err).WithField("order", id).Warn("status notification failed")
		}
	}
	return nil
}
