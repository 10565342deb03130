// Package mq carries order events between service instances over Redis
// pub/sub, so every instance can tell its connected dashboards about orders
// placed elsewhere.
package mq

import (
	"context"
	"encoding/json"
	"time"

	"leviro/models"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "mq")

// Channel is the Redis channel order events are published on.
const Channel = "order-events"

const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status"
)

// OrderEvent is the message published for every order change.
type OrderEvent struct {
	Type     string             `json:"type"`
	OrderID  string             `json:"orderId"`
	Status   models.OrderStatus `json:"status"`
	Total    *decimal.Decimal   `json:"total,omitempty"`
	District string             `json:"district,omitempty"`
	At       time.Time          `json:"at"`
}

// Emitter publishes order events. It satisfies store.Notifier.
type Emitter struct {
	client  *redis.Client
	channel string
}

func NewEmitter(client *redis.Client) *Emitter {
	return &Emitter{client: client, channel: Channel}
}

func (e *Emitter) OrderPlaced(ctx context.Context, o models.Order) error {
	total := o.Total
	return e.publish(ctx, OrderEvent{
		Type:     OrderPlaced,
		OrderID:  o.ID,
		Status:   o.Status,
		Total:    &total,
		District: o.Customer.District,
		At:       time.Now().UTC(),
	})
}

func (e *Emitter) OrderStatusChanged(ctx context.Context, id string, status models.OrderStatus) error {
	return e.publish(ctx, OrderEvent{
		Type:    OrderStatusChanged,
		OrderID: id,
		Status:  status,
		At:      time.Now().UTC(),
	})
}

func (e *Emitter) publish(ctx context.Context, ev OrderEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "marshal order event")
	}
	if err := e.client.Publish(ctx, e.channel, data).Err(); err != nil {
		return errors.Wrapf(err, "publish to %s", e.channel)
	}
	log.WithFields(logrus.Fields{"type": ev.Type, "order": ev.OrderID}).Debug("event published")
	return nil
}

// Decode parses a published payload.
func Decode(payload string) (OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return OrderEvent{}, errors.Wrap(err, "decode order event")
	}
	return ev, nil
}

// StartWorker subscribes to the order channel and calls handle for every
// event until ctx is done.
func StartWorker(ctx context.Context, client *redis.Client, handle func(OrderEvent)) {
	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()
	ch := sub.Channel()

	log.WithField("channel", Channel).Info("listening for order events")
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, err := Decode(msg.Payload)
			if err != nil {
				log.WithError(err).Warn("skipping malformed event")
				continue
			}
			handle(ev)
		}
	}
}
