package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusDelivered OrderStatus = "Delivered"
)

func (s OrderStatus) Valid() bool {
	return s == StatusPending || s == StatusDelivered
}

// PaymentCOD is cash on delivery, the default payment method.
const PaymentCOD = "cod"

// Customer is the delivery record captured at checkout.
type Customer struct {
	Name          string `json:"name" bson:"customer_name"`
	Mobile        string `json:"mobile" bson:"customer_mobile"`
	District      string `json:"district" bson:"customer_district"`
	Thana         string `json:"thana" bson:"customer_thana"` // thana / upazila
	Address       string `json:"address" bson:"customer_address"`
	PaymentMethod string `json:"paymentMethod" bson:"payment_method"`
}

// Order is a placed order. Items and Total are a snapshot of the cart at
// placement time and are never recomputed.
type Order struct {
	ID        string          `json:"id" bson:"_id"`
	Customer  Customer        `json:"customer" bson:",inline"`
	Items     []CartItem      `json:"items" bson:"items"`
	Total     decimal.Decimal `json:"total" bson:"total"`
	Status    OrderStatus     `json:"status" bson:"status"`
	CreatedAt time.Time       `json:"createdAt" bson:"created_at"`
}
