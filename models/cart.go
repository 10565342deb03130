package models

import "github.com/shopspring/decimal"

// CartItem is one product+size line in a shopper's cart. Name, price and image
// are copied from the product when the line is created.
type CartItem struct {
	ID        string          `json:"id" bson:"id"`
	ProductID string          `json:"productId" bson:"product_id"`
	Name      string          `json:"name" bson:"name"`
	Price     decimal.Decimal `json:"price" bson:"price"`
	Image     string          `json:"image" bson:"image"`
	Size      Size            `json:"size" bson:"size"`
	Quantity  int             `json:"quantity" bson:"quantity"`
}

// LineTotal is price × quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
