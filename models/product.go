package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go out as JSON numbers; the API clients do arithmetic on them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Size is one of the fixed garment sizes a product can be offered in.
type Size string

const (
	SizeS   Size = "S"
	SizeM   Size = "M"
	SizeL   Size = "L"
	SizeXL  Size = "XL"
	SizeXXL Size = "XXL"
)

// AllSizes is the size enumeration in display order.
var AllSizes = []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL}

func (s Size) Valid() bool {
	return s.rank() >= 0
}

func (s Size) rank() int {
	for i, v := range AllSizes {
		if v == s {
			return i
		}
	}
	return -1
}

// SortSizes returns the known sizes of in in enumeration order, without duplicates.
func SortSizes(in []Size) []Size {
	seen := make([]bool, len(AllSizes))
	for _, s := range in {
		if r := s.rank(); r >= 0 {
			seen[r] = true
		}
	}
	out := make([]Size, 0, len(in))
	for i, ok := range seen {
		if ok {
			out = append(out, AllSizes[i])
		}
	}
	return out
}

// Product is a catalog entry.
type Product struct {
	ID          string          `json:"id" bson:"_id"`
	Name        string          `json:"name" bson:"name"`
	Price       decimal.Decimal `json:"price" bson:"price"`
	Description string          `json:"description" bson:"description"`
	Image       string          `json:"image" bson:"image"` // URL or data: URL, opaque to the store
	Sizes       []Size          `json:"sizes" bson:"sizes"`
	CreatedAt   time.Time       `json:"createdAt" bson:"created_at"`
}

func (p Product) HasSize(s Size) bool {
	for _, v := range p.Sizes {
		if v == s {
			return true
		}
	}
	return false
}

// ProductDraft is what the admin submits to create a product.
type ProductDraft struct {
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Sizes       []Size          `json:"sizes"`
}

// ProductPatch carries the fields of an edit; nil fields are left unchanged.
type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Description *string          `json:"description,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Sizes       []Size           `json:"sizes,omitempty"`
}

// Apply merges the patch into a copy of p.
func (pp ProductPatch) Apply(p Product) Product {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Price != nil {
		p.Price = *pp.Price
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.Image != nil {
		p.Image = *pp.Image
	}
	if pp.Sizes != nil {
		p.Sizes = SortSizes(pp.Sizes)
	}
	return p
}
