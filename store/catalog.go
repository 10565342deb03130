package store

import (
	"leviro/models"

	"github.com/shopspring/decimal"
)

// DefaultCatalog is served when neither the remote backend nor local storage
// has any products.
func DefaultCatalog() []models.Product {
	return []models.Product{
		{
			ID:          "1",
			Name:        "Premium White Cotton Panjabi",
			Price:       decimal.NewFromInt(2850),
			Description: "Crafted from the finest Egyptian cotton, this premium white Panjabi features intricate embroidery on the collar and cuffs. Perfect for weddings, Eid, and special occasions.",
			Image:       "https://images.unsplash.com/photo-1594938298603-c8148c4dae35?w=800&q=80",
			Sizes:       []models.Size{models.SizeS, models.SizeM, models.SizeL, models.SizeXL, models.SizeXXL},
		},
		{
			ID:          "2",
			Name:        "Royal Navy Blue Silk Panjabi",
			Price:       decimal.NewFromInt(4250),
			Description: "A stunning navy blue Panjabi made from premium Indian silk. Features elegant gold thread work on the chest and collar. Ideal for formal events and celebrations.",
			Image:       "https://images.unsplash.com/photo-1610030469983-98e550d6193c?w=800&q=80",
			Sizes:       []models.Size{models.SizeS, models.SizeM, models.SizeL, models.SizeXL},
		},
		{
			ID:          "3",
			Name:        "Classic Cream Linen Panjabi",
			Price:       decimal.NewFromInt(3150),
			Description: "A timeless cream-colored Panjabi crafted from breathable linen. Minimalist design with subtle texture, perfect for both casual and semi-formal occasions.",
			Image:       "https://images.unsplash.com/photo-1583391733956-3750e0ff4e8b?w=800&q=80",
			Sizes:       []models.Size{models.SizeM, models.SizeL, models.SizeXL, models.SizeXXL},
		},
	}
}
