package stubapi

import (
	"fmt"

	"storefront-client/internal/domain"
)

// DemoEmail and DemoPassword are the seeded account for manual testing.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "Demo1234"
)

// Seed inserts basic catalog data and a demo account for manual testing.
func Seed(st *Store) error {
	products := []domain.Product{
		{
			Name:         "Rose Bouquet",
			Description:  "A dozen fresh red roses, hand wrapped",
			Stock:        25,
			WeightGrams:  800,
			UnitPrice:    250000,
			PrimaryImage: "/images/rose-bouquet.jpg",
			Category:     "Bouquets",
		},
		{
			Name:         "Sunflower Basket",
			Description:  "Bright sunflowers in a woven basket",
			Stock:        12,
			WeightGrams:  1500,
			UnitPrice:    320000,
			PrimaryImage: "/images/sunflower-basket.jpg",
			Category:     "Baskets",
		},
		{
			Name:         "Orchid Pot",
			Description:  "Potted phalaenopsis orchid",
			Stock:        8,
			WeightGrams:  2200,
			UnitPrice:    475000,
			PrimaryImage: "/images/orchid-pot.jpg",
			Category:     "Plants",
		},
		{
			Name:         "Lily Arrangement",
			Description:  "White lilies with seasonal greens",
			Stock:        15,
			WeightGrams:  1100,
			UnitPrice:    285000,
			PrimaryImage: "/images/lily-arrangement.jpg",
			Category:     "Bouquets",
		},
	}
	for _, p := range products {
		st.AddProduct(p)
	}

	if err := st.Register("Demo User", DemoEmail, DemoPassword); err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	return nil
}
