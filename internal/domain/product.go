package domain

import "time"

type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	Stock        int       `json:"stock"`
	WeightGrams  int       `json:"weight"`
	UnitPrice    int64     `json:"original_price"`
	PrimaryImage string    `json:"primary_image,omitempty"`
	Images       []string  `json:"images,omitempty"`
	Category     string    `json:"category,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Snapshot reduces a full product to the fields a cart row carries.
func (p Product) Snapshot() *ProductSnapshot {
	return &ProductSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Stock:        p.Stock,
		WeightGrams:  p.WeightGrams,
		UnitPrice:    p.UnitPrice,
		PrimaryImage: p.PrimaryImage,
	}
}
