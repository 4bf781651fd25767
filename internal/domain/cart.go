package domain

// ProductSnapshot carries the product attributes a cart row needs for
// display and pricing. The backend embeds it in every cart item it can
// still resolve.
type ProductSnapshot struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Stock        int    `json:"stock"`
	WeightGrams  int    `json:"weight"`
	UnitPrice    int64  `json:"original_price"`
	PrimaryImage string `json:"primary_image"`
}

// CartItem is one line in the cart, keyed by the server-assigned row id
// (distinct from the product id). Product is nil when the backend could
// not resolve the referenced product; such rows are kept and flagged
// rather than silently dropped.
type CartItem struct {
	ID       int64            `json:"id"`
	Quantity int              `json:"qty"`
	Product  *ProductSnapshot `json:"product"`
}

// Broken reports whether the row lost its product reference.
func (i CartItem) Broken() bool {
	return i.Product == nil
}

// CartCount sums quantities across all rows, broken ones included, so the
// badge never understates what the backend still holds.
func CartCount(items []CartItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// CartAmount sums unit price times quantity over resolvable rows. Broken
// rows contribute nothing because their price is unknown.
func CartAmount(items []CartItem) int64 {
	var total int64
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		total += it.Product.UnitPrice * int64(it.Quantity)
	}
	return total
}

// CartWeight sums item weight in grams over resolvable rows, used for
// shipping quotes.
func CartWeight(items []CartItem) int {
	total := 0
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		total += it.Product.WeightGrams * it.Quantity
	}
	return total
}
