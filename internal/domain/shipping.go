package domain

// ShippingOption is one courier service quote for a destination/weight pair.
type ShippingOption struct {
	Code        string `json:"code"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	ETD         string `json:"etd"`
}
