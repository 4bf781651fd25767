package domain

import "time"

type Order struct {
	ID           int64       `json:"id"`
	OrderNumber  string      `json:"order_number"`
	Status       string      `json:"status"`
	TotalAmount  int64       `json:"total_amount"`
	ShippingCost int64       `json:"shipping_cost"`
	OrderDate    time.Time   `json:"order_date"`
	Address      *Address    `json:"address,omitempty"`
	Shipment     *Shipment   `json:"shipment,omitempty"`
	Items        []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug,omitempty"`
	Quantity     int    `json:"qty"`
	UnitPrice    int64  `json:"price"`
	PrimaryImage string `json:"primary_image,omitempty"`
}

type Shipment struct {
	Courier        string `json:"courier"`
	Service        string `json:"service"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	Status         string `json:"status"`
}

// PageMeta mirrors the backend's paginator envelope for order history.
type PageMeta struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}
