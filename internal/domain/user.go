package domain

import "time"

// User represents the authenticated account as returned by the backend.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Address is a saved shipping destination. CityID feeds the shipping rate
// calculation; PostalCode is the fallback destination identifier.
type Address struct {
	ID            int64  `json:"id"`
	RecipientName string `json:"recipient_name"`
	PhoneNumber   string `json:"phone_number"`
	AddressLine   string `json:"address_line"`
	Province      string `json:"province"`
	City          string `json:"city"`
	CityID        string `json:"city_id,omitempty"`
	PostalCode    string `json:"postal_code"`
	IsDefault     bool   `json:"is_default"`
}
