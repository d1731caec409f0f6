package domain

import "time"

// Profile is the delivery profile stored with the user account and prefilled
// into the checkout form.
type Profile struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	ZipCode  string `json:"zip_code"`
	Phone    string `json:"phone"`
}

type SavedCard struct {
	ID     int64  `json:"id"`
	Last4  string `json:"last_4"`
	Brand  string `json:"brand"`
	Expiry string `json:"expiry"`
}

// OrderItem is a cart line reduced to what the order endpoint needs. Price is
// the unit price captured at submission time.
type OrderItem struct {
	Product  int64   `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderSubmission is the payload for placing an order. It is built at
// checkout time and not retained locally afterwards.
type OrderSubmission struct {
	Profile
	ShippingMethod string      `json:"shipping_method"`
	PaymentMethod  string      `json:"payment_method"`
	TotalAmount    float64     `json:"total_amount"`
	Items          []OrderItem `json:"items"`
}

// Order is a record from the order history endpoint.
type Order struct {
	ID             int64       `json:"id"`
	FullName       string      `json:"full_name"`
	Email          string      `json:"email"`
	TotalAmount    float64     `json:"total_amount"`
	ShippingMethod string      `json:"shipping_method"`
	PaymentMethod  string      `json:"payment_method"`
	Paid           bool        `json:"paid"`
	CreatedAt      time.Time   `json:"created_at"`
	Items          []OrderItem `json:"items"`
}
