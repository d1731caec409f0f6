package domain

// LineItem is one product entry in a cart. Stock is a snapshot of
// availability taken when the item was added; it is not re-validated
// afterwards.
type LineItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
	Slug      string  `json:"slug"`
	Stock     int     `json:"stock"`
}

// Cart is an ordered list of line items (insertion order) plus the shipping
// price chosen at checkout. Shipping is not part of the server-side cart.
type Cart struct {
	Items         []LineItem `json:"items"`
	ShippingPrice float64    `json:"shipping_price"`
}

// Total returns the sum of item subtotals plus shipping.
func (c Cart) Total() float64 {
	var total float64
	for _, it := range c.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total + c.ShippingPrice
}
