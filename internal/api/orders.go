package api

import (
	"context"
	"net/http"
	"time"

	"github.com/pcforge/storefront/internal/domain"
)

type orderItemDTO struct {
	Product  int64 `json:"product"`
	Quantity int   `json:"quantity"`
	Price    price `json:"price"`
}

type orderDTO struct {
	ID             int64          `json:"id"`
	FullName       string         `json:"full_name"`
	Email          string         `json:"email"`
	TotalAmount    price          `json:"total_amount"`
	ShippingMethod string         `json:"shipping_method"`
	PaymentMethod  string         `json:"payment_method"`
	Paid           bool           `json:"paid"`
	CreatedAt      time.Time      `json:"created_at"`
	Items          []orderItemDTO `json:"items"`
}

// SubmitOrder places the order. Token may be empty for guest checkout.
func (c *Client) SubmitOrder(ctx context.Context, token string, order domain.OrderSubmission) error {
	return c.do(ctx, http.MethodPost, "/api/orders/", nil, token, order, nil)
}

// MyOrders returns the order history of the authenticated user, newest first.
func (c *Client) MyOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var out []orderDTO
	if err := c.do(ctx, http.MethodGet, "/api/my-orders/", nil, token, nil, &out); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(out))
	for _, dto := range out {
		items := make([]domain.OrderItem, 0, len(dto.Items))
		for _, it := range dto.Items {
			items = append(items, domain.OrderItem{
				Product:  it.Product,
				Quantity: it.Quantity,
				Price:    float64(it.Price),
			})
		}
		orders = append(orders, domain.Order{
			ID:             dto.ID,
			FullName:       dto.FullName,
			Email:          dto.Email,
			TotalAmount:    float64(dto.TotalAmount),
			ShippingMethod: dto.ShippingMethod,
			PaymentMethod:  dto.PaymentMethod,
			Paid:           dto.Paid,
			CreatedAt:      dto.CreatedAt,
			Items:          items,
		})
	}
	return orders, nil
}
