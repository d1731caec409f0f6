package api

import (
	"context"
	"net/http"

	"github.com/pcforge/storefront/internal/domain"
)

type cartItemDTO struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     price  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image"`
	Slug      string `json:"slug"`
	Stock     int    `json:"stock"`
}

type cartDTO struct {
	Items []cartItemDTO `json:"items"`
}

type cartLineRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity,omitempty"`
}

// FetchCart returns the authoritative server-side cart for the session.
func (c *Client) FetchCart(ctx context.Context, token string) ([]domain.LineItem, error) {
	var out cartDTO
	if err := c.do(ctx, http.MethodGet, "/api/cart/", nil, token, nil, &out); err != nil {
		return nil, err
	}

	items := make([]domain.LineItem, 0, len(out.Items))
	for _, it := range out.Items {
		stock := it.Stock
		if stock == 0 {
			// older carts may predate stock tracking
			stock = 99
		}
		items = append(items, domain.LineItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: float64(it.Price),
			Quantity:  it.Quantity,
			Image:     it.Image,
			Slug:      it.Slug,
			Stock:     stock,
		})
	}
	return items, nil
}

// AddCartItem adds a quantity delta for one product to the server cart.
func (c *Client) AddCartItem(ctx context.Context, token string, productID int64, quantity int) error {
	return c.do(ctx, http.MethodPost, "/api/cart/", nil, token, cartLineRequest{
		ProductID: productID,
		Quantity:  quantity,
	}, nil)
}

// RemoveCartItem deletes the whole line for one product from the server cart.
func (c *Client) RemoveCartItem(ctx context.Context, token string, productID int64) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/", nil, token, cartLineRequest{
		ProductID: productID,
	}, nil)
}
