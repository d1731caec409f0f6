package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pcforge/storefront/internal/domain"
)

type productDTO struct {
	ID          int64  `json:"id"`
	CategoryID  int64  `json:"category"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       price  `json:"price"`
	Stock       int    `json:"stock"`
	Image       string `json:"image"`
	Available   bool   `json:"is_available"`
}

func (d productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:          d.ID,
		CategoryID:  d.CategoryID,
		Name:        d.Name,
		Slug:        d.Slug,
		Description: d.Description,
		Price:       float64(d.Price),
		Stock:       d.Stock,
		Image:       d.Image,
		Available:   d.Available,
	}
}

// Categories returns the flat category list; parent links are resolved by
// the catalog service.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories/", nil, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Products returns the server-side filtered product list. The query values
// are built by the catalog service (category, search, brand, specs,
// min_price, max_price).
func (c *Client) Products(ctx context.Context, query url.Values) ([]domain.Product, error) {
	var out []productDTO
	if err := c.do(ctx, http.MethodGet, "/api/products/", query, "", nil, &out); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(out))
	for _, dto := range out {
		products = append(products, dto.toDomain())
	}
	return products, nil
}

func (c *Client) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var out productDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%s/", slug), nil, "", nil, &out); err != nil {
		return nil, err
	}
	product := out.toDomain()
	return &product, nil
}

// Filters returns the dynamic facet definitions for one category.
func (c *Client) Filters(ctx context.Context, categoryID int64) ([]domain.Facet, error) {
	query := url.Values{"category": []string{strconv.FormatInt(categoryID, 10)}}
	var out []domain.Facet
	if err := c.do(ctx, http.MethodGet, "/api/filters/", query, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
