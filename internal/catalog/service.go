// Package catalog is the read-only projection over categories, products and
// per-category filter facets. It owns no state beyond an in-flight dedupe;
// everything it serves comes straight from the backend.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/pcforge/storefront/internal/domain"
)

// CatalogAPI is the slice of the backend client the projection reads from.
type CatalogAPI interface {
	Categories(ctx context.Context) ([]domain.Category, error)
	Products(ctx context.Context, query url.Values) ([]domain.Product, error)
	ProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Filters(ctx context.Context, categoryID int64) ([]domain.Facet, error)
}

// Query is one product listing request. Selection maps facet id to the
// chosen value; the brand facet travels as its own query parameter, the rest
// are packed into the specs parameter.
type Query struct {
	CategoryID int64
	Search     string
	Selection  map[string]string
	MinPrice   float64
	MaxPrice   float64
}

const brandFacetID = "brand"

type Service struct {
	api CatalogAPI
	sfg singleflight.Group // dedupes concurrent facet fetches per category
	log zerolog.Logger
}

func NewService(backend CatalogAPI, log zerolog.Logger) *Service {
	return &Service{
		api: backend,
		log: log,
	}
}

// CategoryTree folds the backend's flat category list into top-level nodes
// with their direct subcategories attached.
func (s *Service) CategoryTree(ctx context.Context) ([]domain.CategoryNode, error) {
	flat, err := s.api.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}

	nodes := make([]domain.CategoryNode, 0, len(flat))
	for _, cat := range flat {
		if cat.ParentID != nil {
			continue
		}
		node := domain.CategoryNode{Category: cat}
		for _, child := range flat {
			if child.ParentID != nil && *child.ParentID == cat.ID {
				node.Children = append(node.Children, child)
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Products lists products filtered server-side according to the query.
func (s *Service) Products(ctx context.Context, q Query) ([]domain.Product, error) {
	products, err := s.api.Products(ctx, buildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	return products, nil
}

func (s *Service) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.api.ProductBySlug(ctx, slug)
}

// Facets returns the dynamic filter definitions for a category. Concurrent
// calls for the same category share one backend request.
func (s *Service) Facets(ctx context.Context, categoryID int64) ([]domain.Facet, error) {
	key := strconv.FormatInt(categoryID, 10)
	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		return s.api.Filters(ctx, categoryID)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch facets for category %d: %w", categoryID, err)
	}
	return v.([]domain.Facet), nil
}

func buildQuery(q Query) url.Values {
	params := url.Values{}
	if q.CategoryID != 0 {
		params.Set("category", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if brand, ok := q.Selection[brandFacetID]; ok && brand != "" {
		params.Set("brand", brand)
	}

	// Remaining facets are packed as "key:value,key:value"; keys are sorted
	// so the query string is stable.
	keys := make([]string, 0, len(q.Selection))
	for key := range q.Selection {
		if key != brandFacetID {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	specs := make([]string, 0, len(keys))
	for _, key := range keys {
		specs = append(specs, key+":"+q.Selection[key])
	}
	if len(specs) > 0 {
		params.Set("specs", strings.Join(specs, ","))
	}

	if q.MinPrice > 0 {
		params.Set("min_price", strconv.FormatFloat(q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice > 0 {
		params.Set("max_price", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	return params
}
