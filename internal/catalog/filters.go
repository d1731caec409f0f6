package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pcforge/storefront/internal/domain"
)

var (
	ErrUnknownFacet      = errors.New("facet not defined for this category")
	ErrInvalidFacetValue = errors.New("value not allowed for this facet")
)

// FilterState tracks the category, active facet selections and price range
// for a product listing. Selections are validated against the facet
// definitions fetched for the current category; changing the category resets
// the selections but keeps the price range, matching the sidebar behavior.
type FilterState struct {
	mu         sync.Mutex
	svc        *Service
	categoryID int64
	facets     []domain.Facet
	selection  map[string]string
	minPrice   float64
	maxPrice   float64
}

func NewFilterState(svc *Service) *FilterState {
	return &FilterState{
		svc:       svc,
		selection: make(map[string]string),
	}
}

// SetCategory switches the active category (0 clears it), drops the facet
// selections, and loads the new category's facet definitions.
func (f *FilterState) SetCategory(ctx context.Context, categoryID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.categoryID = categoryID
	f.selection = make(map[string]string)
	f.facets = nil
	if categoryID == 0 {
		return nil
	}

	facets, err := f.svc.Facets(ctx, categoryID)
	if err != nil {
		return err
	}
	f.facets = facets
	return nil
}

// Toggle selects value for the facet, or clears the selection when the same
// value is already active.
func (f *FilterState) Toggle(facetID, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	facet, ok := f.facetByID(facetID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFacet, facetID)
	}

	allowed := false
	for _, opt := range facet.Options {
		if opt == value {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s=%s", ErrInvalidFacetValue, facetID, value)
	}

	if f.selection[facetID] == value {
		delete(f.selection, facetID)
	} else {
		f.selection[facetID] = value
	}
	return nil
}

func (f *FilterState) SetPriceRange(minPrice, maxPrice float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minPrice = minPrice
	f.maxPrice = maxPrice
}

func (f *FilterState) Facets() []domain.Facet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Facet(nil), f.facets...)
}

func (f *FilterState) Selection() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.selection))
	for k, v := range f.selection {
		out[k] = v
	}
	return out
}

// Query snapshots the filter state into a product listing query.
func (f *FilterState) Query(search string) Query {
	f.mu.Lock()
	defer f.mu.Unlock()

	selection := make(map[string]string, len(f.selection))
	for k, v := range f.selection {
		selection[k] = v
	}
	return Query{
		CategoryID: f.categoryID,
		Search:     search,
		Selection:  selection,
		MinPrice:   f.minPrice,
		MaxPrice:   f.maxPrice,
	}
}

func (f *FilterState) facetByID(id string) (domain.Facet, bool) {
	for _, facet := range f.facets {
		if facet.ID == id {
			return facet, true
		}
	}
	return domain.Facet{}, false
}
