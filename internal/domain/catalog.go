package domain

// Category is one node of the flat category list served by the backend.
// ParentID is nil for top-level categories.
type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *int64 `json:"parent_id"`
}

// CategoryNode is a top-level category with its direct subcategories.
type CategoryNode struct {
	Category
	Children []Category `json:"children"`
}

type Product struct {
	ID          int64   `json:"id"`
	CategoryID  int64   `json:"category"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image,omitempty"`
	Available   bool    `json:"is_available"`
}

// Facet is a filterable product attribute scoped to a category, with the
// discrete set of values products in that category actually carry.
type Facet struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
}
