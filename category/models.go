package category

import "time"

// Category is a service category. Top-level categories carry their
// subcategories; a subcategory may carry its parent.
type Category struct {
	ID            string
	Name          string
	Slug          string
	Description   *string
	Icon          *string
	ParentID      *string
	Order         int
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Subcategories []Category
	Parent        *Category
}

type CreateParams struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	ParentID    *string `json:"parentId"`
	Order       *int    `json:"order"`
}

// UpdateParams is a partial update; nil fields are left unchanged.
type UpdateParams struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Order       *int    `json:"order"`
	Active      *bool   `json:"active"`
}
