package detailcategory

import (
	"context"
)

type Subcategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
}

type Category struct {
	ID            int64         `json:"id"`
	TypeKey       string        `json:"type_key"`
	Name          string        `json:"name"`
	Position      int           `json:"position"`
	Subcategories []Subcategory `json:"subcategories"`
}

type Repository interface {
	// ListByType returns the categories of one morph type with their
	// subcategories, both ordered by position, id.
	ListByType(ctx context.Context, typeKey string) ([]Category, error)
	// Subcategories returns the subcategories of the named category of one
	// morph type; an unknown name yields an empty slice.
	Subcategories(ctx context.Context, typeKey, categoryName string) ([]Subcategory, error)
}
