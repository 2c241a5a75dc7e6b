package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/estate-office/modules/person/domain/entities/detailcategory"
	"github.com/iota-uz/estate-office/pkg/composables"
)

const (
	listCategoriesQuery = `
		SELECT id, type_key, name, position
		FROM detail_categories
		WHERE type_key = $1
		ORDER BY position, id`

	listSubcategoriesByTypeQuery = `
		SELECT s.id, s.category_id, s.name, s.position
		FROM detail_subcategories s
		JOIN detail_categories c ON c.id = s.category_id
		WHERE c.type_key = $1
		ORDER BY s.position, s.id`

	listSubcategoriesByNameQuery = `
		SELECT s.id, s.category_id, s.name, s.position
		FROM detail_subcategories s
		JOIN detail_categories c ON c.id = s.category_id
		WHERE c.type_key = $1 AND c.name = $2
		ORDER BY s.position, s.id`
)

type DetailCategoryRepository struct{}

func NewDetailCategoryRepository() detailcategory.Repository {
	return &DetailCategoryRepository{}
}

func (r *DetailCategoryRepository) ListByType(ctx context.Context, typeKey string) ([]detailcategory.Category, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, listCategoriesQuery, typeKey)
	if err != nil {
		return nil, gerrors.Wrap(err, "list detail categories")
	}
	defer rows.Close()

	categories := make([]detailcategory.Category, 0)
	index := map[int64]int{}
	for rows.Next() {
		c := detailcategory.Category{Subcategories: []detailcategory.Subcategory{}}
		if err := rows.Scan(&c.ID, &c.TypeKey, &c.Name, &c.Position); err != nil {
			return nil, gerrors.Wrap(err, "scan detail category")
		}
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate detail categories")
	}
	if len(categories) == 0 {
		return categories, nil
	}

	subs, err := r.querySubcategories(ctx, listSubcategoriesByTypeQuery, typeKey)
	if err != nil {
		return nil, err
	}
	for _, s := range subs {
		if i, ok := index[s.CategoryID]; ok {
			categories[i].Subcategories = append(categories[i].Subcategories, s)
		}
	}
	return categories, nil
}

func (r *DetailCategoryRepository) Subcategories(
	ctx context.Context,
	typeKey, categoryName string,
) ([]detailcategory.Subcategory, error) {
	return r.querySubcategories(ctx, listSubcategoriesByNameQuery, typeKey, categoryName)
}

func (r *DetailCategoryRepository) querySubcategories(
	ctx context.Context,
	query string,
	args ...any,
) ([]detailcategory.Subcategory, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, gerrors.Wrap(err, "list detail subcategories")
	}
	defer rows.Close()

	out := make([]detailcategory.Subcategory, 0)
	for rows.Next() {
		var s detailcategory.Subcategory
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Position); err != nil {
			return nil, gerrors.Wrap(err, "scan detail subcategory")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "iterate detail subcategories")
	}
	return out, nil
}
