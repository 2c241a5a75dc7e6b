package services

import (
	"context"
	"time"

	"github.com/iota-uz/estate-office/modules/person/domain/entities/detailcategory"
	"github.com/iota-uz/estate-office/pkg/cache"
	"github.com/iota-uz/estate-office/pkg/composables"
)

type DetailCategoryService struct {
	typeKey string
	repo    detailcategory.Repository
	cache   cache.Cache
	ttl     time.Duration
}

func NewDetailCategoryService(
	typeKey string,
	repo detailcategory.Repository,
	c cache.Cache,
	ttl time.Duration,
) *DetailCategoryService {
	if c == nil {
		c = cache.Nop()
	}
	return &DetailCategoryService{
		typeKey: typeKey,
		repo:    repo,
		cache:   c,
		ttl:     ttl,
	}
}

func (s *DetailCategoryService) Categories(ctx context.Context) ([]detailcategory.Category, error) {
	return cached(ctx, s, "detail_categories:"+s.typeKey, func() ([]detailcategory.Category, error) {
		return s.repo.ListByType(ctx, s.typeKey)
	})
}

func (s *DetailCategoryService) Subcategories(ctx context.Context, categoryName string) ([]detailcategory.Subcategory, error) {
	return cached(ctx, s, "detail_subcategories:"+s.typeKey+":"+categoryName, func() ([]detailcategory.Subcategory, error) {
		return s.repo.Subcategories(ctx, s.typeKey, categoryName)
	})
}

// cached serves key from the cache and falls through to load on a miss or
// a cache failure. Cache failures are logged, never returned.
func cached[T any](ctx context.Context, s *DetailCategoryService, key string, load func() (T, error)) (T, error) {
	logger := composables.UseLogger(ctx)

	var out T
	hit, err := s.cache.Get(ctx, key, &out)
	if err != nil {
		logger.WithError(err).WithField("key", key).Warn("detail taxonomy cache read failed")
	}
	if hit && err == nil {
		return out, nil
	}

	out, err = load()
	if err != nil {
		return out, err
	}
	if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
		logger.WithError(err).WithField("key", key).Warn("detail taxonomy cache write failed")
	}
	return out, nil
}
