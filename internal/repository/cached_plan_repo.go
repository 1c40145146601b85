package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
)

const (
	planByIDKeyPrefix = "plan:id:"
	activePlansKey    = "plans:active"
)

// CachedPlanRepository wraps a plan repository with Redis caching.
// Customers read the active catalog far more often than admins edit it.
type CachedPlanRepository struct {
	inner domain.PlanRepository
	cache *RedisCacheRepository
	ttl   time.Duration
}

// NewCachedPlanRepository creates a new cached plan repository
func NewCachedPlanRepository(inner domain.PlanRepository, cache *RedisCacheRepository, ttl time.Duration) *CachedPlanRepository {
	return &CachedPlanRepository{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

// GetByID retrieves a plan with caching
func (r *CachedPlanRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	key := planByIDKeyPrefix + id

	var plan domain.Plan
	if err := r.cache.Get(ctx, key, &plan); err == nil {
		return &plan, nil
	}

	result, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Store in cache (ignore cache errors)
	_ = r.cache.Set(ctx, key, result, r.ttl)
	return result, nil
}

// GetActive retrieves the public catalog with caching
func (r *CachedPlanRepository) GetActive(ctx context.Context) ([]*domain.Plan, error) {
	var plans []*domain.Plan
	if err := r.cache.Get(ctx, activePlansKey, &plans); err == nil {
		return plans, nil
	}

	result, err := r.inner.GetActive(ctx)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, activePlansKey, result, r.ttl)
	return result, nil
}

// GetAll is the admin listing and always reads through
func (r *CachedPlanRepository) GetAll(ctx context.Context) ([]*domain.Plan, error) {
	return r.inner.GetAll(ctx)
}

// Create creates a plan and invalidates the catalog
func (r *CachedPlanRepository) Create(ctx context.Context, plan *domain.Plan) error {
	if err := r.inner.Create(ctx, plan); err != nil {
		return err
	}
	_ = r.cache.Delete(ctx, activePlansKey)
	return nil
}

// Update updates a plan and invalidates caches
func (r *CachedPlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	if err := r.inner.Update(ctx, plan); err != nil {
		return err
	}
	_ = r.cache.Delete(ctx, planByIDKeyPrefix+plan.ID, activePlansKey)
	return nil
}

// Delete deletes a plan and invalidates caches
func (r *CachedPlanRepository) Delete(ctx context.Context, id string) error {
	if err := r.inner.Delete(ctx, id); err != nil {
		return err
	}
	_ = r.cache.Delete(ctx, planByIDKeyPrefix+id, activePlansKey)
	return nil
}
