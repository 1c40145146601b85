package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
)

const contactKey = "contact"

// CachedContactRepository caches the contact singleton
type CachedContactRepository struct {
	inner domain.ContactRepository
	cache *RedisCacheRepository
	ttl   time.Duration
}

func NewCachedContactRepository(inner domain.ContactRepository, cache *RedisCacheRepository, ttl time.Duration) *CachedContactRepository {
	return &CachedContactRepository{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func (r *CachedContactRepository) GetOrCreate(ctx context.Context) (*domain.Contact, error) {
	var contact domain.Contact
	if err := r.cache.Get(ctx, contactKey, &contact); err == nil {
		return &contact, nil
	}

	result, err := r.inner.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(ctx, contactKey, result, r.ttl)
	return result, nil
}

// Update writes through and refreshes the cached copy
func (r *CachedContactRepository) Update(ctx context.Context, updates map[string]string) (*domain.Contact, error) {
	result, err := r.inner.Update(ctx, updates)
	if err != nil {
		_ = r.cache.Delete(ctx, contactKey)
		return nil, err
	}
	_ = r.cache.Set(ctx, contactKey, result, r.ttl)
	return result, nil
}
