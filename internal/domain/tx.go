package domain

import (
	"context"
	"time"
)

// Transactor runs fn so that every repository write made with the ctx it
// receives commits or aborts together
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker hands out short-lived exclusive locks keyed by name
type Locker interface {
	// Acquire blocks up to wait for the lock; the returned release func is safe to call once
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (release func(), err error)
}
