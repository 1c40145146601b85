package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	lockKeyPrefix     = "lock:"
	lockRetryInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by someone else is never released by us
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements domain.Locker with SET NX PX
type RedisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire polls for the lock until wait elapses. Returns
// domain.ErrDecisionInProgress if the lock stays held.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Lock",
		trace.WithAttributes(attribute.String("lock.key", key)),
	)
	defer span.End()

	fullKey := lockKeyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			span.RecordError(err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Join(domain.ErrDecisionInProgress, ctxErr)
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			released := false
			return func() {
				if released {
					return
				}
				released = true
				// Release on a fresh context so a cancelled request still frees the lock
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err()
			}, nil
		}

		if !time.Now().Before(deadline) {
			span.SetAttributes(attribute.String("lock.result", "busy"))
			return nil, domain.ErrDecisionInProgress
		}

		timer := time.NewTimer(lockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(domain.ErrDecisionInProgress, ctx.Err())
		case <-timer.C:
		}
	}
}
