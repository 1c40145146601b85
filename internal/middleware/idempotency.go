package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// IdempotencyHeader carries the client-chosen key of a mutating request
const IdempotencyHeader = "X-Correlation-ID"

// Idempotency replays the cached response of a mutating request carrying an
// already seen X-Correlation-ID. Only 2xx responses are cached. Keys are scoped
// to the caller and path so one user cannot replay another's response.
func Idempotency(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPatch && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		correlationID := c.Get(IdempotencyHeader)
		if correlationID == "" {
			return c.Next()
		}

		key := fmt.Sprintf("idempotency:%s:%s:%s", GetUserID(c), c.Path(), correlationID)

		cached, err := redisClient.Get(c.UserContext(), key).Bytes()
		if err == nil && len(cached) > 0 {
			c.Set("X-Idempotent-Replay", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Send(cached)
		}
		if err != nil && err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("[Idempotency] lookup failed, processing request")
		}

		if err := c.Next(); err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return nil
		}
		// Response body is reused by fasthttp once the handler returns
		body := append([]byte(nil), c.Response().Body()...)
		if len(body) == 0 {
			return nil
		}

		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := redisClient.Set(bgCtx, key, body, ttl).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("[Idempotency] failed to cache response")
			}
		}()
		return nil
	}
}
