package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"WasteGuard-Backend/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type CacheConfig struct {
	TTL time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 1 * time.Minute}
}

// CacheMiddleware caches successful GET responses in Redis, keyed per user
// so one user's inventory never leaks into another's. A nil client disables
// caching entirely.
func CacheMiddleware(redisClient *redis.Client, config CacheConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if redisClient == nil || c.Method() != fiber.MethodGet {
			return c.Next()
		}

		cacheKey := generateCacheKey(c)

		ctx := context.Background()
		cached, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil && len(cached) > 0 {
			c.Set("X-Cache", "HIT")
			c.Set("Content-Type", "application/json")
			return c.Send(cached)
		}

		err = c.Next()

		if c.Response().StatusCode() == fiber.StatusOK {
			body := c.Response().Body()
			if setErr := redisClient.Set(ctx, cacheKey, body, config.TTL).Err(); setErr != nil {
				logger.Logger.Warn().
					Err(setErr).
					Str("cache_key", cacheKey).
					Msg("Failed to cache response")
			}
		}
		c.Set("X-Cache", "MISS")

		return err
	}
}

// cacheKeyPrefix scopes every cached response under its user, so a
// mutation can purge that user's entries without touching anyone else's.
func cacheKeyPrefix(userID string) string {
	return "respcache:" + userID + ":"
}

func generateCacheKey(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	raw := fmt.Sprintf("%s?%s", c.Path(), string(c.Request().URI().QueryString()))
	sum := sha256.Sum256([]byte(raw))
	return cacheKeyPrefix(userID) + hex.EncodeToString(sum[:])
}

// CacheInvalidationMiddleware purges the user's cached GET responses
// after a successful mutation, so a create, update or delete is visible
// on the next read instead of after the response TTL.
func CacheInvalidationMiddleware(redisClient *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if redisClient == nil || c.Method() == fiber.MethodGet || err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < 200 || status >= 300 {
			return err
		}

		userID, _ := c.Locals("user_id").(string)
		if userID == "" {
			return err
		}

		ctx := context.Background()
		iter := redisClient.Scan(ctx, 0, cacheKeyPrefix(userID)+"*", 0).Iterator()
		for iter.Next(ctx) {
			if delErr := redisClient.Del(ctx, iter.Val()).Err(); delErr != nil {
				logger.Logger.Warn().
					Err(delErr).
					Str("cache_key", iter.Val()).
					Msg("Failed to purge cached response")
			}
		}
		if iterErr := iter.Err(); iterErr != nil {
			logger.Logger.Warn().
				Err(iterErr).
				Str("user_id", userID).
				Msg("Failed to scan cached responses")
		}

		return err
	}
}
