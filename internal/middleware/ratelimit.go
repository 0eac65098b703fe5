package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/veilpay/veilpay/internal/token"
)

// RateLimit caps requests per minute per key using Redis if available.
// Without Redis, and on cache errors, it fails open.
func RateLimit(cache *redis.Client, scope string, maxPerMin int, keyOf func(*fiber.Ctx) string) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		key := keyOf(c)
		if key == "" {
			key = c.IP()
		}
		redisKey := "veilpay:rl:" + scope + ":" + key
		cnt, err := cache.Incr(c.UserContext(), redisKey).Result()
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), redisKey, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "rate limit exceeded, try again later")
		}
		return c.Next()
	}
}

// LoginRateLimit limits login attempts per address or IP.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	return RateLimit(cache, "login", maxPerMin, func(c *fiber.Ctx) string {
		var req struct {
			Address string `json:"address"`
		}
		_ = c.BodyParser(&req)
		return strings.ToLower(strings.TrimSpace(req.Address))
	})
}

// WrapRateLimit limits wrap requests per caller address so one caller cannot
// flood the entropy source's pending-request table.
func WrapRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	return RateLimit(cache, "wrap", maxPerMin, func(c *fiber.Ctx) string {
		addr, _ := c.Locals(token.CallerAddressLocal).(string)
		return strings.ToLower(addr)
	})
}
