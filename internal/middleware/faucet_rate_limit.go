package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/custard-wallet/custard_ledger/internal/wallet"
)

const faucetRateLimitPrefix = "rl:faucet:"

// FaucetRateLimit caps faucet requests per recipient address (or client IP
// when the body has no address) using a one-minute Redis counter. Without
// Redis, or when Redis fails, requests pass through.
func FaucetRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 3
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		var req struct {
			Address string `json:"address"`
		}
		_ = c.BodyParser(&req)
		subject := wallet.CanonicalAddress(req.Address)
		if subject == "" {
			subject = "ip:" + c.IP()
		}

		ctx := c.UserContext()
		key := faucetRateLimitPrefix + strings.ToLower(subject)
		pipe := cache.TxPipeline()
		incr := pipe.Incr(ctx, key)
		ttlCmd := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("faucet rate limit unavailable", slog.String("subject", subject), slog.Any("error", err))
			return c.Next()
		}
		cnt, ttl := incr.Val(), ttlCmd.Val()
		// negative TTL: new counter, or one whose EXPIRE was lost
		if ttl < 0 {
			if err := cache.Expire(ctx, key, time.Minute).Err(); err != nil {
				logger.Warn("faucet rate limit expiry not set", slog.String("subject", subject), slog.Any("error", err))
			}
			ttl = time.Minute
		}
		if cnt > int64(maxPerMin) {
			c.Set(fiber.HeaderRetryAfter, formatSeconds(ttl))
			return fiber.NewError(http.StatusTooManyRequests, "faucet limit reached for this address, try again later")
		}
		return c.Next()
	}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatInt(int64((d+time.Second-1)/time.Second), 10)
}
