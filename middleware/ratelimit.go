package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sirupsen/logrus"

	"summatube/api-gateway/internal/apperr"
	"summatube/api-gateway/internal/metrics"
	"summatube/api-gateway/utils"
)

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	// Max requests per client per Window.
	Max    int
	Window time.Duration
	// Storage holds the window counters. Nil uses fiber's in-memory storage.
	Storage fiber.Storage
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the socket address.
func ClientIP(c *fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return c.IP()
}

// RateLimit allows each client IP cfg.Max requests per fixed window and answers
// 429 TOO_MANY_REQUESTS beyond that.
func RateLimit(cfg RateLimitConfig, log *logrus.Logger) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               cfg.Max,
		Expiration:        cfg.Window,
		KeyGenerator:      ClientIP,
		Storage:           cfg.Storage,
		LimiterMiddleware: limiter.FixedWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			metrics.RateLimitedTotal.Inc()
			log.WithFields(logrus.Fields{
				"client_ip": ClientIP(c),
				"path":      c.Path(),
			}).Warn("Rate limit exceeded")
			return utils.RespondWithAppError(c, apperr.New(apperr.TooManyRequests, ""))
		},
	})
}
