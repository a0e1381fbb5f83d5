package ratelimit

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// KeyFunc returns the actor and scope identifiers of a request.
type KeyFunc func(c *fiber.Ctx) (actor, scope string)

// KeyByUserAndIP keys on the authenticated user set in c.Locals("user"),
// falling back to "anonymous", plus the client IP.
func KeyByUserAndIP(c *fiber.Ctx) (string, string) {
	actor := "anonymous"
	if id, ok := c.Locals("user").(int64); ok && id > 0 {
		actor = strconv.FormatInt(id, 10)
	}
	return actor, ClientIP(c)
}

// ClientIP is c.IP(), or the socket address when a trusted proxy sent no
// forwarding header.
func ClientIP(c *fiber.Ctx) string {
	if ip := c.IP(); ip != "" {
		return ip
	}
	return c.Context().RemoteIP().String()
}

func Middleware(limiter *Limiter, policy Policy, keyFuncs ...KeyFunc) fiber.Handler {
	keyFunc := KeyByUserAndIP
	if len(keyFuncs) > 0 && keyFuncs[0] != nil {
		keyFunc = keyFuncs[0]
	}

	return func(c *fiber.Ctx) error {
		actor, scope := keyFunc(c)
		decision := limiter.Allow(c.UserContext(), policy, actor, scope)

		if decision.Outcome == OutcomeBypassed || decision.Outcome == OutcomeUnavailable {
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if decision.ResetIn > 0 {
			c.Set("X-RateLimit-Reset", strconv.FormatInt(Seconds(decision.ResetIn), 10))
		}

		if !decision.Allowed {
			retryAfter := Seconds(decision.RetryAfter)
			c.Set(fiber.HeaderRetryAfter, strconv.FormatInt(retryAfter, 10))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":      "rate_limit_exceeded",
				"message":    policy.Message,
				"retryAfter": retryAfter,
			})
		}

		return c.Next()
	}
}

// Seconds rounds d up to whole seconds.
func Seconds(d time.Duration) int64 {
	return int64(math.Ceil(d.Seconds()))
}
