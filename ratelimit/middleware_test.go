package ratelimit

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	policy := Policy{Prefix: "test:", Window: time.Minute, Max: 2, Message: "slow down"}

	newApp := func(limiter *Limiter) *fiber.App {
		app := fiber.New()
		app.Get("/", Middleware(limiter, policy), func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})
		return app
	}

	t.Run("should set rate limit headers and reject over the limit", func(t *testing.T) {
		limiter, _ := newTestLimiter(t)
		app := newApp(limiter)

		for i := 0; i < 2; i++ {
			res, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, res.StatusCode)
			assert.Equal(t, "2", res.Header.Get("X-RateLimit-Limit"))
		}

		res, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusTooManyRequests, res.StatusCode)
		assert.Equal(t, "0", res.Header.Get("X-RateLimit-Remaining"))
		assert.Equal(t, "60", res.Header.Get(fiber.HeaderRetryAfter))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		assert.Equal(t, "rate_limit_exceeded", body["error"])
		assert.Equal(t, "slow down", body["message"])
		assert.Equal(t, float64(60), body["retryAfter"])
	})

	t.Run("should key anonymous and authenticated callers separately", func(t *testing.T) {
		limiter, mr := newTestLimiter(t)
		app := fiber.New()
		app.Use(func(c *fiber.Ctx) error {
			if c.Get("X-User") != "" {
				c.Locals("user", int64(5))
			}
			return c.Next()
		})
		app.Get("/", Middleware(limiter, policy), func(c *fiber.Ctx) error { return c.SendString("ok") })

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-User", "1")
		_, err := app.Test(req)
		require.NoError(t, err)
		_, err = app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)

		assert.True(t, mr.Exists("test:5:0.0.0.0"))
		assert.True(t, mr.Exists("test:anonymous:0.0.0.0"))
	})

	t.Run("should pass through without headers when disabled", func(t *testing.T) {
		app := newApp(New(nil, Options{}))

		for i := 0; i < 5; i++ {
			res, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, res.StatusCode)
			assert.Empty(t, res.Header.Get("X-RateLimit-Limit"))
		}
	})

	t.Run("should fail open when the store is down", func(t *testing.T) {
		app := newApp(New(failingStore{}, Options{Enabled: true}))

		for i := 0; i < 5; i++ {
			res, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, res.StatusCode)
		}
	})
}
