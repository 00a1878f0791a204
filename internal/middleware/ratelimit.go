package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"jamsesh/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be asked.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// Limit is a fixed-window budget for one named action.
type Limit struct {
	Name     string
	Requests int
	Window   time.Duration
}

// Budgets for the endpoints that write or call out.
var (
	SignupLimit     = Limit{Name: "signup", Requests: 3, Window: 10 * time.Minute}
	LoginLimit      = Limit{Name: "login", Requests: 10, Window: 5 * time.Minute}
	CreatePostLimit = Limit{Name: "create_post", Requests: 10, Window: 5 * time.Minute}
	GeocodeLimit    = Limit{Name: "geocode", Requests: 30, Window: time.Minute}
)

var errNoRateLimitStore = errors.New("rate limit store not configured")

// rateLimitBypassed reports whether the environment skips rate limiting.
// Local runs and tests are never throttled.
func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "development", "test":
		return true
	}
	return false
}

// CheckRateLimit counts one hit of limit for id and reports whether it is
// within budget, along with how long until the window resets.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, limit Limit, id string) (bool, time.Duration, error) {
	if rateLimitBypassed() {
		return true, 0, nil
	}
	if rdb == nil {
		return false, 0, errNoRateLimitStore
	}

	key := "rl:" + limit.Name + ":" + id
	count, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		RedisErrors.WithLabelValues("incr").Inc()
		return false, 0, err
	}
	if count == 1 {
		if err := rdb.Expire(ctx, key, limit.Window).Err(); err != nil {
			RedisErrors.WithLabelValues("expire").Inc()
			return false, 0, err
		}
	}

	retryAfter, err := rdb.TTL(ctx, key).Result()
	if err != nil || retryAfter < 0 {
		retryAfter = limit.Window
	}
	return count <= int64(limit.Requests), retryAfter, nil
}

// RateLimit enforces limit per signed-in user, or per client IP for anonymous
// callers. Redis outages let requests through.
func RateLimit(rdb *redis.Client, limit Limit) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, FailOpen)
}

// RateLimitWithPolicy is RateLimit with an explicit outage policy.
func RateLimitWithPolicy(rdb *redis.Client, limit Limit, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		}

		allowed, retryAfter, err := CheckRateLimit(c.UserContext(), rdb, limit, id)
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit check failed",
				"limit", limit.Name, "policy", policy, "error", err)
			if policy == FailClosed {
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					models.NewInternalError(err))
			}
			return c.Next()
		}

		if !allowed {
			secs := int(retryAfter.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, try again later"))
		}
		return c.Next()
	}
}
