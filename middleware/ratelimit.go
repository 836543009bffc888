package middleware

import (
	"net/http"
	"strconv"
	"time"

	"notemate/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const rateLimitPrefix = "ratelimit:"

// RateLimiter is a fixed window counter per client IP kept in Redis, so the
// limit holds across server instances.
type RateLimiter struct {
	Client redis.UniversalClient
	Max    int
	Window time.Duration
}

func NewRateLimiter(client redis.UniversalClient, max int, window time.Duration) *RateLimiter {
	return &RateLimiter{Client: client, Max: max, Window: window}
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Max <= 0 || rl.Window <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rateLimitPrefix + c.ClientIP()
		pipe := rl.Client.Pipeline()
		incr := pipe.Incr(ctx, key)
		ttlCmd := pipe.TTL(ctx, key)
		_, err := pipe.Exec(ctx)
		count, ttl := incr.Val(), ttlCmd.Val()
		// a key without expiry would block the client for good
		if err == nil && ttl < 0 {
			ttl = rl.Window
			err = rl.Client.Expire(ctx, key, rl.Window).Err()
		}
		if err != nil {
			// fail open; an unavailable Redis must not take the API down
			zerolog.Ctx(ctx).Warn().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		remaining := int64(rl.Max) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.Max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.Max) {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Round(time.Second).Seconds())))
			utils.TrackError("http", "rate_limited")
			utils.Abort(c, http.StatusTooManyRequests, "Too many requests from this IP, please try again later.")
			return
		}
		c.Next()
	}
}
