package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/redis/go-redis/v9"
)

type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

func rateKey(c *gin.Context) string {
	who := "ip:" + c.ClientIP()
	if claims := helpers.CurrentClaims(c); claims != nil {
		who = "user:" + claims.UserID.String()
	}
	return fmt.Sprintf("rl:%s:%s %s", who, c.Request.Method, c.FullPath())
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// RateLimit is a fixed-window counter per caller and route for mutating
// requests. Redis failures let the request through. EXPIRE NX needs
// Redis 7 or later.
func RateLimit(rdb redis.Cmdable, cfg RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || rdb == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := rateKey(c)

		// INCR and EXPIRE NX run in one transaction, so a counter can never be
		// left without a TTL and every hit repairs a missing one.
		var incr *redis.IntCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, cfg.Window)
			return nil
		})
		if err != nil {
			logger.Warn("rate limiter unavailable", "key", key, "error", err)
			c.Next()
			return
		}
		count := incr.Val()

		remaining := int64(cfg.Requests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(cfg.Requests) {
			retry := cfg.Window
			if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retry = ttl
			}
			secs := int(math.Ceil(retry.Seconds()))
			c.Header("Retry-After", strconv.Itoa(secs))
			resp := models.ErrorResponse("rate limit exceeded")
			resp.Code = "too_many_requests"
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}
		c.Next()
	}
}
