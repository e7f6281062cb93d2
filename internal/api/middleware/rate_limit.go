package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateCounter is the redis surface needed for fixed-window counters.
type RateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// IncrWithTTL increments key and starts its window on the first hit.
func IncrWithTTL(ctx context.Context, client RateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// RateLimitByIP 限制每个客户端 IP 在一个窗口内的请求数。Redis 不可用时放行。
// limit <= 0 disables the check.
func RateLimitByIP(client RateCounter, prefix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		bucket := time.Now().UTC().Truncate(window).Unix()
		key := "rate:" + prefix + ":" + c.ClientIP() + ":" + strconv.FormatInt(bucket, 10)
		count, err := IncrWithTTL(c.Request.Context(), client, key, window)
		if err != nil {
			LoggerFromContext(c).Warn("rate limit counter unavailable", "error", err)
			c.Next()
			return
		}
		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
