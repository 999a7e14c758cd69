package middlewares

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"civicreport-be/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const issueLimitWindow = 24 * time.Hour

// IssueRateLimiter caps how many issues one principal may report per day.
// Must run after AuthMiddleware.
func IssueRateLimiter(client *redis.Client, queuePrefix string, limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			c.Abort()
			return
		}

		// admin accounts never spend a resident's quota
		if err := services.RequireUser(p); err != nil {
			status, message := services.Describe(err)
			c.JSON(status, gin.H{"error": message})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		// Individual key for each user
		userKey := queuePrefix + ":" + services.UserIdentity(p.ID)

		count, err := client.Incr(ctx, userKey).Result()
		if err != nil {
			slog.Error("rate limiter increment failed", "error", err, "key", userKey)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "redis error incrementing count"})
			c.Abort()
			return
		}

		// TTL starts with the first report of the window
		if count == 1 {
			if err := client.Expire(ctx, userKey, issueLimitWindow).Err(); err != nil {
				slog.Error("rate limiter expire failed", "error", err, "key", userKey)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "redis error setting TTL"})
				c.Abort()
				return
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, userKey).Result()
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
