package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	APIMaxRequests      = 100 // par minute et par IP
	CheckoutMaxRequests = 5   // par minute et par utilisateur
	CartMaxRequests     = 20
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int64, error)
	Limit() int64
	Window() time.Duration
}

// RateLimit compte les requêtes par clé ; si Redis est indisponible la requête passe
func RateLimit(limiter Limiter, key func(c *gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k == "" {
			c.Next()
			return
		}

		allowed, count, err := limiter.Allow(c.Request.Context(), k)
		if err != nil {
			logger.Warn("⚠️ rate limit indisponible", zap.String("key", k), zap.Error(err))
			c.Next()
			return
		}

		limit := limiter.Limit()
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if !allowed {
			retry := int(limiter.Window().Seconds())
			c.Header("Retry-After", fmt.Sprintf("%d", retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez plus tard",
				"retry_after": retry,
			})
			return
		}
		c.Next()
	}
}

func ByIP(c *gin.Context) string {
	return c.ClientIP()
}

func ByUser(c *gin.Context) string {
	return c.GetString(KeyUserID)
}
