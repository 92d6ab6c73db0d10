package server

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/folio/internal/observability/logger"
	"go.uber.org/zap"
)

// ExportRateLimit throttles report exports per actor when redis is configured.
func (s *Server) ExportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.exportLimiter.Enabled() {
			c.Next()
			return
		}

		actor, ok := actorFromContext(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		allowed, retryAfter, err := s.exportLimiter.Allow(ctx, actor.Role, actor.ID)
		if err != nil {
			logger.FromContext(ctx).Warn("export rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !allowed {
			logger.FromContext(ctx).Warn("export rate limit exceeded",
				zap.String("role", actor.Role),
				zap.String("route", c.FullPath()),
			)
			c.Header("Retry-After", retryAfterSeconds(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) string {
	seconds := int(math.Ceil(d.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
