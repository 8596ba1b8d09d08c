package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicing/backend/internal/interfaces/http/dto"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"
)

// NewRateLimiter allows limit requests per key and period, counted in process memory.
func NewRateLimiter(limit int, per time.Duration) *limiter.Limiter {
	return limiter.New(memory.NewStore(), limiter.Rate{Period: per, Limit: int64(limit)})
}

// RateLimit limits requests per route and client IP.
// It guards the unauthenticated endpoints that send codes or check passwords.
func RateLimit(l *limiter.Limiter, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		key := c.FullPath() + "|" + c.ClientIP()
		lctx, err := l.Get(c.Request.Context(), key)
		if err != nil {
			log.Error("Rate limit lookup failed", zap.String("key", key), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrCodeInternal, "Internal server error", c.GetString(RequestIDKey)))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
		if lctx.Reached {
			retry := max(lctx.Reset-time.Now().Unix(), 1)
			c.Header("Retry-After", strconv.FormatInt(retry, 10))
			log.Warn("Rate limit exceeded",
				zap.String("route", c.FullPath()),
				zap.String("ip", c.ClientIP()),
				zap.Int64("limit", lctx.Limit),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponse(dto.ErrCodeRateLimited, "Too many requests, try again later", c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}
