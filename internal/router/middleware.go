package router

import (
	"net/http"
	"time"

	"github.com/blues/escrow/internal/handler"
	"github.com/blues/escrow/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const requestIdHeader = "X-Request-Id"

// requestIdMiddleware 为每个请求分配请求ID并记录访问日志
func requestIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIdHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIdHeader, id)

		start := time.Now()
		c.Next()

		logger.With(zap.String("request_id", id)).Info("%s %s %d %s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// rateLimitMiddleware 写接口全局限流，rps <= 0 时不限流
func rateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			handler.ErrorResponse(c, http.StatusTooManyRequests, "rate_limited", "请求过于频繁")
			c.Abort()
			return
		}
		c.Next()
	}
}
