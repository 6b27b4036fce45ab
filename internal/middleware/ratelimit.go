package middleware

import (
	"net"
	"strconv"
	"strings"
	"time"

	"eventsite-api/internal/response"
	"eventsite-api/pkg/log"
	"eventsite-api/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// UnknownClient 是无法识别客户端地址时使用的标识。
const UnknownClient = "unknown"

// ClientIP 取 X-Forwarded-For 的第一项作为客户端标识，没有时退回到连接的对端地址。
func ClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if remote := strings.TrimSpace(c.Request.RemoteAddr); remote != "" {
		if host, _, err := net.SplitHostPort(remote); err == nil {
			remote = host
		}
		if remote != "" {
			return remote
		}
	}
	return UnknownClient
}

// RateLimit 按 (客户端, 规则名) 计数，超出时返回 429。
// 存储出错时放行请求并记录日志。limiter 为 nil 时不做限制。
func RateLimit(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		now := time.Now()
		clientID := ClientIP(c)
		decision, err := limiter.Allow(c.Request.Context(), clientID)
		if err != nil {
			log.Warnw("限流存储不可用，放行请求", "rule", limiter.Rule().Name, "client", clientID, "error", err)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			log.Warnw("请求超出限流", "rule", limiter.Rule().Name, "client", clientID, "path", c.Request.URL.Path)
			response.TooManyRequests(c, decision.RetryAfterSeconds(now), decision.ResetAt)
			return
		}
		c.Next()
	}
}
