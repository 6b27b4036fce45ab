// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventsite-api/internal/config"

	"github.com/gin-gonic/gin"
)

const (
	corsAllowMethods = "GET, HEAD, POST, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization"
)

// OriginPolicy 决定哪些 Origin 可以跨域访问。
// 非生产模式允许所有来源；生产模式只允许配置的列表。
type OriginPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
}

// NewOriginPolicy 根据服务器配置构造 OriginPolicy。
func NewOriginPolicy(cfg config.ServerConfig) *OriginPolicy {
	p := &OriginPolicy{
		allowAll: !cfg.IsProduction(),
		allowed:  make(map[string]struct{}),
	}
	for _, o := range cfg.AllowedOrigins() {
		p.allowed[o] = struct{}{}
	}
	return p
}

// Allow 报告 origin 是否被允许。空 Origin 视为同源或非浏览器调用，不需要回显。
func (p *OriginPolicy) Allow(origin string) bool {
	if origin == "" {
		return false
	}
	if p.allowAll {
		return true
	}
	_, ok := p.allowed[strings.TrimRight(origin, "/")]
	return ok
}

// CORS 设置跨域响应头，OPTIONS 预检请求直接返回 204。
// 不被允许的 Origin 不会得到 Access-Control-Allow-Origin，由浏览器拦截，请求本身照常处理。
func CORS(policy *OriginPolicy, maxAge time.Duration) gin.HandlerFunc {
	maxAgeSeconds := strconv.Itoa(int(maxAge.Seconds()))
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")
		if origin := c.GetHeader("Origin"); policy.Allow(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
		}
		h.Set("Access-Control-Allow-Methods", corsAllowMethods)
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Max-Age", maxAgeSeconds)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
