package middleware

import (
	"strings"

	"eventsite-api/internal/response"
	"eventsite-api/pkg/token"

	"github.com/gin-gonic/gin"
)

// ClaimsKey 是管理员 claims 在 gin.Context 中的键。
const ClaimsKey = "claims"

// AdminAuth 创建一个 Gin 中间件，用于管理接口的 JWT 认证。
// jwtManager 为 nil 表示管理接口未配置，返回 503。
func AdminAuth(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwtManager == nil {
			response.NotConfigured(c, "Admin access is not configured.")
			return
		}

		// Token 以 "Bearer <token>" 的形式提供
		const bearerPrefix = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			response.Unauthorized(c)
			return
		}

		claims, err := jwtManager.VerifyToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			response.Unauthorized(c)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
