package middleware

import (
	"io"
	"runtime/debug"

	"eventsite-api/internal/response"
	"eventsite-api/pkg/log"

	"github.com/gin-gonic/gin"
)

// Recovery 捕获 panic，记录堆栈并返回通用的 500 响应。
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		log.Errorw("请求处理 panic",
			"panic", recovered,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"stack", string(debug.Stack()),
		)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		response.InternalError(c)
	})
}
