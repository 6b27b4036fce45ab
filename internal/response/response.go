// Package response 定义了跨越信任边界的统一 JSON 响应结构。
//
// 所有错误文案都是固定的、不含诊断信息的文本；原始错误只写日志。
package response

import (
	"net/http"
	"strconv"
	"time"

	"eventsite-api/internal/validation"

	"github.com/gin-gonic/gin"
)

const (
	CodeNotConfigured   = "NOT_CONFIGURED"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeValidation      = "VALIDATION_FAILED"
	CodeUnauthorized    = "UNAUTHORIZED"
)

// Envelope 是统一响应体。success 只在联系表单与 503 响应中出现。
type Envelope struct {
	Success    *bool                   `json:"success,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Message    string                  `json:"message,omitempty"`
	Code       string                  `json:"code,omitempty"`
	RetryAfter int                     `json:"retryAfter,omitempty"`
	ResetTime  string                  `json:"resetTime,omitempty"`
	Details    []validation.FieldError `json:"details,omitempty"`
}

// WithSuccess 设置 success 字段。
func (e Envelope) WithSuccess(ok bool) Envelope {
	e.Success = &ok
	return e
}

// RateLimitedError 构造 429 响应体。
func RateLimitedError(retryAfter int, resetAt time.Time) Envelope {
	return Envelope{
		Error:      "Too many requests",
		Message:    "You have made too many requests. Please try again later.",
		Code:       CodeRateLimited,
		RetryAfter: retryAfter,
		ResetTime:  resetAt.UTC().Format(time.RFC3339),
	}
}

// InvalidBodyError 用于 JSON 无法解析或类型不匹配。
func InvalidBodyError() Envelope {
	return Envelope{Error: "Validation failed", Message: "Invalid request body", Code: CodeValidation}
}

// ValidationError 的 message 为第一条违反的约束，details 列出全部。
func ValidationError(err *validation.Error) Envelope {
	return Envelope{Error: "Validation failed", Message: err.Error(), Code: CodeValidation, Details: err.Fields}
}

// NotConfiguredError 构造 503 响应体。
func NotConfiguredError(message string) Envelope {
	return Envelope{Error: "Service unavailable", Code: CodeNotConfigured, Message: message}.WithSuccess(false)
}

// UpstreamFailure 构造 502 响应体。withSuccess 为 true 时附带 success:false。
func UpstreamFailure(code, message string, withSuccess bool) Envelope {
	env := Envelope{Error: "External service error", Code: code, Message: message}
	if withSuccess {
		env = env.WithSuccess(false)
	}
	return env
}

// UnauthorizedError 构造 401 响应体。
func UnauthorizedError() Envelope {
	return Envelope{Error: "Unauthorized", Message: "Invalid or missing credentials", Code: CodeUnauthorized}
}

// InternalServerError 构造通用的 500 响应体。
func InternalServerError() Envelope {
	return Envelope{Error: "Internal server error", Message: "Something went wrong. Please try again later."}
}

// Success 写出 200 {success:true, message}。
func Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Message: message}.WithSuccess(true))
}

// Abort 写出 status 与 env 并中止后续处理。
func Abort(c *gin.Context, status int, env Envelope) {
	c.AbortWithStatusJSON(status, env)
}

// MethodNotAllowed 写出 405。
func MethodNotAllowed(c *gin.Context) {
	Abort(c, http.StatusMethodNotAllowed, Envelope{Error: "Method not allowed"})
}

// NotFound 写出 404。
func NotFound(c *gin.Context) {
	Abort(c, http.StatusNotFound, Envelope{Error: "Not found"})
}

// TooManyRequests 写出 429 并设置 Retry-After（秒）。
func TooManyRequests(c *gin.Context, retryAfter int, resetAt time.Time) {
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	Abort(c, http.StatusTooManyRequests, RateLimitedError(retryAfter, resetAt))
}

// InvalidBody 写出 400 Invalid request body。
func InvalidBody(c *gin.Context) {
	Abort(c, http.StatusBadRequest, InvalidBodyError())
}

// Unauthorized 写出 401。
func Unauthorized(c *gin.Context) {
	Abort(c, http.StatusUnauthorized, UnauthorizedError())
}

// NotConfigured 写出 503 {success:false, code:NOT_CONFIGURED}。
func NotConfigured(c *gin.Context, message string) {
	Abort(c, http.StatusServiceUnavailable, NotConfiguredError(message))
}

// InternalError 写出通用的 500。
func InternalError(c *gin.Context) {
	Abort(c, http.StatusInternalServerError, InternalServerError())
}
