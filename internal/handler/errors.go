package handler

import (
	"errors"
	"net/http"

	"eventsite-api/internal/response"
	"eventsite-api/internal/service"
	"eventsite-api/internal/validation"
	"eventsite-api/pkg/log"

	"github.com/gin-gonic/gin"
)

// surface 描述某个端点面向用户的错误文案。
type surface struct {
	name          string
	notConfigured string
	upstream      string
	withSuccess   bool // 联系表单的错误响应附带 success:false
}

var (
	contactSurface = surface{
		name:          "contact",
		notConfigured: "The contact form is temporarily unavailable. Please email us directly.",
		upstream:      "We couldn't send your message right now. Please try again later or email us directly.",
		withSuccess:   true,
	}
	chatSurface = surface{
		name:          "chat",
		notConfigured: "The chat assistant is not available right now. Please use the contact form instead.",
		upstream:      "The chat assistant is temporarily unavailable. Please try again later.",
	}
	adminSurface = surface{
		name:          "admin",
		notConfigured: "Admin access is not configured.",
		upstream:      "A backing service is unavailable.",
	}
)

// mapError 把领域错误映射为 HTTP 状态码与响应体。原始错误只写日志。
func mapError(err error, s surface) (int, response.Envelope) {
	var (
		verr  *validation.Error
		upErr *service.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, response.ValidationError(verr)
	case errors.Is(err, service.ErrNotConfigured):
		log.Warnw("功能未配置", "surface", s.name)
		return http.StatusServiceUnavailable, response.NotConfiguredError(s.notConfigured)
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.UnauthorizedError()
	case errors.As(err, &upErr):
		code := response.CodeUpstreamError
		if upErr.Timeout {
			code = response.CodeUpstreamTimeout
		}
		log.Errorw("外部服务调用失败", "surface", s.name, "service", upErr.Service, "timeout", upErr.Timeout, "error", upErr.Err)
		return http.StatusBadGateway, response.UpstreamFailure(code, s.upstream, s.withSuccess)
	default:
		log.Errorw("未分类错误", "surface", s.name, "error", err)
		return http.StatusInternalServerError, response.InternalServerError()
	}
}

func writeError(c *gin.Context, err error, s surface) {
	status, env := mapError(err, s)
	response.Abort(c, status, env)
}
