// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"eventsite-api/internal/middleware"
	"eventsite-api/internal/model"
	"eventsite-api/internal/response"
	"eventsite-api/internal/service"
	"eventsite-api/internal/validation"
	"eventsite-api/pkg/log"

	"github.com/gin-gonic/gin"
)

// ContactHandler 负责处理联系表单请求。
type ContactHandler struct {
	contactService service.ContactService
	validator      *validation.Validator
	successMessage string
}

// NewContactHandler 创建一个新的 ContactHandler。
func NewContactHandler(contactService service.ContactService, validator *validation.Validator, successMessage string) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		validator:      validator,
		successMessage: successMessage,
	}
}

// Submit 处理 POST /contact。蜜罐命中同样返回成功。
func (h *ContactHandler) Submit(c *gin.Context) {
	var req model.ContactSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Contact: invalid request body, error: %v", err)
		response.InvalidBody(c)
		return
	}
	sub := req.Normalize()
	if err := h.validator.Struct(sub); err != nil {
		writeError(c, err, contactSurface)
		return
	}

	meta := model.RequestMeta{ClientIP: middleware.ClientIP(c), UserAgent: c.Request.UserAgent()}
	status, err := h.contactService.Submit(c.Request.Context(), sub, meta)
	if err != nil {
		writeError(c, err, contactSurface)
		return
	}
	log.Infow("联系表单处理完成", "status", status, "client_ip", meta.ClientIP)
	response.Success(c, h.successMessage)
}

// Limits 处理 GET /contact/limits，返回前端提示用的消息长度。
func (h *ContactHandler) Limits(c *gin.Context) {
	c.JSON(http.StatusOK, h.contactService.Limits())
}
