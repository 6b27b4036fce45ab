package handler

import (
	"net/http"
	"strconv"

	"eventsite-api/internal/response"
	"eventsite-api/internal/service"
	"eventsite-api/pkg/log"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// AdminHandler 负责处理管理员相关的 API 请求。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// LoginRequest 定义了管理员登录的请求体结构。
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login 处理管理员登录请求。
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Admin login: invalid request body, error: %v", err)
		response.InvalidBody(c)
		return
	}

	signed, expiresAt, err := h.adminService.Login(req.Password)
	if err != nil {
		writeError(c, err, adminSurface)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed, "expiresAt": expiresAt.UTC()})
}

// ListSubmissions 分页返回联系表单提交记录，参数 limit、offset。
func (h *AdminHandler) ListSubmissions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	page, err := h.adminService.ListSubmissions(c.Request.Context(), offset, limit)
	if err != nil {
		writeError(c, err, adminSurface)
		return
	}
	c.JSON(http.StatusOK, page)
}
