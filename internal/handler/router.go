package handler

import (
	"eventsite-api/internal/config"
	"eventsite-api/internal/middleware"
	"eventsite-api/internal/response"
	"eventsite-api/internal/service"
	"eventsite-api/internal/validation"
	"eventsite-api/pkg/ratelimit"
	"eventsite-api/pkg/token"

	"github.com/gin-gonic/gin"
)

// Limiters 是各端点的限流器，任一为 nil 表示不限流。
type Limiters struct {
	Contact *ratelimit.Limiter
	Chat    *ratelimit.Limiter
	API     *ratelimit.Limiter
	Admin   *ratelimit.Limiter
}

// Dependencies 汇总构造路由所需的组件。
type Dependencies struct {
	Config         *config.Config
	ContactService service.ContactService
	ChatService    service.ChatService
	AdminService   service.AdminService
	Validator      *validation.Validator
	Limiters       Limiters
	JWTManager     *token.JWTManager
}

// NewRouter 创建 gin 引擎并注册全部路由。路由同时挂载在 / 和 /api 下。
func NewRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	r := gin.New()
	r.HandleMethodNotAllowed = true

	origins := middleware.NewOriginPolicy(cfg.Server)
	r.Use(
		middleware.RequestLogger(),
		middleware.Recovery(),
		middleware.CORS(origins, cfg.Server.CORSMaxAge),
	)
	r.NoMethod(response.MethodNotAllowed)
	r.NoRoute(response.NotFound)

	contactHandler := NewContactHandler(deps.ContactService, deps.Validator, cfg.Contact.SuccessMessage)
	chatHandler := NewChatHandler(deps.ChatService, deps.Validator, deps.Limiters.Chat, origins)
	adminHandler := NewAdminHandler(deps.AdminService)
	healthHandler := NewHealthHandler(cfg.Server.ServiceName)

	for _, prefix := range []string{"/", "/api"} {
		root := r.Group(prefix)
		root.GET("/health", healthHandler.Health)
		root.HEAD("/health", healthHandler.Health)

		api := root.Group("")
		api.Use(middleware.RateLimit(deps.Limiters.API))
		{
			api.POST("/contact", middleware.RateLimit(deps.Limiters.Contact), contactHandler.Submit)
			api.GET("/contact/limits", contactHandler.Limits)
			api.POST("/chat", middleware.RateLimit(deps.Limiters.Chat), chatHandler.Reply)
			api.GET("/chat/stream", chatHandler.Stream)

			admin := api.Group("/admin")
			admin.POST("/login", middleware.RateLimit(deps.Limiters.Admin), adminHandler.Login)
			admin.GET("/submissions", middleware.AdminAuth(deps.JWTManager), adminHandler.ListSubmissions)
		}
	}
	return r
}
