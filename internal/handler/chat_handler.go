package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"eventsite-api/internal/middleware"
	"eventsite-api/internal/model"
	"eventsite-api/internal/response"
	"eventsite-api/internal/service"
	"eventsite-api/internal/validation"
	"eventsite-api/pkg/log"
	"eventsite-api/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// maxFrameBytes 限制单帧大小：20 条 1000 字符的历史加上消息，留足余量。
const maxFrameBytes = 128 << 10

// ChatHandler 负责处理聊天请求（HTTP 与 WebSocket）。
type ChatHandler struct {
	chatService service.ChatService
	validator   *validation.Validator
	limiter     *ratelimit.Limiter
	upgrader    websocket.Upgrader
}

// NewChatHandler 创建一个新的 ChatHandler。
// limiter 用于 WebSocket 内的逐条限流，与 POST /chat 共用同一预算。
func NewChatHandler(chatService service.ChatService, validator *validation.Validator, limiter *ratelimit.Limiter, origins *middleware.OriginPolicy) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		validator:   validator,
		limiter:     limiter,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins.Allow(origin)
			},
		},
	}
}

// Reply 处理 POST /chat。
func (h *ChatHandler) Reply(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Chat: invalid request body, error: %v", err)
		response.InvalidBody(c)
		return
	}
	req = req.Normalize()
	if err := h.validator.Struct(req); err != nil {
		writeError(c, err, chatSurface)
		return
	}

	reply, err := h.chatService.Reply(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, chatSurface)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// streamFrame 是 WebSocket 上发送的错误帧。
type streamFrame struct {
	Type string `json:"type"`
	response.Envelope
}

// Stream 处理 GET /chat/stream 的 WebSocket 连接。
// 每个客户端文本帧都是一个 ChatRequest，校验与限流规则与 POST /chat 相同。
func (h *ChatHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	clientID := middleware.ClientIP(c)
	log.Infof("WebSocket 连接已建立，客户端: %s", clientID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("从 WebSocket 读取消息失败: %v", err)
			}
			return
		}

		var req model.ChatRequest
		if err := json.Unmarshal(message, &req); err != nil {
			h.writeFrame(conn, response.InvalidBodyError())
			continue
		}
		req = req.Normalize()
		if err := h.validator.Struct(req); err != nil {
			_, env := mapError(err, chatSurface)
			h.writeFrame(conn, env)
			continue
		}
		if !h.allow(c.Request.Context(), conn, clientID) {
			continue
		}

		if err := h.chatService.StreamReply(c.Request.Context(), req, conn); err != nil {
			_, env := mapError(err, chatSurface)
			h.writeFrame(conn, env)
		}
	}
}

// allow 对一条 WebSocket 消息计数，超出时发送限流错误帧。存储出错时放行。
func (h *ChatHandler) allow(ctx context.Context, conn *websocket.Conn, clientID string) bool {
	if h.limiter == nil {
		return true
	}
	now := time.Now()
	decision, err := h.limiter.Allow(ctx, clientID)
	if err != nil {
		log.Warnw("限流存储不可用，放行请求", "rule", h.limiter.Rule().Name, "client", clientID, "error", err)
		return true
	}
	if !decision.Allowed {
		log.Warnw("请求超出限流", "rule", h.limiter.Rule().Name, "client", clientID, "path", "/chat/stream")
		h.writeFrame(conn, response.RateLimitedError(decision.RetryAfterSeconds(now), decision.ResetAt))
		return false
	}
	return true
}

func (h *ChatHandler) writeFrame(conn *websocket.Conn, env response.Envelope) {
	b, err := json.Marshal(streamFrame{Type: "error", Envelope: env})
	if err != nil {
		log.Errorf("序列化 WebSocket 错误帧失败: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		log.Warnf("写入 WebSocket 错误帧失败: %v", err)
	}
}
