package model

import "strings"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn 代表对话历史中的单条消息。
type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"max=1000"`
}

// ChatRequest 是 POST /chat 与 /chat/stream 每一帧的请求体。
// ConversationHistory 按时间顺序排列，最早的在前。
type ChatRequest struct {
	Message             string     `json:"message" validate:"required,max=500"`
	ConversationHistory []ChatTurn `json:"conversationHistory" validate:"max=20,dive"`
}

// Normalize 返回去掉消息首尾空白的副本。
func (r ChatRequest) Normalize() ChatRequest {
	r.Message = strings.TrimSpace(r.Message)
	return r
}

// ChatReply 是聊天成功时的响应体。
type ChatReply struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}
