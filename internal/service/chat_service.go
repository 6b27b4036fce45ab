package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"eventsite-api/internal/config"
	"eventsite-api/internal/model"
	"eventsite-api/pkg/llm"
	"eventsite-api/pkg/log"

	"github.com/gorilla/websocket"
)

// DefaultSystemPrompt 是未配置 llm.system_prompt 时使用的业务背景说明。
const DefaultSystemPrompt = `You are the virtual assistant for an event-planning company that organises weddings, corporate events, private parties and conferences.
Answer questions about our services, planning process and availability in a friendly, professional tone.
Keep answers concise and on-topic, never longer than about 300 words.
Do not quote prices or make commitments: for pricing, quotes or bookings, invite the visitor to use the contact form so the team can follow up.
If a question is unrelated to events or our services, politely steer the conversation back.`

// FallbackReply 在模型没有返回内容时使用。
const FallbackReply = "I'm sorry, I couldn't generate a response right now. Please try again, or use the contact form and our team will get back to you."

// ChatService 定义了聊天代理的接口。
type ChatService interface {
	Reply(ctx context.Context, req model.ChatRequest) (*model.ChatReply, error)
	// StreamReply 把回复以 {"chunk":"..."} 帧写入 writer，结束时发送 completion 帧。
	StreamReply(ctx context.Context, req model.ChatRequest, writer llm.MessageWriter) error
}

type chatService struct {
	cfg       config.LLMConfig
	llmClient llm.Client
}

// NewChatService 创建一个新的 ChatService 实例。llmClient 为 nil 时所有调用返回 ErrNotConfigured。
func NewChatService(cfg config.LLMConfig, llmClient llm.Client) ChatService {
	return &chatService{cfg: cfg, llmClient: llmClient}
}

// Reply 调用一次非流式补全。
func (s *chatService) Reply(ctx context.Context, req model.ChatRequest) (*model.ChatReply, error) {
	if !s.enabled() {
		return nil, ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	completion, err := s.llmClient.Chat(ctx, s.composeMessages(req), nil)
	if err != nil {
		log.Errorw("调用 LLM 失败", "model", s.cfg.Model, "error", err)
		return nil, newUpstreamError("llm", err)
	}
	reply := strings.TrimSpace(completion.Content)
	if reply == "" {
		reply = FallbackReply
	}
	return &model.ChatReply{Reply: reply, Model: s.cfg.Model}, nil
}

// StreamReply 以流式方式调用补全接口。
func (s *chatService) StreamReply(ctx context.Context, req model.ChatRequest, writer llm.MessageWriter) error {
	if !s.enabled() {
		return ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	interceptor := &chunkWriter{conn: writer}
	if err := s.llmClient.StreamChatMessages(ctx, s.composeMessages(req), nil, interceptor); err != nil {
		log.Errorw("LLM 流式调用失败", "model", s.cfg.Model, "chunks", interceptor.chunks, "error", err)
		return newUpstreamError("llm", err)
	}
	if interceptor.chunks == 0 {
		if err := interceptor.WriteMessage(websocket.TextMessage, []byte(FallbackReply)); err != nil {
			return err
		}
	}
	return sendCompletion(writer, s.cfg.Model)
}

func (s *chatService) enabled() bool {
	return s.llmClient != nil && s.cfg.Enabled()
}

func (s *chatService) systemPrompt() string {
	if p := strings.TrimSpace(s.cfg.SystemPrompt); p != "" {
		return p
	}
	return DefaultSystemPrompt
}

// composeMessages 按 system、历史、当前用户消息的顺序组装。
func (s *chatService) composeMessages(req model.ChatRequest) []llm.Message {
	msgs := make([]llm.Message, 0, len(req.ConversationHistory)+2)
	msgs = append(msgs, llm.Message{Role: model.RoleSystem, Content: s.systemPrompt()})
	for _, turn := range req.ConversationHistory {
		msgs = append(msgs, llm.Message{Role: turn.Role, Content: turn.Content})
	}
	msgs = append(msgs, llm.Message{Role: model.RoleUser, Content: req.Message})
	log.Debugf("组装 LLM 消息完成，历史轮数: %d，消息总数: %d", len(req.ConversationHistory), len(msgs))
	return msgs
}

// chunkWriter 将原始分块包装成 {"chunk":"..."} 后写入连接。
type chunkWriter struct {
	conn   llm.MessageWriter
	chunks int
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *chunkWriter) WriteMessage(messageType int, data []byte) error {
	w.chunks++
	b, err := json.Marshal(map[string]string{"chunk": string(data)})
	if err != nil {
		return fmt.Errorf("failed to marshal chunk: %w", err)
	}
	return w.conn.WriteMessage(messageType, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(w llm.MessageWriter, modelName string) error {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"model":     modelName,
		"timestamp": time.Now().UnixMilli(),
	}
	b, err := json.Marshal(notif)
	if err != nil {
		return fmt.Errorf("failed to marshal completion: %w", err)
	}
	return w.WriteMessage(websocket.TextMessage, b)
}
