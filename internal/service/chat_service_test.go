package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"eventsite-api/internal/config"
	"eventsite-api/internal/model"
	"eventsite-api/pkg/llm"
)

var testLLMCfg = config.LLMConfig{
	APIKey:  "sk-test",
	Model:   "gpt-4o-mini",
	Timeout: time.Second,
}

func TestReply_NotConfigured(t *testing.T) {
	svc := NewChatService(config.LLMConfig{Model: "gpt-4o-mini", Timeout: time.Second}, &fakeLLM{})
	if _, err := svc.Reply(context.Background(), model.ChatRequest{Message: "hi"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := NewChatService(testLLMCfg, nil).StreamReply(context.Background(), model.ChatRequest{Message: "hi"}, &frameRecorder{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured for stream, got %v", err)
	}
}

func TestReply_ComposesSystemHistoryThenUser(t *testing.T) {
	client := &fakeLLM{completion: &llm.Completion{Content: "We plan weddings.", Model: "gpt-4o-mini-2024-07-18"}}
	svc := NewChatService(testLLMCfg, client)

	reply, err := svc.Reply(context.Background(), model.ChatRequest{
		Message: "Do you do corporate events?",
		ConversationHistory: []model.ChatTurn{
			{Role: "user", Content: "What services do you offer?"},
			{Role: "assistant", Content: "Weddings and more."},
		},
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.Reply != "We plan weddings." || reply.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected reply %+v", reply)
	}

	roles := make([]string, 0, len(client.messages))
	for _, m := range client.messages {
		roles = append(roles, m.Role)
	}
	want := []string{"system", "user", "assistant", "user"}
	if len(roles) != len(want) {
		t.Fatalf("unexpected roles %v", roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("unexpected roles %v", roles)
		}
	}
	if client.messages[0].Content != DefaultSystemPrompt {
		t.Fatalf("expected default system prompt")
	}
	if client.messages[3].Content != "Do you do corporate events?" {
		t.Fatalf("expected new message last, got %q", client.messages[3].Content)
	}
}

func TestReply_CustomSystemPrompt(t *testing.T) {
	client := &fakeLLM{completion: &llm.Completion{Content: "ok"}}
	cfg := testLLMCfg
	cfg.SystemPrompt = "Be brief."
	if _, err := NewChatService(cfg, client).Reply(context.Background(), model.ChatRequest{Message: "hi"}); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if client.messages[0].Content != "Be brief." {
		t.Fatalf("expected configured prompt, got %q", client.messages[0].Content)
	}
}

func TestReply_EmptyContentFallsBack(t *testing.T) {
	svc := NewChatService(testLLMCfg, &fakeLLM{completion: &llm.Completion{Content: "  "}})
	reply, err := svc.Reply(context.Background(), model.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.Reply != FallbackReply {
		t.Fatalf("expected fallback reply, got %q", reply.Reply)
	}
}

func TestReply_UpstreamFailure(t *testing.T) {
	svc := NewChatService(testLLMCfg, &fakeLLM{err: &llm.APIError{StatusCode: 500, Body: "boom"}})
	_, err := svc.Reply(context.Background(), model.ChatRequest{Message: "hi"})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) || upErr.Service != "llm" || upErr.Timeout {
		t.Fatalf("expected llm UpstreamError, got %v", err)
	}
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError to stay reachable")
	}
}

func TestReply_TimeoutIsBounded(t *testing.T) {
	cfg := testLLMCfg
	cfg.Timeout = 20 * time.Millisecond
	svc := NewChatService(cfg, &fakeLLM{waitForCtx: true})

	start := time.Now()
	_, err := svc.Reply(context.Background(), model.ChatRequest{Message: "hi"})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) || !upErr.Timeout {
		t.Fatalf("expected timeout UpstreamError, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestStreamReply_WrapsChunksAndCompletes(t *testing.T) {
	rec := &frameRecorder{}
	svc := NewChatService(testLLMCfg, &fakeLLM{chunks: []string{"Hello", " there"}})
	if err := svc.StreamReply(context.Background(), model.ChatRequest{Message: "hi"}, rec); err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(rec.frames) != 3 {
		t.Fatalf("expected 2 chunks and a completion, got %v", rec.frames)
	}
	var chunk map[string]string
	_ = json.Unmarshal([]byte(rec.frames[0]), &chunk)
	if chunk["chunk"] != "Hello" {
		t.Fatalf("unexpected first frame %s", rec.frames[0])
	}
	var done map[string]interface{}
	_ = json.Unmarshal([]byte(rec.frames[2]), &done)
	if done["type"] != "completion" || done["status"] != "finished" || done["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected completion frame %s", rec.frames[2])
	}
}

func TestStreamReply_EmptyStreamSendsFallback(t *testing.T) {
	rec := &frameRecorder{}
	svc := NewChatService(testLLMCfg, &fakeLLM{})
	if err := svc.StreamReply(context.Background(), model.ChatRequest{Message: "hi"}, rec); err != nil {
		t.Fatalf("stream: %v", err)
	}
	var chunk map[string]string
	_ = json.Unmarshal([]byte(rec.frames[0]), &chunk)
	if chunk["chunk"] != FallbackReply || len(rec.frames) != 2 {
		t.Fatalf("unexpected frames %v", rec.frames)
	}
}
