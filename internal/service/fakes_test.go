package service

import (
	"context"
	"sync"

	"eventsite-api/internal/model"
	"eventsite-api/pkg/events"
	"eventsite-api/pkg/llm"
	"eventsite-api/pkg/mailer"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg *mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) messages() []*mailer.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*mailer.Message(nil), f.sent...)
}

type fakeRepo struct {
	mu      sync.Mutex
	records map[string]*model.Submission
	err     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[string]*model.Submission)}
}

func (r *fakeRepo) Create(_ context.Context, sub *model.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	cp := *sub
	r.records[sub.ID] = &cp
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status model.SubmissionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if rec, ok := r.records[id]; ok {
		rec.Status = status
	}
	return nil
}

func (r *fakeRepo) List(_ context.Context, offset, limit int) ([]model.Submission, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	var out []model.Submission
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	total := int64(len(out))
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeRepo) only() *model.Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		return rec
	}
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.LeadEvent
}

func (p *fakePublisher) PublishLead(_ context.Context, event events.LeadEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) published() []events.LeadEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.LeadEvent(nil), p.events...)
}

type fakeLLM struct {
	messages   []llm.Message
	completion *llm.Completion
	chunks     []string
	err        error
	waitForCtx bool
}

func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, _ *llm.GenerationParams) (*llm.Completion, error) {
	f.messages = messages
	if f.waitForCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.completion, nil
}

func (f *fakeLLM) StreamChatMessages(_ context.Context, messages []llm.Message, _ *llm.GenerationParams, w llm.MessageWriter) error {
	f.messages = messages
	if f.err != nil {
		return f.err
	}
	for _, c := range f.chunks {
		if err := w.WriteMessage(1, []byte(c)); err != nil {
			return err
		}
	}
	return nil
}

type frameRecorder struct {
	frames []string
}

func (r *frameRecorder) WriteMessage(_ int, data []byte) error {
	r.frames = append(r.frames, string(data))
	return nil
}
