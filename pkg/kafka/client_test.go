package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"eventsite-api/pkg/events"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishLead(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, topic: "leads"}
	event := events.LeadEvent{
		SubmissionID: "abc",
		Email:        "jane@x.com",
		Name:         "Jane Doe",
		Status:       "delivered",
		ReceivedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := p.PublishLead(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "jane@x.com" {
		t.Fatalf("unexpected messages: %+v", w.msgs)
	}
	var got events.LeadEvent
	if err := json.Unmarshal(w.msgs[0].Value, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SubmissionID != "abc" || got.Status != "delivered" || !got.ReceivedAt.Equal(event.ReceivedAt) {
		t.Fatalf("unexpected payload: %+v", got)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer closed")
	}
}

func TestProducer_PublishLeadWrapsError(t *testing.T) {
	boom := errors.New("broker down")
	p := &Producer{writer: &fakeWriter{err: boom}, topic: "leads"}
	if err := p.PublishLead(context.Background(), events.LeadEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}
