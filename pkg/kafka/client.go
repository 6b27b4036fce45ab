// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"eventsite-api/internal/config"
	"eventsite-api/pkg/events"
	"eventsite-api/pkg/log"

	"github.com/segmentio/kafka-go"
)

// messageWriter 是 kafka.Writer 的最小子集，测试中可以替换。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer 把线索事件发送到配置的主题。
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	log.Infof("Kafka 生产者初始化成功, topic=%s", cfg.Topic)
	return &Producer{writer: w, topic: cfg.Topic}
}

// PublishLead 发送一个线索事件到 Kafka。
func (p *Producer) PublishLead(ctx context.Context, event events.LeadEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: event.Key(), Value: value}); err != nil {
		return fmt.Errorf("failed to publish lead event to %s: %w", p.topic, err)
	}
	return nil
}

// Close 刷新缓冲区并关闭底层连接。
func (p *Producer) Close() error {
	return p.writer.Close()
}
