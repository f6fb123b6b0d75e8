package mq

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher 发布 JSON 消息
type Publisher interface {
	PublishJSON(ctx context.Context, key string, payload any) error
	Close() error
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 250 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
}

func PublishJSON(ctx context.Context, writer *kafka.Writer, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
	})
}

// KafkaPublisher 基于 kafka.Writer 的 Publisher
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher brokers 为空时返回 nil
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaPublisher{writer: NewWriter(brokers, topic)}
}

func (p *KafkaPublisher) PublishJSON(ctx context.Context, key string, payload any) error {
	return PublishJSON(ctx, p.writer, key, payload)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
