package match

import (
	"context"
	"time"

	"AidLink/internal/notify"
	"AidLink/pkg/mq"
)

// BusSink 把匹配结果定向推送给每个候选人
type BusSink struct {
	Bus notify.Bus
}

func (s BusSink) Publish(_ context.Context, m notify.MatchesFound) error {
	for _, c := range m.Candidates {
		s.Bus.Notify(c.UserID, notify.EventMatchesFound, m)
	}
	return nil
}

// KafkaSink 把匹配结果写入 kafka，供外部推送/短信通道消费
type KafkaSink struct {
	Publisher mq.Publisher
	Timeout   time.Duration
}

func (s KafkaSink) Publish(ctx context.Context, m notify.MatchesFound) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Publisher.PublishJSON(ctx, m.EntityKind+":"+m.EntityID, m)
}

// SinkFunc 适配函数为 Sink
type SinkFunc func(ctx context.Context, m notify.MatchesFound) error

func (f SinkFunc) Publish(ctx context.Context, m notify.MatchesFound) error { return f(ctx, m) }
