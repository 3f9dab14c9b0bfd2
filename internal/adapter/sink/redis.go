package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/thushan/warden/internal/core/domain"
)

const TypeRedis = "redis"

// RedisStreamSink appends events to a capped stream with XADD
type RedisStreamSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

func NewRedisStreamSink(client redis.UniversalClient, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{
		client: client,
		stream: stream,
		maxLen: maxLen,
	}
}

func (s *RedisStreamSink) Name() string { return TypeRedis }

func (s *RedisStreamSink) Write(ctx context.Context, event domain.Event) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata for %s: %w", event.ID, err)
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":        event.ID,
			"timestamp": event.Timestamp.UTC().Format(time.RFC3339Nano),
			"level":     string(event.Level),
			"source":    event.Source,
			"identity":  event.Identity,
			"message":   event.Message,
			"metadata":  metadata,
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

func (s *RedisStreamSink) Close() error {
	return s.client.Close()
}
