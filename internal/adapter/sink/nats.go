package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
)

const TypeNATS = "nats"

// NATSSink publishes each event as JSON on one subject. The connection keeps
// retrying in the background, writes made while it is down fail and fall
// back.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

func NewNATSSink(cfg config.NATSConfig) (*NATSSink, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("warden"),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", cfg.URL, err)
	}
	return &NATSSink{conn: conn, subject: cfg.Subject}, nil
}

func (s *NATSSink) Name() string { return TypeNATS }

func (s *NATSSink) Write(ctx context.Context, event domain.Event) error {
	if !s.conn.IsConnected() {
		return fmt.Errorf("nats not connected: %s", s.conn.Status())
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", s.subject, err)
	}
	// the flush round trip is what surfaces a dead server within the timeout
	return s.conn.FlushWithContext(ctx)
}

func (s *NATSSink) Close() error {
	return s.conn.Drain()
}
