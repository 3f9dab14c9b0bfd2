package ports

import (
	"context"
	"time"

	"github.com/thushan/warden/internal/core/domain"
)

// EventSink is a durable destination for forwarded events
type EventSink interface {
	Name() string
	Write(ctx context.Context, event domain.Event) error
	Close() error
}

// EventPublisher hands events to the sink without blocking the caller
type EventPublisher interface {
	Publish(event domain.Event)
}

type EventLog interface {
	Append(entry domain.ErrorLogEntry)
	Prune(now time.Time) int
	Recent(limit int) []domain.ErrorLogEntry
	CountSince(t time.Time) int
	Len() int
	Total() int64
}

type PersistenceProbe interface {
	Name() string
	Ping(ctx context.Context) error
}
