package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/thushan/warden/internal/core/domain"
)

const TypePostgres = "postgres"

// SecurityEvent is the row written to security_events
type SecurityEvent struct {
	Timestamp time.Time `gorm:"index;not null"`
	ID        string    `gorm:"primaryKey;size:64"`
	Level     string    `gorm:"size:16;not null"`
	Source    string    `gorm:"size:32;index"`
	Identity  string    `gorm:"size:64;index"`
	Message   string    `gorm:"type:text"`
	Metadata  string    `gorm:"type:jsonb"`
}

func (SecurityEvent) TableName() string { return "security_events" }

// PostgresSink inserts events through gorm. The table is migrated on the
// first write that reaches the database, so startup never waits on it.
type PostgresSink struct {
	db       *gorm.DB
	migrated bool
	mu       sync.Mutex
}

func NewPostgresSink(db *gorm.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return TypePostgres }

func (s *PostgresSink) Write(ctx context.Context, event domain.Event) error {
	if err := s.migrate(ctx); err != nil {
		return err
	}

	metadata := "{}"
	if len(event.Metadata) > 0 {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", event.ID, err)
		}
		metadata = string(raw)
	}

	row := SecurityEvent{
		ID:        event.ID,
		Timestamp: event.Timestamp,
		Level:     string(event.Level),
		Source:    event.Source,
		Identity:  event.Identity,
		Message:   event.Message,
		Metadata:  metadata,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert security event %s: %w", event.ID, err)
	}
	return nil
}

func (s *PostgresSink) migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.migrated {
		return nil
	}
	if err := s.db.WithContext(ctx).AutoMigrate(&SecurityEvent{}); err != nil {
		return fmt.Errorf("migrate security_events: %w", err)
	}
	s.migrated = true
	return nil
}

func (s *PostgresSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
