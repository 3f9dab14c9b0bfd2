package sink

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/pkg/pool"
)

const TypeFile = "file"

// FileSink appends one JSON document per line to a size-rotated file
type FileSink struct {
	writer  *lumberjack.Logger
	buffers *pool.Pool[*bytes.Buffer]
	mu      sync.Mutex
}

func NewFileSink(cfg config.FileSinkConfig) (*FileSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file sink path is required")
	}
	buffers, err := pool.NewLitePool(func() *bytes.Buffer { return new(bytes.Buffer) })
	if err != nil {
		return nil, err
	}
	return &FileSink{
		writer: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		},
		buffers: buffers,
	}, nil
}

func (s *FileSink) Name() string { return TypeFile }

func (s *FileSink) Write(_ context.Context, event domain.Event) error {
	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	if err := json.NewEncoder(buf).Encode(event); err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.writer.Write(buf.Bytes())
	return err
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Close()
}
