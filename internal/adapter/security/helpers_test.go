package security

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/logger"
)

func testLogger() logger.StyledLogger {
	return logger.NewPlainStyledLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError})))
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	if err := cfg.Finalise(); err != nil {
		panic(err)
	}
	return cfg
}

type fakeClock struct {
	now time.Time
	mu  sync.Mutex
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type capturePublisher struct {
	events []domain.Event
	mu     sync.Mutex
}

func (p *capturePublisher) Publish(event domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Message
	}
	return out
}
