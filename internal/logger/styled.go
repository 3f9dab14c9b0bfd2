package logger

import (
	"log/slog"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/theme"
)

// StyledLogger wraps slog with theme-aware helpers for the guard's common
// messages. Pretty output goes to a terminal, plain output is for tests and
// non-TTY runs.
type StyledLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	InfoWithCount(msg string, count int, args ...any)
	InfoWithIdentity(msg string, identity string, args ...any)
	WarnWithIdentity(msg string, identity string, args ...any)
	ErrorWithIdentity(msg string, identity string, args ...any)
	InfoHealthStatus(msg string, status domain.HealthStatus, args ...any)

	GetUnderlying() *slog.Logger
	With(args ...any) StyledLogger
}

func NewWithTheme(cfg *Config) (*slog.Logger, StyledLogger, func(), error) {
	logger, cleanup, err := New(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	appTheme := theme.GetTheme(cfg.Theme)
	styledLogger := NewPrettyStyledLogger(logger, appTheme)

	return logger, styledLogger, cleanup, nil
}
