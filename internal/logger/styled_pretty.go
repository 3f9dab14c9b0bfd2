package logger

import (
	"fmt"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/theme"
)

// PrettyStyledLogger implements StyledLogger with pterm formatting
type PrettyStyledLogger struct {
	logger *slog.Logger
	Theme  *theme.Theme
}

func NewPrettyStyledLogger(logger *slog.Logger, theme *theme.Theme) *PrettyStyledLogger {
	return &PrettyStyledLogger{
		logger: logger,
		Theme:  theme,
	}
}

func (sl *PrettyStyledLogger) Debug(msg string, args ...any) {
	sl.logger.Debug(msg, args...)
}

func (sl *PrettyStyledLogger) Info(msg string, args ...any) {
	sl.logger.Info(msg, args...)
}

func (sl *PrettyStyledLogger) Warn(msg string, args ...any) {
	sl.logger.Warn(msg, args...)
}

func (sl *PrettyStyledLogger) Error(msg string, args ...any) {
	sl.logger.Error(msg, args...)
}

func (sl *PrettyStyledLogger) InfoWithCount(msg string, count int, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Counts.Sprint("(", count, ")"))
	sl.logger.Info(styledMsg, args...)
}

func (sl *PrettyStyledLogger) InfoWithIdentity(msg string, identity string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Identity.Sprint(identity))
	sl.logger.Info(styledMsg, args...)
}

func (sl *PrettyStyledLogger) WarnWithIdentity(msg string, identity string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Identity.Sprint(identity))
	sl.logger.Warn(styledMsg, args...)
}

func (sl *PrettyStyledLogger) ErrorWithIdentity(msg string, identity string, args ...any) {
	styledMsg := fmt.Sprintf("%s %s", msg, sl.Theme.Identity.Sprint(identity))
	sl.logger.Error(styledMsg, args...)
}

func (sl *PrettyStyledLogger) InfoHealthStatus(msg string, status domain.HealthStatus, args ...any) {
	var statusStyle *pterm.Style

	switch status {
	case domain.HealthHealthy:
		statusStyle = sl.Theme.HealthHealthy
	case domain.HealthWarning:
		statusStyle = sl.Theme.HealthWarning
	default:
		statusStyle = sl.Theme.HealthError
	}

	styledMsg := fmt.Sprintf("%s %s", msg, statusStyle.Sprint(string(status)))
	sl.logger.Info(styledMsg, args...)
}

func (sl *PrettyStyledLogger) GetUnderlying() *slog.Logger {
	return sl.logger
}

func (sl *PrettyStyledLogger) With(args ...any) StyledLogger {
	return &PrettyStyledLogger{
		logger: sl.logger.With(args...),
		Theme:  sl.Theme,
	}
}
