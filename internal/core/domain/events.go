package domain

import "time"

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

const (
	SourceHTTP     = "http"
	SourceSecurity = "security"
	SourceMonitor  = "monitor"
	SourceAdmin    = "admin"
)

// ErrorLogEntry is one record in the in-memory error/event log
type ErrorLogEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	ID         string    `json:"id"`
	Level      Severity  `json:"level"`
	Message    string    `json:"message"`
	Source     string    `json:"source"`
	Endpoint   string    `json:"endpoint,omitempty"`
	Method     string    `json:"method,omitempty"`
	Identity   string    `json:"identity,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
}

// Event is what gets forwarded to the external audit store.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ID        string         `json:"id"`
	Level     Severity       `json:"level"`
	Message   string         `json:"message"`
	Source    string         `json:"source"`
	Identity  string         `json:"identity,omitempty"`
}

// SeverityForStatus classifies an HTTP status for the error log. ok is false
// for statuses that are not logged.
func SeverityForStatus(status int) (Severity, bool) {
	switch {
	case status >= 500:
		return SeverityError, true
	case status >= 400:
		return SeverityWarning, true
	default:
		return "", false
	}
}
