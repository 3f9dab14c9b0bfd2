package domain

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrRateLimitExceeded      = errors.New("rate limit exceeded")
	ErrThreatDetected         = errors.New("threat detected")
	ErrAccessBlocked          = errors.New("access blocked")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrRequestTooLarge        = errors.New("request too large")
	ErrUnknownAlertType       = errors.New("unknown alert type")
)

type RateLimitError struct {
	Identity   string
	Window     RateWindow
	Limit      int
	RetryAfter time.Duration
	ResetTime  time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %d per %s (retry in %v)", e.Identity, e.Limit, e.Window, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimitExceeded
}

type ThreatError struct {
	Detection *Detection
	Identity  string
}

func (e *ThreatError) Error() string {
	if e.Detection == nil {
		return fmt.Sprintf("threat detected from %s", e.Identity)
	}
	return fmt.Sprintf("threat detected from %s: %s at %s (rule %s)",
		e.Identity, e.Detection.Kind, e.Detection.Location, e.Detection.Rule)
}

func (e *ThreatError) Unwrap() error {
	return ErrThreatDetected
}

// Kind is a convenience for callers that only care about the classification
func (e *ThreatError) Kind() ThreatKind {
	if e.Detection == nil {
		return ""
	}
	return e.Detection.Kind
}

type BlockedError struct {
	Identity string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("identity %s is blocked", e.Identity)
}

func (e *BlockedError) Unwrap() error {
	return ErrAccessBlocked
}

type PersistenceError struct {
	Err   error
	Probe string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence probe %s failed: %v", e.Probe, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceUnavailable, e.Err}
}

type RequestTooLargeError struct {
	Limit int64
}

func (e *RequestTooLargeError) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.Limit)
}

func (e *RequestTooLargeError) Unwrap() error {
	return ErrRequestTooLarge
}

type ConfigValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("invalid configuration for %s=%v: %s", e.Field, e.Value, e.Reason)
}

func NewPersistenceError(probe string, err error) *PersistenceError {
	return &PersistenceError{
		Probe: probe,
		Err:   err,
	}
}

func NewConfigValidationError(field string, value interface{}, reason string) *ConfigValidationError {
	return &ConfigValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// PublicResponse maps a guard error onto the status code and the generic
// message a client is allowed to see. Nothing from the request is echoed.
func PublicResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ErrAccessBlocked):
		return http.StatusForbidden, "Access denied"
	case errors.Is(err, ErrRateLimitExceeded):
		return http.StatusTooManyRequests, "Too many requests, please try again later"
	case errors.Is(err, ErrThreatDetected):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge, "Request entity too large"
	case errors.Is(err, ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable, "Service unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
