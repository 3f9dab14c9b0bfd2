package security

import (
	"context"
	"errors"
	"time"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/util"
)

// ViolationRecorder is the single place a guard rejection is accounted for:
// stats, reputation, the structured log and the external sink
type ViolationRecorder struct {
	stats      ports.StatsCollector
	reputation ports.ReputationService
	eventLog   ports.EventLog
	publisher  ports.EventPublisher
	logger     logger.StyledLogger
}

func NewViolationRecorder(stats ports.StatsCollector, reputation ports.ReputationService, eventLog ports.EventLog, publisher ports.EventPublisher, log logger.StyledLogger) *ViolationRecorder {
	return &ViolationRecorder{
		stats:      stats,
		reputation: reputation,
		eventLog:   eventLog,
		publisher:  publisher,
		logger:     log,
	}
}

func (vr *ViolationRecorder) Record(ctx context.Context, req *ports.SecurityRequest, err error) {
	violation := ports.SecurityViolation{
		Timestamp: time.Now(),
		Identity:  req.Identity,
		Endpoint:  req.Path,
		Detail:    err.Error(),
	}
	requestID := util.RequestIDFromContext(ctx)

	var (
		rateErr    *domain.RateLimitError
		threatErr  *domain.ThreatError
		blockedErr *domain.BlockedError
		sizeErr    *domain.RequestTooLargeError
	)

	switch {
	case errors.As(err, &rateErr):
		violation.ViolationType = ports.ViolationRateLimit
		vr.stats.RecordSecurityViolation(violation)
		vr.logger.WarnWithIdentity("Rate limit exceeded for", req.Identity,
			"window", rateErr.Window,
			"limit", rateErr.Limit,
			"retry_after", rateErr.RetryAfter.Round(time.Second),
			"method", req.Method,
			"path", req.Path,
			"request_id", requestID)

		// the global bucket says nothing about this caller
		if rateErr.Window != domain.WindowGlobal {
			vr.suspect(req, domain.SuspicionRateLimit)
		}
		vr.publish(domain.SeverityWarning, "rate limit exceeded", req, map[string]any{
			"window":     string(rateErr.Window),
			"limit":      rateErr.Limit,
			"request_id": requestID,
		})

	case errors.As(err, &threatErr):
		violation.ViolationType = ports.ViolationThreat
		d := threatErr.Detection
		vr.stats.RecordSecurityViolation(violation)
		vr.logger.WarnWithIdentity("Threat detected from", req.Identity,
			"kind", d.Kind,
			"rule", d.Rule,
			"location", d.Location,
			"value", d.Value,
			"rules_version", d.RuleSetVersion,
			"method", req.Method,
			"path", req.Path,
			"user_agent", req.UserAgent,
			"request_id", requestID)

		vr.suspect(req, domain.SuspicionThreat)
		vr.appendEntry(domain.SeverityWarning, "threat detected: "+string(d.Kind), req)
		vr.publish(domain.SeverityWarning, "threat detected", req, map[string]any{
			"kind":          string(d.Kind),
			"rule":          d.Rule,
			"location":      d.Location,
			"value":         d.Value,
			"rules_version": d.RuleSetVersion,
			"method":        req.Method,
			"user_agent":    req.UserAgent,
			"request_id":    requestID,
		})

	case errors.As(err, &blockedErr):
		violation.ViolationType = ports.ViolationBlocked
		vr.stats.RecordSecurityViolation(violation)
		vr.logger.Debug("Rejected blocked identity", "identity", req.Identity, "path", req.Path, "request_id", requestID)
		vr.suspect(req, domain.SuspicionBlocked)

	case errors.As(err, &sizeErr):
		violation.ViolationType = ports.ViolationSize
		vr.stats.RecordSecurityViolation(violation)
		vr.logger.WarnWithIdentity("Request body too large from", req.Identity,
			"limit", sizeErr.Limit,
			"method", req.Method,
			"path", req.Path,
			"request_id", requestID)

	default:
		vr.logger.ErrorWithIdentity("Guard failed while checking request from", req.Identity,
			"error", err,
			"path", req.Path,
			"request_id", requestID)
	}
}

// RecordBypass accounts for a request that skipped rate limiting
func (vr *ViolationRecorder) RecordBypass(req *ports.SecurityRequest) {
	vr.stats.RecordBypass(req.Identity)
	vr.logger.Debug("Rate limit bypassed", "identity", req.Identity, "path", req.Path)
}

func (vr *ViolationRecorder) suspect(req *ports.SecurityRequest, reason domain.SuspicionReason) {
	if req.Identity == domain.UnknownIdentity {
		return
	}
	vr.reputation.RecordSuspicion(req.Identity, reason)
}

// Escalated is wired as the reputation tracker's escalation hook
func (vr *ViolationRecorder) Escalated(identity string, reason domain.SuspicionReason, count int) {
	vr.logger.WarnWithIdentity("Identity blocked after repeated suspicious activity", identity,
		"reason", reason,
		"count", count)

	if vr.eventLog != nil {
		vr.eventLog.Append(domain.ErrorLogEntry{
			Timestamp: time.Now(),
			ID:        util.GenerateRequestID(),
			Level:     domain.SeverityWarning,
			Message:   "identity blocked after repeated " + string(reason) + " events",
			Source:    domain.SourceSecurity,
			Identity:  identity,
		})
	}

	if vr.publisher != nil {
		vr.publisher.Publish(domain.Event{
			Timestamp: time.Now(),
			ID:        util.GenerateRequestID(),
			Level:     domain.SeverityWarning,
			Message:   "identity blocked",
			Source:    domain.SourceSecurity,
			Identity:  identity,
			Metadata: map[string]any{
				"reason": string(reason),
				"count":  count,
			},
		})
	}
}

func (vr *ViolationRecorder) appendEntry(level domain.Severity, message string, req *ports.SecurityRequest) {
	if vr.eventLog == nil {
		return
	}
	vr.eventLog.Append(domain.ErrorLogEntry{
		Timestamp: time.Now(),
		ID:        util.GenerateRequestID(),
		Level:     level,
		Message:   message,
		Source:    domain.SourceSecurity,
		Endpoint:  req.Path,
		Method:    req.Method,
		Identity:  req.Identity,
		UserAgent: req.UserAgent,
	})
}

func (vr *ViolationRecorder) publish(level domain.Severity, message string, req *ports.SecurityRequest, metadata map[string]any) {
	if vr.publisher == nil {
		return
	}
	metadata["path"] = req.Path
	vr.publisher.Publish(domain.Event{
		Timestamp: time.Now(),
		ID:        util.GenerateRequestID(),
		Level:     level,
		Message:   message,
		Source:    domain.SourceSecurity,
		Identity:  req.Identity,
		Metadata:  metadata,
	})
}

// AdminAction records an operator block or unblock. The in-memory event log
// is left to traffic; the action is logged and forwarded to the sink.
func (vr *ViolationRecorder) AdminAction(action, identity, actor string, changed bool) {
	vr.logger.InfoWithIdentity("Operator "+action+" for", identity,
		"changed", changed,
		"actor", actor)

	if vr.publisher == nil {
		return
	}
	vr.publisher.Publish(domain.Event{
		Timestamp: time.Now(),
		ID:        util.GenerateRequestID(),
		Level:     domain.SeverityInfo,
		Message:   "identity " + action,
		Source:    domain.SourceAdmin,
		Identity:  identity,
		Metadata: map[string]any{
			"actor":   actor,
			"changed": changed,
		},
	})
}
