package security

import (
	"context"
	"time"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
)

type blockedStage struct {
	reputation ports.ReputationService
}

func (s *blockedStage) Name() string { return "blocked" }

func (s *blockedStage) Check(_ context.Context, req *ports.SecurityRequest) error {
	if s.reputation.IsBlocked(req.Identity) {
		return &domain.BlockedError{Identity: req.Identity}
	}
	return nil
}

type rateLimitStage struct {
	global   *GlobalLimiter
	limiter  *WindowLimiter
	recorder *ViolationRecorder
	now      func() time.Time
}

func (s *rateLimitStage) Name() string { return "rate_limit" }

func (s *rateLimitStage) Check(_ context.Context, req *ports.SecurityRequest) error {
	if s.limiter.IsBypassed(req.Identity, req.Path) {
		s.recorder.RecordBypass(req)
		return nil
	}

	if err := s.global.Allow(s.now()); err != nil {
		return err
	}

	decision, err := s.limiter.Allow(req.Identity)
	req.Rate = &decision
	return err
}

// activityStage covers the cheap heuristics that need no body: probe paths
// and the user agent
type activityStage struct {
	scanner *ThreatScanner
}

func (s *activityStage) Name() string { return "suspicious_activity" }

func (s *activityStage) Check(_ context.Context, req *ports.SecurityRequest) error {
	if d := s.scanner.ScanPath(req.Path); d != nil {
		return &domain.ThreatError{Detection: d, Identity: req.Identity}
	}
	if d := s.scanner.ScanUserAgent(req.UserAgent); d != nil {
		return &domain.ThreatError{Detection: d, Identity: req.Identity}
	}
	return nil
}

type sqlStage struct {
	scanner *ThreatScanner
}

func (s *sqlStage) Name() string { return "sql_scan" }

func (s *sqlStage) Check(_ context.Context, req *ports.SecurityRequest) error {
	if d := s.scanner.ScanSQL(req.Input); d != nil {
		return &domain.ThreatError{Detection: d, Identity: req.Identity}
	}
	return nil
}

type xssStage struct {
	scanner *ThreatScanner
}

func (s *xssStage) Name() string { return "xss_scan" }

func (s *xssStage) Check(_ context.Context, req *ports.SecurityRequest) error {
	if d := s.scanner.ScanXSS(req.Input); d != nil {
		return &domain.ThreatError{Detection: d, Identity: req.Identity}
	}
	return nil
}
