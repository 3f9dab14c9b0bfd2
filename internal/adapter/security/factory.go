package security

import (
	"context"
	"net/http"
	"time"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
	"github.com/thushan/warden/internal/util"
)

// Services is the wired security layer, built once at startup and shared by
// the HTTP routes, the scheduler and the admin API
type Services struct {
	Guard      *Guard
	Limiter    *WindowLimiter
	Global     *GlobalLimiter
	Scanner    *ThreatScanner
	Reputation *ReputationTracker
	Recorder   *ViolationRecorder
	Size       *SizeValidator
	watcher    *RulesWatcher
	logger     logger.StyledLogger
	rulesFile  string
	watchRules bool
}

// NewSecurityServices creates and wires the validators so they're easy to
// chain and consume. Only a bad rules file can make it fail.
func NewSecurityServices(cfg *config.Config, stats ports.StatsCollector, eventLog ports.EventLog, publisher ports.EventPublisher, log logger.StyledLogger) (*Services, error) {
	rules, err := LoadRuleSet(cfg.Security.RulesFile)
	if err != nil {
		return nil, err
	}

	scanner := NewThreatScanner(rules)
	limiter := NewWindowLimiter(cfg.Security.RateLimits)
	global := NewGlobalLimiter(cfg.Security.RateLimits.GlobalRequestsPerMinute, cfg.Security.RateLimits.BurstSize)
	reputation := NewReputationTracker(cfg.Security.Reputation)
	recorder := NewViolationRecorder(stats, reputation, eventLog, publisher, log)
	reputation.OnEscalate(recorder.Escalated)
	size := NewSizeValidator(cfg.Security.MaxBodySizeBytes)

	blocked := &blockedStage{reputation: reputation}
	rateLimit := &rateLimitStage{global: global, limiter: limiter, recorder: recorder, now: time.Now}

	guard := &Guard{
		resolver:   util.NewIdentityResolver(cfg.Security.TrustProxyHeaders, cfg.Security.TrustedProxyCIDRsParsed),
		headers:    NewSecurityHeaders(cfg.Security.Headers),
		size:       size,
		recorder:   recorder,
		logger:     log,
		adminToken: cfg.Admin.Token,
		preBody: ports.NewSecurityChain(
			blocked,   /* cheapest rejection first */
			rateLimit, /* then the windows */
			&activityStage{scanner: scanner},
		),
		postBody: ports.NewSecurityChain(
			&sqlStage{scanner: scanner},
			&xssStage{scanner: scanner},
		),
		admin: ports.NewSecurityChain(blocked, rateLimit),
	}

	log.Info("Security rules loaded",
		"source", rules.Source,
		"version", rules.Version,
		"sql", len(rules.sql),
		"xss", len(rules.xss),
		"probe_paths", len(rules.probePaths),
		"bot_agents", len(rules.botAgents))

	return &Services{
		Guard:      guard,
		Limiter:    limiter,
		Global:     global,
		Scanner:    scanner,
		Reputation: reputation,
		Recorder:   recorder,
		Size:       size,
		logger:     log,
		rulesFile:  cfg.Security.RulesFile,
		watchRules: cfg.Security.WatchRules,
	}, nil
}

// Start begins watching the rules file when one is configured
func (s *Services) Start(ctx context.Context) error {
	if s.rulesFile == "" || !s.watchRules {
		return nil
	}
	s.watcher = NewRulesWatcher(s.rulesFile, s.Scanner, s.logger)
	return s.watcher.Start(ctx)
}

func (s *Services) Stop() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}

// Middleware wraps a handler for the given route class
func (s *Services) Middleware(class RouteClass) func(http.Handler) http.Handler {
	return s.Guard.Middleware(class)
}

// ApplyConfig pushes reloadable settings into the running layer
func (s *Services) ApplyConfig(cfg *config.Config) {
	s.Limiter.UpdateLimits(cfg.Security.RateLimits.PerMinute, cfg.Security.RateLimits.PerHour)
	s.Reputation.UpdateThresholds(cfg.Security.Reputation.SuspicionThreshold, cfg.Security.Reputation.RateLimitThreshold)
}

// SweepRateWindows drops expired window counters, run by the scheduler
func (s *Services) SweepRateWindows(now time.Time) int {
	return s.Limiter.Sweep(now)
}

// Block adds identity to the blocked set on an operator's request. actor is
// the identity of the admin caller.
func (s *Services) Block(identity, actor string) {
	changed := !s.Reputation.IsBlocked(identity)
	s.Reputation.Block(identity)
	s.Recorder.AdminAction("blocked", identity, actor, changed)
}

// Unblock readmits identity and reports whether it was blocked
func (s *Services) Unblock(identity, actor string) bool {
	found := s.Reputation.Unblock(identity)
	s.Recorder.AdminAction("unblocked", identity, actor, found)
	return found
}

// RulesVersion is the version of the active threat rule set
func (s *Services) RulesVersion() string {
	return s.Scanner.Rules().Version
}

func (s *Services) Status() domain.SecurityStatus {
	return domain.SecurityStatus{
		SuspiciousIdentities:  s.Reputation.Suspicious(),
		BlockedIdentities:     s.Reputation.Blocked(),
		ActiveRateWindowCount: s.Limiter.ActiveWindows(),
	}
}
