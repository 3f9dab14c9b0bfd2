package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/thushan/warden/internal/core/domain"
)

// SecurityRequest is the slice of an inbound request the guard stages look at
type SecurityRequest struct {
	Rate      *domain.RateDecision
	Input     domain.Value
	Headers   http.Header
	Identity  string
	Path      string
	Method    string
	UserAgent string
}

type SecurityViolation struct {
	Timestamp     time.Time
	Identity      string
	ViolationType string
	Endpoint      string
	Detail        string
}

const (
	ViolationRateLimit = "rate_limit"
	ViolationBlocked   = "blocked"
	ViolationThreat    = "threat"
	ViolationSize      = "size_limit"
)

// SecurityStage is one step of the guard pipeline. A nil error lets the
// request continue; any error rejects it.
type SecurityStage interface {
	Check(ctx context.Context, req *SecurityRequest) error
	Name() string
}

// SecurityChain runs stages in order and stops at the first rejection
type SecurityChain struct {
	stages []SecurityStage
}

func NewSecurityChain(stages ...SecurityStage) *SecurityChain {
	return &SecurityChain{stages: stages}
}

func (c *SecurityChain) Check(ctx context.Context, req *SecurityRequest) (string, error) {
	for _, stage := range c.stages {
		if err := stage.Check(ctx, req); err != nil {
			return stage.Name(), err
		}
	}
	return "", nil
}

func (c *SecurityChain) Stages() []SecurityStage {
	return c.stages
}

// ReputationService is the admin-facing side of the reputation tracker
type ReputationService interface {
	RecordSuspicion(identity string, reason domain.SuspicionReason) (int, bool)
	Count(identity string) int
	IsBlocked(identity string) bool
	Block(identity string)
	Unblock(identity string) bool
	Suspicious() []string
	Blocked() []string
}

type RateLimiter interface {
	Allow(identity string) (domain.RateDecision, error)
	Sweep(now time.Time) int
	ActiveWindows() int
}
