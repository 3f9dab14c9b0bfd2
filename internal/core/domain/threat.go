package domain

import "time"

type ThreatKind string

const (
	ThreatSQLPattern     ThreatKind = "SQLPattern"
	ThreatXSSPattern     ThreatKind = "XSSPattern"
	ThreatSuspiciousPath ThreatKind = "SuspiciousPath"
	ThreatBotActivity    ThreatKind = "BotActivity"
	ThreatNoUserAgent    ThreatKind = "NoUserAgent"
)

// Detection describes the first signature that matched a request. Value and
// Rule are for logging only and must never reach the client.
type Detection struct {
	Kind           ThreatKind `json:"kind"`
	Location       string     `json:"location"`
	Value          string     `json:"value"`
	Rule           string     `json:"rule"`
	RuleSetVersion string     `json:"rule_set_version"`
}

type RateWindow string

const (
	WindowMinute RateWindow = "minute"
	WindowHour   RateWindow = "hour"
	WindowGlobal RateWindow = "global"
)

type SuspicionReason string

const (
	SuspicionRateLimit SuspicionReason = "rate_limit"
	SuspicionThreat    SuspicionReason = "threat"
	// SuspicionBlocked counts requests from an already blocked identity. It
	// adds to the tally but never to an escalation threshold.
	SuspicionBlocked SuspicionReason = "blocked"
)

// RateDecision carries the numbers behind the X-RateLimit-* headers
type RateDecision struct {
	ResetTime time.Time
	Limit     int
	Remaining int
}
