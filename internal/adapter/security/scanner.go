package security

import (
	"html"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/thushan/warden/internal/core/domain"
)

const (
	maxDecodePasses     = 3
	maxDetectionExcerpt = 256
)

/*
				Warden Security Adapter - Threat Scanner
	ThreatScanner checks string leaves of a request against the SQL and XSS
	signature groups, and request paths and user agents against the probe
	and bot groups. Scanning is heuristic: a clean result means no signature
	matched, nothing more.

	Values are normalised before matching so encoded payloads are caught:
	NUL bytes are dropped, percent-encoding is undone up to three times and
	HTML entities are decoded once. Detections always carry the raw value.

	The active RuleSet lives behind an atomic pointer, so a hot reload never
	blocks or races a scan in flight.
*/

type ThreatScanner struct {
	rules atomic.Pointer[RuleSet]
}

func NewThreatScanner(rs *RuleSet) *ThreatScanner {
	if rs == nil {
		rs = DefaultRuleSet()
	}
	ts := &ThreatScanner{}
	ts.rules.Store(rs)
	return ts
}

func (ts *ThreatScanner) Rules() *RuleSet {
	return ts.rules.Load()
}

// SetRules swaps the active signature set and returns the previous one
func (ts *ThreatScanner) SetRules(rs *RuleSet) *RuleSet {
	return ts.rules.Swap(rs)
}

// ScanSQL walks v in document order and reports the first leaf that matches
// a SQL signature
func (ts *ThreatScanner) ScanSQL(v domain.Value) *domain.Detection {
	rs := ts.rules.Load()
	return scanValue(v, rs.sql, domain.ThreatSQLPattern, rs.Version)
}

func (ts *ThreatScanner) ScanXSS(v domain.Value) *domain.Detection {
	rs := ts.rules.Load()
	return scanValue(v, rs.xss, domain.ThreatXSSPattern, rs.Version)
}

// ScanValue runs the SQL group over the whole tree, then the XSS group
func (ts *ThreatScanner) ScanValue(v domain.Value) *domain.Detection {
	if d := ts.ScanSQL(v); d != nil {
		return d
	}
	return ts.ScanXSS(v)
}

func (ts *ThreatScanner) ScanPath(path string) *domain.Detection {
	rs := ts.rules.Load()
	normalised := normalise(path)
	lowered := strings.ToLower(normalised)

	for i := range rs.probePaths {
		if rs.probePaths[i].match(normalised, lowered) {
			return &domain.Detection{
				Kind:           domain.ThreatSuspiciousPath,
				Location:       "path",
				Value:          excerpt(path),
				Rule:           rs.probePaths[i].name,
				RuleSetVersion: rs.Version,
			}
		}
	}
	return nil
}

// ScanUserAgent flags a missing user agent and agents that name a known
// crawler or scanning tool
func (ts *ThreatScanner) ScanUserAgent(userAgent string) *domain.Detection {
	rs := ts.rules.Load()

	if strings.TrimSpace(userAgent) == "" {
		return &domain.Detection{
			Kind:           domain.ThreatNoUserAgent,
			Location:       "header.User-Agent",
			Rule:           "missing_user_agent",
			RuleSetVersion: rs.Version,
		}
	}

	lowered := strings.ToLower(userAgent)
	for _, agent := range rs.botAgents {
		if strings.Contains(lowered, agent) {
			return &domain.Detection{
				Kind:           domain.ThreatBotActivity,
				Location:       "header.User-Agent",
				Value:          excerpt(userAgent),
				Rule:           "bot_agent:" + agent,
				RuleSetVersion: rs.Version,
			}
		}
	}
	return nil
}

func scanValue(v domain.Value, rules []rule, kind domain.ThreatKind, version string) *domain.Detection {
	var found *domain.Detection

	v.Walk(func(path, s string) bool {
		if s == "" {
			return true
		}
		normalised := normalise(s)
		lowered := strings.ToLower(normalised)

		for i := range rules {
			if rules[i].match(normalised, lowered) {
				found = &domain.Detection{
					Kind:           kind,
					Location:       path,
					Value:          excerpt(s),
					Rule:           rules[i].name,
					RuleSetVersion: version,
				}
				return false
			}
		}
		return true
	})

	return found
}

func normalise(s string) string {
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.ReplaceAll(s, "\x00", "")
	}

	for range maxDecodePasses {
		if !strings.Contains(s, "%") && !strings.Contains(s, "+") {
			break
		}
		decoded, err := url.QueryUnescape(s)
		if err != nil || decoded == s {
			break
		}
		s = strings.ReplaceAll(decoded, "\x00", "")
	}

	if strings.IndexByte(s, '&') >= 0 {
		s = html.UnescapeString(s)
	}
	return s
}

func excerpt(s string) string {
	if len(s) <= maxDetectionExcerpt {
		return s
	}
	return s[:maxDetectionExcerpt] + "..."
}
