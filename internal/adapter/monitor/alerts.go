package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/thushan/warden/internal/core/domain"
	"github.com/thushan/warden/pkg/format"
)

// AlertBook holds the runtime-tunable alert rules. Rules keep the order they
// were registered in so evaluation and listings are stable.
type AlertBook struct {
	rules map[domain.AlertType]domain.AlertRule
	order []domain.AlertType
	mu    sync.RWMutex
}

func NewAlertBook(rules []domain.AlertRule) *AlertBook {
	ab := &AlertBook{
		rules: make(map[domain.AlertType]domain.AlertRule, len(rules)),
	}
	for _, r := range rules {
		if _, seen := ab.rules[r.Type]; !seen {
			ab.order = append(ab.order, r.Type)
		}
		ab.rules[r.Type] = r
	}
	return ab
}

func (ab *AlertBook) Rules() []domain.AlertRule {
	ab.mu.RLock()
	defer ab.mu.RUnlock()

	out := make([]domain.AlertRule, 0, len(ab.order))
	for _, t := range ab.order {
		out = append(out, ab.rules[t])
	}
	return out
}

func (ab *AlertBook) Rule(t domain.AlertType) (domain.AlertRule, bool) {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	r, ok := ab.rules[t]
	return r, ok
}

// ConfigureAlert changes a rule in place. Only known types can be configured;
// the change lasts for the life of the process.
func (ab *AlertBook) ConfigureAlert(t domain.AlertType, threshold float64, enabled bool) (domain.AlertRule, error) {
	ab.mu.Lock()
	defer ab.mu.Unlock()

	r, ok := ab.rules[t]
	if !ok {
		return domain.AlertRule{}, fmt.Errorf("%w: %q", domain.ErrUnknownAlertType, t)
	}
	r.Threshold = threshold
	r.Enabled = enabled
	ab.rules[t] = r
	return r, nil
}

// Evaluate checks a fresh snapshot and the recent error count against every
// enabled rule. When both the warning and the critical rule of a pair are
// breached only the critical one is reported.
func (ab *AlertBook) Evaluate(snap *domain.MetricSnapshot, recentErrors int, errorWindow time.Duration) []domain.Alert {
	if snap == nil {
		return nil
	}

	ab.mu.RLock()
	defer ab.mu.RUnlock()

	var alerts []domain.Alert
	avgMs := float64(snap.AvgResponseTime.Milliseconds())

	if a, ok := ab.breach(domain.AlertMemoryCritical, snap.Memory.Ratio); ok {
		a.Message = fmt.Sprintf("memory usage %s is above the critical threshold of %s",
			format.Percentage(snap.Memory.Ratio), format.Percentage(a.Rule.Threshold))
		alerts = append(alerts, a)
	} else if a, ok := ab.breach(domain.AlertMemoryWarning, snap.Memory.Ratio); ok {
		a.Message = fmt.Sprintf("memory usage %s is above the warning threshold of %s",
			format.Percentage(snap.Memory.Ratio), format.Percentage(a.Rule.Threshold))
		alerts = append(alerts, a)
	}

	if a, ok := ab.breach(domain.AlertResponseTimeCritical, avgMs); ok {
		a.Message = fmt.Sprintf("average response time %s is above the critical threshold of %.0fms",
			format.Latency(snap.AvgResponseTime), a.Rule.Threshold)
		alerts = append(alerts, a)
	} else if a, ok := ab.breach(domain.AlertResponseTimeWarning, avgMs); ok {
		a.Message = fmt.Sprintf("average response time %s is above the warning threshold of %.0fms",
			format.Latency(snap.AvgResponseTime), a.Rule.Threshold)
		alerts = append(alerts, a)
	}

	if r, ok := ab.rules[domain.AlertDatabase]; ok && r.Enabled && snap.DatabaseStatus == domain.DatabaseError {
		alerts = append(alerts, domain.Alert{
			Rule:    r,
			Value:   1,
			Message: "persistence liveness probe failed",
		})
	}

	if a, ok := ab.breach(domain.AlertErrorRate, float64(recentErrors)); ok {
		a.Message = fmt.Sprintf("%d error events in the last %s exceeds the threshold of %.0f",
			recentErrors, format.Duration(errorWindow), a.Rule.Threshold)
		alerts = append(alerts, a)
	}

	return alerts
}

// breach must be called with the read lock held
func (ab *AlertBook) breach(t domain.AlertType, value float64) (domain.Alert, bool) {
	r, ok := ab.rules[t]
	if !ok || !r.Enabled || value <= r.Threshold {
		return domain.Alert{}, false
	}
	return domain.Alert{Rule: r, Value: value}, true
}
