package domain

type AlertType string

const (
	AlertMemoryWarning        AlertType = "memory_warning"
	AlertMemoryCritical       AlertType = "memory_critical"
	AlertResponseTimeWarning  AlertType = "response_time_warning"
	AlertResponseTimeCritical AlertType = "response_time_critical"
	AlertDatabase             AlertType = "database"
	AlertErrorRate            AlertType = "error_rate"
)

// AlertRule is a runtime-tunable threshold. Threshold units depend on Type:
// a ratio for memory, milliseconds for response time, an event count for
// error rate. Database alerts ignore Threshold.
type AlertRule struct {
	Type      AlertType `json:"type"`
	Level     Severity  `json:"level"`
	Threshold float64   `json:"threshold"`
	Enabled   bool      `json:"enabled"`
}

// Alert is emitted when a rule is breached on a collection tick.
type Alert struct {
	Rule    AlertRule `json:"rule"`
	Message string    `json:"message"`
	Value   float64   `json:"value"`
}

func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{Type: AlertMemoryWarning, Level: SeverityWarning, Threshold: 0.8, Enabled: true},
		{Type: AlertMemoryCritical, Level: SeverityError, Threshold: 0.9, Enabled: true},
		{Type: AlertResponseTimeWarning, Level: SeverityWarning, Threshold: 2000, Enabled: true},
		{Type: AlertResponseTimeCritical, Level: SeverityError, Threshold: 5000, Enabled: true},
		{Type: AlertDatabase, Level: SeverityError, Threshold: 0, Enabled: true},
		{Type: AlertErrorRate, Level: SeverityWarning, Threshold: 10, Enabled: true},
	}
}
