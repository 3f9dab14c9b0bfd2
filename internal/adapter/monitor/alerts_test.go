package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/core/domain"
)

func TestAlertBook_ConfigureAlert(t *testing.T) {
	book := NewAlertBook(domain.DefaultAlertRules())

	rule, err := book.ConfigureAlert(domain.AlertErrorRate, 25, false)
	require.NoError(t, err)
	assert.Equal(t, 25.0, rule.Threshold)
	assert.False(t, rule.Enabled)
	assert.Equal(t, domain.SeverityWarning, rule.Level)

	stored, ok := book.Rule(domain.AlertErrorRate)
	require.True(t, ok)
	assert.Equal(t, rule, stored)
}

func TestAlertBook_ConfigureUnknownType(t *testing.T) {
	book := NewAlertBook(domain.DefaultAlertRules())

	_, err := book.ConfigureAlert("disk_full", 1, true)
	assert.ErrorIs(t, err, domain.ErrUnknownAlertType)
}

func TestAlertBook_RulesKeepOrder(t *testing.T) {
	book := NewAlertBook(domain.DefaultAlertRules())

	var types []domain.AlertType
	for _, r := range book.Rules() {
		types = append(types, r.Type)
	}
	assert.Equal(t, []domain.AlertType{
		domain.AlertMemoryWarning,
		domain.AlertMemoryCritical,
		domain.AlertResponseTimeWarning,
		domain.AlertResponseTimeCritical,
		domain.AlertDatabase,
		domain.AlertErrorRate,
	}, types)
}

func TestAlertBook_Evaluate(t *testing.T) {
	tests := []struct {
		name         string
		snap         domain.MetricSnapshot
		recentErrors int
		want         []domain.AlertType
	}{
		{
			name: "quiet",
			snap: domain.MetricSnapshot{Memory: domain.MemoryUsage{Ratio: 0.5}, AvgResponseTime: 100 * time.Millisecond, DatabaseStatus: domain.DatabaseConnected},
		},
		{
			name: "memory warning only",
			snap: domain.MetricSnapshot{Memory: domain.MemoryUsage{Ratio: 0.85}},
			want: []domain.AlertType{domain.AlertMemoryWarning},
		},
		{
			name: "critical memory suppresses the warning",
			snap: domain.MetricSnapshot{Memory: domain.MemoryUsage{Ratio: 0.95}},
			want: []domain.AlertType{domain.AlertMemoryCritical},
		},
		{
			name: "slow responses",
			snap: domain.MetricSnapshot{AvgResponseTime: 3 * time.Second},
			want: []domain.AlertType{domain.AlertResponseTimeWarning},
		},
		{
			name: "very slow responses",
			snap: domain.MetricSnapshot{AvgResponseTime: 6 * time.Second},
			want: []domain.AlertType{domain.AlertResponseTimeCritical},
		},
		{
			name: "threshold is exclusive",
			snap: domain.MetricSnapshot{AvgResponseTime: 2 * time.Second, Memory: domain.MemoryUsage{Ratio: 0.8}},
		},
		{
			name: "database down",
			snap: domain.MetricSnapshot{DatabaseStatus: domain.DatabaseError},
			want: []domain.AlertType{domain.AlertDatabase},
		},
		{
			name:         "error rate",
			snap:         domain.MetricSnapshot{},
			recentErrors: 11,
			want:         []domain.AlertType{domain.AlertErrorRate},
		},
		{
			name:         "error rate at threshold",
			snap:         domain.MetricSnapshot{},
			recentErrors: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := NewAlertBook(domain.DefaultAlertRules())
			alerts := book.Evaluate(&tt.snap, tt.recentErrors, 5*time.Minute)

			var got []domain.AlertType
			for _, a := range alerts {
				got = append(got, a.Rule.Type)
				assert.NotEmpty(t, a.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlertBook_DisabledRuleIsSilent(t *testing.T) {
	book := NewAlertBook(domain.DefaultAlertRules())
	_, err := book.ConfigureAlert(domain.AlertDatabase, 0, false)
	require.NoError(t, err)

	alerts := book.Evaluate(&domain.MetricSnapshot{DatabaseStatus: domain.DatabaseError}, 0, time.Minute)
	assert.Empty(t, alerts)
}

func TestAlertBook_DisablingCriticalFallsBackToWarning(t *testing.T) {
	book := NewAlertBook(domain.DefaultAlertRules())
	_, err := book.ConfigureAlert(domain.AlertMemoryCritical, 0.9, false)
	require.NoError(t, err)

	alerts := book.Evaluate(&domain.MetricSnapshot{Memory: domain.MemoryUsage{Ratio: 0.95}}, 0, time.Minute)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertMemoryWarning, alerts[0].Rule.Type)
}
