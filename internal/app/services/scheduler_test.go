package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/domain"
)

func TestScheduler_RunsCollection(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Monitor.Interval = time.Second
	require.NoError(t, cfg.Finalise())

	log := testLogger()
	sm := NewServiceManager(log)
	statsSvc := NewStatsService(log)
	persistenceSvc := NewPersistenceService(cfg.Persistence, log)
	eventsSvc := NewEventsService(cfg, statsSvc, log)
	securitySvc := NewSecurityService(cfg, statsSvc, eventsSvc, log)
	monitorSvc := NewMonitorService(&cfg.Monitor, time.Now(), statsSvc, eventsSvc, persistenceSvc, securitySvc, log)
	scheduler := NewSchedulerService(cfg, monitorSvc, securitySvc, eventsSvc, log)
	for _, svc := range []ManagedService{statsSvc, persistenceSvc, eventsSvc, securitySvc, monitorSvc, scheduler} {
		require.NoError(t, sm.Register(svc))
	}

	assert.True(t, scheduler.Next(JobCollectMetrics).IsZero(), "nothing scheduled before start")

	require.NoError(t, sm.Start(t.Context()))
	defer func() {
		assert.NoError(t, sm.Stop(t.Context()))
	}()

	for _, job := range []string{JobCollectMetrics, JobSweepRateWindow, JobPruneEventLog} {
		assert.False(t, scheduler.Next(job).IsZero(), job)
	}

	aggregator := monitorSvc.GetAggregator()
	require.Eventually(t, func() bool {
		return aggregator.Latest() != nil
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, domain.DatabaseDisabled, aggregator.Latest().DatabaseStatus)

	registry := sm.GetRegistry()
	got, err := registry.GetMonitor()
	require.NoError(t, err)
	assert.Same(t, monitorSvc, got)
	_, err = registry.GetHTTP()
	assert.Error(t, err)
}
